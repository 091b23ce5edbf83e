package model

import (
	"math"

	"deepscan/internal/tensor"
)

// Linear is a fully connected layer y = Wx + b.
type Linear struct {
	weights []float32 // row-major (out, in)
	bias    []float32
	in      int
	out     int
}

// NewLinear wraps checkpoint weights for an in→out projection.
func NewLinear(weights, bias []float32, in, out int) (*Linear, error) {
	if len(weights) != in*out {
		return nil, &tensor.ShapeError{Op: "linear weights", Want: []int{out, in}, Got: []int{len(weights)}}
	}
	if len(bias) != out {
		return nil, &tensor.ShapeError{Op: "linear bias", Want: []int{out}, Got: []int{len(bias)}}
	}
	return &Linear{weights: weights, bias: bias, in: in, out: out}, nil
}

// Forward applies the projection to one feature vector.
func (l *Linear) Forward(x []float32) ([]float32, error) {
	if len(x) != l.in {
		return nil, &tensor.ShapeError{Op: "linear input", Want: []int{l.in}, Got: []int{len(x)}}
	}
	y := make([]float32, l.out)
	for o := 0; o < l.out; o++ {
		acc := l.bias[o]
		row := l.weights[o*l.in : (o+1)*l.in]
		for i, v := range x {
			acc += row[i] * v
		}
		y[o] = acc
	}
	return y, nil
}

// Fusion merges per-frame and per-group scores into one fake probability:
// concat, sigmoid, project down to one unit per group, sigmoid, project to a
// single unit, sigmoid. The relative weight of the two branches is learned by
// the projections, not configured.
type Fusion struct {
	groups         int
	framesPerGroup int
	l1             *Linear
	l2             *Linear
}

// NewFusion wires the two projections for a (groups, framesPerGroup) shape.
// l1 must map groups*framesPerGroup+groups to groups; l2 maps groups to 1.
func NewFusion(groups, framesPerGroup int, l1, l2 *Linear) (*Fusion, error) {
	if l1.in != groups*framesPerGroup+groups || l1.out != groups {
		return nil, &tensor.ShapeError{
			Op:   "fusion first projection",
			Want: []int{groups, groups*framesPerGroup + groups},
			Got:  []int{l1.out, l1.in},
		}
	}
	if l2.in != groups || l2.out != 1 {
		return nil, &tensor.ShapeError{Op: "fusion second projection", Want: []int{1, groups}, Got: []int{l2.out, l2.in}}
	}
	return &Fusion{groups: groups, framesPerGroup: framesPerGroup, l1: l1, l2: l2}, nil
}

// Forward fuses the scores of one video into P(fake), strictly inside (0, 1).
func (f *Fusion) Forward(frameScores, groupScores []float32) (float32, error) {
	if len(frameScores) != f.groups*f.framesPerGroup {
		return 0, &tensor.ShapeError{Op: "fusion frame scores", Want: []int{f.groups * f.framesPerGroup}, Got: []int{len(frameScores)}}
	}
	if len(groupScores) != f.groups {
		return 0, &tensor.ShapeError{Op: "fusion group scores", Want: []int{f.groups}, Got: []int{len(groupScores)}}
	}

	x := make([]float32, 0, len(frameScores)+len(groupScores))
	x = append(x, frameScores...)
	x = append(x, groupScores...)
	for i, v := range x {
		x[i] = sigmoid(v)
	}

	h, err := f.l1.Forward(x)
	if err != nil {
		return 0, err
	}
	for i, v := range h {
		h[i] = sigmoid(v)
	}

	y, err := f.l2.Forward(h)
	if err != nil {
		return 0, err
	}
	return sigmoid(y[0]), nil
}

// sigmoid maps any finite input into (0, 1). The clamp keeps float32
// saturation away from exactly 0 or 1.
func sigmoid(v float32) float32 {
	s := 1.0 / (1.0 + math.Exp(-float64(v)))
	const eps = 1e-7
	if s < eps {
		s = eps
	}
	if s > 1-eps {
		s = 1 - eps
	}
	return float32(s)
}
