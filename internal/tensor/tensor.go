package tensor

import "fmt"

// ShapeError reports a violated tensor shape contract. Shape violations are
// never coerced; every boundary that cares about shape fails loudly with one
// of these.
type ShapeError struct {
	Op   string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: shape mismatch: want %v, got %v", e.Op, e.Want, e.Got)
}

// Tensor is a dense float32 n-dimensional array with an explicit shape.
// Data is stored row-major (last axis fastest).
type Tensor struct {
	data  []float32
	shape []int
}

func numElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// New allocates a zero-filled tensor with the given shape.
func New(shape ...int) *Tensor {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{
		data:  make([]float32, numElements(s)),
		shape: s,
	}
}

// FromSlice wraps an existing slice in a tensor of the given shape.
func FromSlice(data []float32, shape ...int) (*Tensor, error) {
	if len(data) != numElements(shape) {
		return nil, &ShapeError{Op: "tensor from slice", Want: shape, Got: []int{len(data)}}
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{data: data, shape: s}, nil
}

// Shape returns a copy of the tensor shape.
func (t *Tensor) Shape() []int {
	s := make([]int, len(t.shape))
	copy(s, t.shape)
	return s
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.shape) }

// Len returns the total element count.
func (t *Tensor) Len() int { return len(t.data) }

// Data returns the backing slice. Callers must not resize it.
func (t *Tensor) Data() []float32 { return t.data }

// Dim returns the size of a single axis.
func (t *Tensor) Dim(axis int) int { return t.shape[axis] }

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor index rank %d against shape %v", len(idx), t.shape))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.shape[i] {
			panic(fmt.Sprintf("tensor index %v out of bounds for shape %v", idx, t.shape))
		}
		off = off*t.shape[i] + x
	}
	return off
}

// At reads one element.
func (t *Tensor) At(idx ...int) float32 { return t.data[t.offset(idx)] }

// Set writes one element.
func (t *Tensor) Set(v float32, idx ...int) { t.data[t.offset(idx)] = v }

// Reshape returns a tensor sharing the same data with a new shape. The
// element counts must match exactly.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	if numElements(shape) != len(t.data) {
		return nil, &ShapeError{Op: "reshape", Want: shape, Got: t.shape}
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return &Tensor{data: t.data, shape: s}, nil
}

// AssertRank fails with a ShapeError unless the tensor has the given rank.
func (t *Tensor) AssertRank(op string, rank int) error {
	if len(t.shape) != rank {
		want := make([]int, rank)
		for i := range want {
			want[i] = -1
		}
		return &ShapeError{Op: op, Want: want, Got: t.shape}
	}
	return nil
}

// AssertShape fails with a ShapeError unless the tensor matches the given
// shape. A -1 entry matches any size on that axis.
func (t *Tensor) AssertShape(op string, shape ...int) error {
	if len(shape) != len(t.shape) {
		return &ShapeError{Op: op, Want: shape, Got: t.shape}
	}
	for i, d := range shape {
		if d != -1 && d != t.shape[i] {
			return &ShapeError{Op: op, Want: shape, Got: t.shape}
		}
	}
	return nil
}

// Permute returns a copy with axes reordered. axes must be a permutation of
// [0, rank).
func (t *Tensor) Permute(axes ...int) (*Tensor, error) {
	if len(axes) != len(t.shape) {
		return nil, &ShapeError{Op: "permute", Want: axes, Got: t.shape}
	}
	seen := make([]bool, len(axes))
	outShape := make([]int, len(axes))
	for i, a := range axes {
		if a < 0 || a >= len(axes) || seen[a] {
			return nil, fmt.Errorf("permute: invalid axis order %v", axes)
		}
		seen[a] = true
		outShape[i] = t.shape[a]
	}

	out := New(outShape...)
	srcStrides := strides(t.shape)
	dstStrides := strides(outShape)
	idx := make([]int, len(axes))
	for off := range t.data {
		// Decompose the source offset, then recompose in permuted order.
		rem := off
		for i, s := range srcStrides {
			idx[i] = rem / s
			rem %= s
		}
		dst := 0
		for i, a := range axes {
			dst += idx[a] * dstStrides[i]
		}
		out.data[dst] = t.data[off]
	}
	return out, nil
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// Stack joins tensors of identical shape along a new leading axis.
func Stack(ts []*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("stack: no tensors")
	}
	base := ts[0].shape
	for _, t := range ts[1:] {
		if err := t.AssertShape("stack", base...); err != nil {
			return nil, err
		}
	}
	outShape := append([]int{len(ts)}, base...)
	out := New(outShape...)
	step := numElements(base)
	for i, t := range ts {
		copy(out.data[i*step:(i+1)*step], t.data)
	}
	return out, nil
}

// Index returns a view of one entry along the leading axis.
func (t *Tensor) Index(i int) (*Tensor, error) {
	if len(t.shape) == 0 {
		return nil, &ShapeError{Op: "index", Want: []int{-1}, Got: t.shape}
	}
	if i < 0 || i >= t.shape[0] {
		return nil, fmt.Errorf("index %d out of bounds for axis of size %d", i, t.shape[0])
	}
	sub := t.shape[1:]
	step := numElements(sub)
	s := make([]int, len(sub))
	copy(s, sub)
	return &Tensor{data: t.data[i*step : (i+1)*step], shape: s}, nil
}
