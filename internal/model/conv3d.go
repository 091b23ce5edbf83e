package model

import (
	"deepscan/internal/tensor"
)

// Conv3D is a depth-collapsing 3-D convolution. Its kernel spans the full
// frame axis of a group, so the output depth is 1: a learned motion
// difference operator over the pair, cheaper and more robust than raw pixel
// subtraction. Spatial padding keeps height and width unchanged; the depth
// axis is never padded.
type Conv3D struct {
	weights *tensor.Tensor // (outC, inC, kD, kH, kW)
	bias    []float32
	padH    int
	padW    int
}

// NewConv3D wraps checkpoint weights shaped (outC, inC, kD, kH, kW).
func NewConv3D(weights *tensor.Tensor, bias []float32, padH, padW int) (*Conv3D, error) {
	if err := weights.AssertRank("conv3d weights", 5); err != nil {
		return nil, err
	}
	if len(bias) != weights.Dim(0) {
		return nil, &tensor.ShapeError{Op: "conv3d bias", Want: []int{weights.Dim(0)}, Got: []int{len(bias)}}
	}
	return &Conv3D{weights: weights, bias: bias, padH: padH, padW: padW}, nil
}

// Forward convolves a (n, inC, d, h, w) batch into
// (n, outC, d-kD+1, h+2*padH-kH+1, w+2*padW-kW+1).
func (c *Conv3D) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	outC, inC := c.weights.Dim(0), c.weights.Dim(1)
	kD, kH, kW := c.weights.Dim(2), c.weights.Dim(3), c.weights.Dim(4)

	if err := x.AssertShape("conv3d input", -1, inC, -1, -1, -1); err != nil {
		return nil, err
	}
	n, d, h, w := x.Dim(0), x.Dim(2), x.Dim(3), x.Dim(4)

	outD := d - kD + 1
	outH := h + 2*c.padH - kH + 1
	outW := w + 2*c.padW - kW + 1
	if outD < 1 || outH < 1 || outW < 1 {
		return nil, &tensor.ShapeError{Op: "conv3d input", Want: []int{n, inC, kD, kH, kW}, Got: x.Shape()}
	}

	out := tensor.New(n, outC, outD, outH, outW)
	for b := 0; b < n; b++ {
		for oc := 0; oc < outC; oc++ {
			for od := 0; od < outD; od++ {
				for oy := 0; oy < outH; oy++ {
					for ox := 0; ox < outW; ox++ {
						acc := c.bias[oc]
						for ic := 0; ic < inC; ic++ {
							for kd := 0; kd < kD; kd++ {
								for ky := 0; ky < kH; ky++ {
									iy := oy + ky - c.padH
									if iy < 0 || iy >= h {
										continue
									}
									for kx := 0; kx < kW; kx++ {
										ix := ox + kx - c.padW
										if ix < 0 || ix >= w {
											continue
										}
										acc += x.At(b, ic, od+kd, iy, ix) * c.weights.At(oc, ic, kd, ky, kx)
									}
								}
							}
						}
						out.Set(acc, b, oc, od, oy, ox)
					}
				}
			}
		}
	}
	return out, nil
}
