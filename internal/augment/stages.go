package augment

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"

	"gocv.io/x/gocv"
)

var black = color.RGBA{R: 0, G: 0, B: 0, A: 0}

// each applies the same unary transform to both frames of a pair.
func (p *Pair) each(fn func(src gocv.Mat) (gocv.Mat, error)) error {
	a, err := fn(p.A)
	if err != nil {
		return err
	}
	b, err := fn(p.B)
	if err != nil {
		a.Close()
		return err
	}
	p.replace(a, b)
	return nil
}

// longestMaxSize scales a frame so its longest side equals max, preserving
// aspect ratio.
type longestMaxSize struct {
	max int
}

func (s *longestMaxSize) Name() string { return "longest-max-size" }

func (s *longestMaxSize) Apply(_ *rand.Rand, p *Pair) error {
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		f := fitLongest(src.Cols(), src.Rows(), s.max)
		dst := gocv.NewMat()
		gocv.Resize(src, &dst, image.Pt(f.ResizeW, f.ResizeH), 0, 0, gocv.InterpolationLinear)
		return dst, nil
	})
}

// padToSquare pads a frame to size×size with a black constant border.
type padToSquare struct {
	size int
}

func (s *padToSquare) Name() string { return "pad-to-square" }

func (s *padToSquare) Apply(_ *rand.Rand, p *Pair) error {
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		top, bottom := 0, 0
		left, right := 0, 0
		if pad := s.size - src.Rows(); pad > 0 {
			top = pad / 2
			bottom = pad - top
		}
		if pad := s.size - src.Cols(); pad > 0 {
			left = pad / 2
			right = pad - left
		}
		dst := gocv.NewMat()
		gocv.CopyMakeBorder(src, &dst, top, bottom, left, right, gocv.BorderConstant, black)
		return dst, nil
	})
}

// resizeExact forces a frame to size×size.
type resizeExact struct {
	size int
}

func (s *resizeExact) Name() string { return "resize" }

func (s *resizeExact) Apply(_ *rand.Rand, p *Pair) error {
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		dst := gocv.NewMat()
		gocv.Resize(src, &dst, image.Pt(s.size, s.size), 0, 0, gocv.InterpolationLinear)
		return dst, nil
	})
}

// jpegCompression simulates lossy re-compression by a JPEG encode/decode
// round trip at a shared random quality.
type jpegCompression struct {
	qualityLow  int
	qualityHigh int
}

func (s *jpegCompression) Name() string { return "jpeg-compression" }

func (s *jpegCompression) Apply(rng *rand.Rand, p *Pair) error {
	quality := s.qualityLow + rng.Intn(s.qualityHigh-s.qualityLow+1)
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, src, []int{gocv.IMWriteJpegQuality, quality})
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("failed to encode frame: %w", err)
		}
		defer buf.Close()
		dst, err := gocv.IMDecode(buf.GetBytes(), gocv.IMReadColor)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("failed to decode frame: %w", err)
		}
		return dst, nil
	})
}

// gaussNoise adds one gaussian noise map, drawn once, to both frames.
type gaussNoise struct {
	sigmaLow  float64
	sigmaHigh float64
}

func (s *gaussNoise) Name() string { return "gauss-noise" }

func (s *gaussNoise) Apply(rng *rand.Rand, p *Pair) error {
	sigma := s.sigmaLow + rng.Float64()*(s.sigmaHigh-s.sigmaLow)

	bytesA, err := p.A.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("failed to access frame data: %w", err)
	}
	bytesB, err := p.B.DataPtrUint8()
	if err != nil {
		return fmt.Errorf("failed to access frame data: %w", err)
	}
	if len(bytesA) != len(bytesB) {
		return fmt.Errorf("frame pair sizes diverged: %d vs %d bytes", len(bytesA), len(bytesB))
	}

	for i := range bytesA {
		n := rng.NormFloat64() * sigma
		bytesA[i] = clampByte(float64(bytesA[i]) + n)
		bytesB[i] = clampByte(float64(bytesB[i]) + n)
	}
	return nil
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// gaussianBlur applies a small gaussian kernel.
type gaussianBlur struct {
	kernel int
}

func (s *gaussianBlur) Name() string { return "gaussian-blur" }

func (s *gaussianBlur) Apply(_ *rand.Rand, p *Pair) error {
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		dst := gocv.NewMat()
		gocv.GaussianBlur(src, &dst, image.Pt(s.kernel, s.kernel), 0, 0, gocv.BorderDefault)
		return dst, nil
	})
}

// brightnessContrast jitters contrast (gain) and brightness (bias) with one
// shared draw inside ±limit.
type brightnessContrast struct {
	limit float64
}

func (s *brightnessContrast) Name() string { return "brightness-contrast" }

func (s *brightnessContrast) Apply(rng *rand.Rand, p *Pair) error {
	alpha := 1.0 + (rng.Float64()*2-1)*s.limit
	beta := (rng.Float64()*2 - 1) * s.limit * 255.0
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		dst := gocv.NewMat()
		src.ConvertToWithParams(&dst, gocv.MatTypeCV8UC3, float32(alpha), float32(beta))
		return dst, nil
	})
}

// toGray collapses a frame to grayscale and expands it back to three
// identical channels so downstream shapes are unchanged.
type toGray struct{}

func (s *toGray) Name() string { return "to-gray" }

func (s *toGray) Apply(_ *rand.Rand, p *Pair) error {
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)
		dst := gocv.NewMat()
		gocv.CvtColor(gray, &dst, gocv.ColorGrayToBGR)
		return dst, nil
	})
}

// horizontalFlip mirrors both frames around the vertical axis.
type horizontalFlip struct{}

func (s *horizontalFlip) Name() string { return "horizontal-flip" }

func (s *horizontalFlip) Apply(_ *rand.Rand, p *Pair) error {
	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		dst := gocv.NewMat()
		gocv.Flip(src, &dst, 1)
		return dst, nil
	})
}

// shiftScaleRotate applies one shared affine transform: translation within
// ±shiftLimit of the frame size, scaling within ±scaleLimit, rotation within
// ±rotateLimit degrees. The border is filled with black.
type shiftScaleRotate struct {
	shiftLimit  float64
	scaleLimit  float64
	rotateLimit float64
}

func (s *shiftScaleRotate) Name() string { return "shift-scale-rotate" }

func (s *shiftScaleRotate) Apply(rng *rand.Rand, p *Pair) error {
	shiftX := (rng.Float64()*2 - 1) * s.shiftLimit
	shiftY := (rng.Float64()*2 - 1) * s.shiftLimit
	scale := 1.0 + (rng.Float64()*2-1)*s.scaleLimit
	angle := (rng.Float64()*2 - 1) * s.rotateLimit

	return p.each(func(src gocv.Mat) (gocv.Mat, error) {
		w, h := src.Cols(), src.Rows()
		m := gocv.GetRotationMatrix2D(image.Pt(w/2, h/2), angle, scale)
		defer m.Close()
		m.SetDoubleAt(0, 2, m.GetDoubleAt(0, 2)+shiftX*float64(w))
		m.SetDoubleAt(1, 2, m.GetDoubleAt(1, 2)+shiftY*float64(h))

		dst := gocv.NewMat()
		gocv.WarpAffineWithParams(src, &dst, m, image.Pt(w, h), gocv.InterpolationLinear, gocv.BorderConstant, black)
		return dst, nil
	})
}
