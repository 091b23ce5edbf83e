package model

import (
	"errors"
	"testing"

	"deepscan/internal/tensor"
)

func TestConv3D_LearnedFrameDifference(t *testing.T) {
	// A [1, -1] kernel over the depth axis is exactly frame0 - frame1.
	weights, err := tensor.FromSlice([]float32{1, -1}, 1, 1, 2, 1, 1)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	conv, err := NewConv3D(weights, []float32{0}, 0, 0)
	if err != nil {
		t.Fatalf("NewConv3D failed: %v", err)
	}

	x := tensor.New(1, 1, 2, 2, 2)
	// Frame 0.
	x.Set(5, 0, 0, 0, 0, 0)
	x.Set(3, 0, 0, 0, 0, 1)
	x.Set(2, 0, 0, 0, 1, 0)
	x.Set(8, 0, 0, 0, 1, 1)
	// Frame 1.
	x.Set(1, 0, 0, 1, 0, 0)
	x.Set(3, 0, 0, 1, 0, 1)
	x.Set(7, 0, 0, 1, 1, 0)
	x.Set(2, 0, 0, 1, 1, 1)

	out, err := conv.Forward(x)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	want := []int{1, 1, 1, 2, 2}
	got := out.Shape()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected shape %v, got %v", want, got)
		}
	}

	diffs := map[[2]int]float32{
		{0, 0}: 4, {0, 1}: 0, {1, 0}: -5, {1, 1}: 6,
	}
	for pos, expected := range diffs {
		if v := out.At(0, 0, 0, pos[0], pos[1]); v != expected {
			t.Errorf("Pixel (%d,%d): expected %v, got %v", pos[0], pos[1], expected, v)
		}
	}
}

func TestConv3D_SpatialPaddingKeepsSize(t *testing.T) {
	// Kernel (features=2, channels=3, depth=2, 3, 3) with padding (1, 1)
	// collapses depth to 1 and leaves height/width unchanged.
	weights := tensor.New(2, 3, 2, 3, 3)
	conv, err := NewConv3D(weights, []float32{0, 0}, 1, 1)
	if err != nil {
		t.Fatalf("NewConv3D failed: %v", err)
	}

	x := tensor.New(4, 3, 2, 8, 8)
	out, err := conv.Forward(x)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	want := []int{4, 2, 1, 8, 8}
	got := out.Shape()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected shape %v, got %v", want, got)
		}
	}
}

func TestConv3D_ChannelMismatch(t *testing.T) {
	weights := tensor.New(2, 3, 2, 3, 3)
	conv, err := NewConv3D(weights, []float32{0, 0}, 1, 1)
	if err != nil {
		t.Fatalf("NewConv3D failed: %v", err)
	}

	x := tensor.New(1, 1, 2, 8, 8)
	_, err = conv.Forward(x)
	var shapeErr *tensor.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("Expected ShapeError, got %v", err)
	}
}

func TestNewConv3D_BiasMismatch(t *testing.T) {
	weights := tensor.New(2, 3, 2, 3, 3)
	_, err := NewConv3D(weights, []float32{0}, 1, 1)
	var shapeErr *tensor.ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("Expected ShapeError, got %v", err)
	}
}
