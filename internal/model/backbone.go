package model

import (
	"fmt"
	"os"
	"path/filepath"

	"deepscan/internal/config"
	"deepscan/internal/tensor"

	"gocv.io/x/gocv"
)

// FeatureExtractor scores a batch of images: one fakeness score per image.
// The batch is rank-4 NCHW float32. Implementations own their resources and
// must be closed after use.
type FeatureExtractor interface {
	Forward(batch *tensor.Tensor) ([]float32, error)
	Close() error
}

// Extractor is a FeatureExtractor backed by a pretrained appearance network
// loaded as an OpenCV DNN graph. The network internals are opaque; only the
// "image batch in, score per image out" contract matters here.
type Extractor struct {
	net        gocv.Net
	numClasses int
}

// OpenExtractor loads the backbone variant selected by the configured scale
// for one branch. Checkpoint files are named {branch}-{scale}.onnx inside the
// model directory.
func OpenExtractor(modelDir, branch string, backbone config.Backbone) (*Extractor, error) {
	path := filepath.Join(modelDir, fmt.Sprintf("%s-%s.onnx", branch, backbone.Scale))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("backbone file not found: %s", path)
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load backbone network from %s", path)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return nil, fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return nil, fmt.Errorf("failed to set network target: %w", err)
	}

	numClasses := backbone.NumClasses
	if numClasses < 1 {
		numClasses = 1
	}
	return &Extractor{net: net, numClasses: numClasses}, nil
}

// Forward runs the batch through the network and reads the first class score
// of every row.
func (e *Extractor) Forward(batch *tensor.Tensor) ([]float32, error) {
	if err := batch.AssertRank("backbone input", 4); err != nil {
		return nil, err
	}

	blob, err := blobFromTensor(batch)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	n := batch.Dim(0)
	if output.Total() != n*e.numClasses {
		return nil, &tensor.ShapeError{Op: "backbone output", Want: []int{n, e.numClasses}, Got: output.Size()}
	}

	reshaped := output.Reshape(1, n)
	defer reshaped.Close()

	scores := make([]float32, n)
	for i := 0; i < n; i++ {
		scores[i] = reshaped.GetFloatAt(i, 0)
	}
	return scores, nil
}

// Close releases the network.
func (e *Extractor) Close() error {
	return e.net.Close()
}

// blobFromTensor copies a rank-4 tensor into an NCHW DNN input blob.
func blobFromTensor(t *tensor.Tensor) (gocv.Mat, error) {
	blob := gocv.NewMatWithSizes(t.Shape(), gocv.MatTypeCV32F)
	dst, err := blob.DataPtrFloat32()
	if err != nil {
		blob.Close()
		return gocv.NewMat(), fmt.Errorf("failed to access blob data: %w", err)
	}
	copy(dst, t.Data())
	return blob, nil
}
