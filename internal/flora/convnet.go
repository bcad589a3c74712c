// Package flora implements the patch-level flora classifier: a compact
// convolutional network forward pass over band+index stacks, sliding-window
// inference over whole images with weighted seam stitching, and a
// spectral-threshold fallback detector for when no trained model exists.
package flora

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	convKernelSize = 3
	conv1Channels  = 8
	conv2Channels  = 16
)

// ConvLayer holds the weights of one 3x3 same-padding convolution.
// Weights are indexed [out][in][ky][kx].
type ConvLayer struct {
	Weights [][][][]float64 `json:"weights"`
	Bias    []float64       `json:"bias"`
}

// ConvNet is the classifier network: two conv+ReLU+maxpool stages, a
// global average pool, and a dense softmax head. Read-only after
// construction; safe for concurrent Forward calls.
type ConvNet struct {
	Conv1      ConvLayer   `json:"conv1"`
	Conv2      ConvLayer   `json:"conv2"`
	DenseW     [][]float64 `json:"dense_weights"` // [class][conv2Channels]
	DenseB     []float64   `json:"dense_bias"`
	InChannels int         `json:"in_channels"`
	NumClasses int         `json:"num_classes"`
}

// NewConvNet builds a randomly initialized network. Identical seeds
// yield identical weights.
func NewConvNet(inChannels, numClasses int, seed int64) *ConvNet {
	rng := rand.New(rand.NewSource(seed))
	return &ConvNet{
		Conv1:      newConvLayer(conv1Channels, inChannels, rng),
		Conv2:      newConvLayer(conv2Channels, conv1Channels, rng),
		DenseW:     newDense(numClasses, conv2Channels, rng),
		DenseB:     make([]float64, numClasses),
		InChannels: inChannels,
		NumClasses: numClasses,
	}
}

func newConvLayer(out, in int, rng *rand.Rand) ConvLayer {
	weights := make([][][][]float64, out)
	for o := range weights {
		weights[o] = make([][][]float64, in)
		for i := range weights[o] {
			weights[o][i] = make([][]float64, convKernelSize)
			for ky := range weights[o][i] {
				weights[o][i][ky] = make([]float64, convKernelSize)
				for kx := range weights[o][i][ky] {
					weights[o][i][ky][kx] = rng.NormFloat64() * 0.1
				}
			}
		}
	}
	return ConvLayer{Weights: weights, Bias: make([]float64, out)}
}

func newDense(out, in int, rng *rand.Rand) [][]float64 {
	w := make([][]float64, out)
	for o := range w {
		w[o] = make([]float64, in)
		for i := range w[o] {
			w[o][i] = rng.NormFloat64() * 0.1
		}
	}
	return w
}

// Validate checks internal weight dimensions after deserialization.
func (n *ConvNet) Validate() error {
	if n.InChannels <= 0 || n.NumClasses < 2 {
		return fmt.Errorf("invalid network dimensions: %d channels, %d classes", n.InChannels, n.NumClasses)
	}
	if len(n.Conv1.Weights) != conv1Channels || len(n.Conv1.Bias) != conv1Channels {
		return fmt.Errorf("conv1 has %d filters, want %d", len(n.Conv1.Weights), conv1Channels)
	}
	for _, filter := range n.Conv1.Weights {
		if len(filter) != n.InChannels {
			return fmt.Errorf("conv1 filter has %d input channels, want %d", len(filter), n.InChannels)
		}
	}
	if len(n.Conv2.Weights) != conv2Channels || len(n.Conv2.Bias) != conv2Channels {
		return fmt.Errorf("conv2 has %d filters, want %d", len(n.Conv2.Weights), conv2Channels)
	}
	if len(n.DenseW) != n.NumClasses || len(n.DenseB) != n.NumClasses {
		return fmt.Errorf("dense head has %d outputs, want %d", len(n.DenseW), n.NumClasses)
	}
	for _, row := range n.DenseW {
		if len(row) != conv2Channels {
			return fmt.Errorf("dense row has %d inputs, want %d", len(row), conv2Channels)
		}
	}
	return nil
}

// Forward runs the network on a [channels][h][w] patch and returns a
// softmax probability per class.
func (n *ConvNet) Forward(patch [][][]float64) ([]float64, error) {
	if len(patch) != n.InChannels {
		return nil, fmt.Errorf("patch has %d channels, network expects %d", len(patch), n.InChannels)
	}

	a := convReLU(patch, n.Conv1)
	a = maxPool2(a)
	a = convReLU(a, n.Conv2)
	a = maxPool2(a)

	pooled := globalAvgPool(a)

	logits := make([]float64, n.NumClasses)
	for c := 0; c < n.NumClasses; c++ {
		sum := n.DenseB[c]
		for i, v := range pooled {
			sum += n.DenseW[c][i] * v
		}
		logits[c] = sum
	}
	return softmax(logits), nil
}

// convReLU applies a same-padding 3x3 convolution followed by ReLU.
func convReLU(in [][][]float64, layer ConvLayer) [][][]float64 {
	h, w := len(in[0]), len(in[0][0])
	out := make([][][]float64, len(layer.Weights))
	pad := convKernelSize / 2

	for o, filter := range layer.Weights {
		plane := make([][]float64, h)
		for y := 0; y < h; y++ {
			row := make([]float64, w)
			for x := 0; x < w; x++ {
				sum := layer.Bias[o]
				for c := range in {
					for ky := 0; ky < convKernelSize; ky++ {
						sy := y + ky - pad
						if sy < 0 || sy >= h {
							continue
						}
						for kx := 0; kx < convKernelSize; kx++ {
							sx := x + kx - pad
							if sx < 0 || sx >= w {
								continue
							}
							sum += filter[c][ky][kx] * in[c][sy][sx]
						}
					}
				}
				if sum > 0 {
					row[x] = sum
				}
			}
			plane[y] = row
		}
		out[o] = plane
	}
	return out
}

// maxPool2 halves spatial resolution with a 2x2 max pool, discarding
// any odd trailing row/column.
func maxPool2(in [][][]float64) [][][]float64 {
	h, w := len(in[0])/2, len(in[0][0])/2
	out := make([][][]float64, len(in))
	for c, plane := range in {
		pooled := make([][]float64, h)
		for y := 0; y < h; y++ {
			row := make([]float64, w)
			for x := 0; x < w; x++ {
				m := plane[2*y][2*x]
				if v := plane[2*y][2*x+1]; v > m {
					m = v
				}
				if v := plane[2*y+1][2*x]; v > m {
					m = v
				}
				if v := plane[2*y+1][2*x+1]; v > m {
					m = v
				}
				row[x] = m
			}
			pooled[y] = row
		}
		out[c] = pooled
	}
	return out
}

func globalAvgPool(in [][][]float64) []float64 {
	out := make([]float64, len(in))
	for c, plane := range in {
		var sum float64
		var count int
		for _, row := range plane {
			for _, v := range row {
				sum += v
			}
			count += len(row)
		}
		if count > 0 {
			out[c] = sum / float64(count)
		}
	}
	return out
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	var sum float64
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
