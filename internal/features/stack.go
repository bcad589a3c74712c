package features

import (
	"fmt"

	"beemap-platform/internal/models"
)

// Channel orders for the classifier stack. The 10-channel layout omits
// the SWIR/NIR ratio; which one applies is a model-version contract.
var (
	StackChannels10 = []string{
		models.BandBlue, models.BandGreen, models.BandRed,
		models.BandRedEdge, models.BandNIR, models.BandSWIR1,
		models.IndexNDVI, models.IndexEVI, models.IndexMSAVI, models.IndexCI,
	}
	StackChannels11 = append(append([]string{}, StackChannels10...), models.IndexSWIRNIRRatio)
)

// Stack is a channels x height x width feature volume.
type Stack struct {
	Channels []string
	Data     []models.Grid // one grid per channel, all the same shape
}

// Shape returns (channels, height, width).
func (s *Stack) Shape() (int, int, int) {
	if len(s.Data) == 0 {
		return 0, 0, 0
	}
	h, w := s.Data[0].Shape()
	return len(s.Data), h, w
}

// AssembleStack builds a per-pixel feature stack in the requested
// channel order. A channel that neither the bands nor the indices can
// supply is a schema mismatch: the stack must never be silently
// truncated or padded.
func AssembleStack(bands models.BandSet, indices models.IndexSet, channels []string) (*Stack, error) {
	if err := bands.Validate(); err != nil {
		return nil, fmt.Errorf("cannot assemble stack: %w", err)
	}
	h, w := bands.Shape()

	data := make([]models.Grid, 0, len(channels))
	for _, name := range channels {
		grid, ok := bands[name]
		if !ok {
			grid, ok = indices[name]
		}
		if !ok {
			return nil, &models.SchemaMismatchError{
				Expected: fmt.Sprintf("%d channels including %s", len(channels), name),
				Got:      fmt.Sprintf("no band or index named %s", name),
			}
		}
		gh, gw := grid.Shape()
		if gh != h || gw != w {
			return nil, &models.SchemaMismatchError{
				Expected: fmt.Sprintf("channel %s with shape %dx%d", name, h, w),
				Got:      fmt.Sprintf("shape %dx%d", gh, gw),
			}
		}
		data = append(data, grid)
	}

	return &Stack{Channels: channels, Data: data}, nil
}
