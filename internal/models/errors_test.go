package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKind_Classification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantKind      string
		wantTransient bool
	}{
		{
			name:     "schema mismatch",
			err:      &SchemaMismatchError{Expected: "14 features", Got: "13 features"},
			wantKind: KindSchemaMismatch,
		},
		{
			name:     "model not ready",
			err:      &ModelNotReadyError{Model: "suitability"},
			wantKind: KindModelNotReady,
		},
		{
			name:     "invalid geometry",
			err:      &InvalidGeometryError{Reason: "fewer than 3 points"},
			wantKind: KindInvalidGeometry,
		},
		{
			name:     "degenerate input",
			err:      &DegenerateInputError{Statistic: "ndvi health summary", Reason: "no valid pixels"},
			wantKind: KindDegenerateInput,
		},
		{
			name:          "upstream data is transient",
			err:           &UpstreamDataError{Provider: "climate", Err: errors.New("timeout")},
			wantKind:      KindUpstreamData,
			wantTransient: true,
		},
		{
			name:     "unclassified error",
			err:      errors.New("disk full"),
			wantKind: "internal",
		},
		{
			name:          "wrapped upstream error keeps its kind",
			err:           fmt.Errorf("analyzing area: %w", &UpstreamDataError{Provider: "elevation", Err: errors.New("503")}),
			wantKind:      KindUpstreamData,
			wantTransient: true,
		},
		{
			name:     "wrapped geometry error keeps its kind",
			err:      fmt.Errorf("normalizing: %w", &InvalidGeometryError{Reason: "area too large"}),
			wantKind: KindInvalidGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if kind := ErrorKind(tt.err); kind != tt.wantKind {
				t.Errorf("ErrorKind() = %v, want %v", kind, tt.wantKind)
			}
			if transient := IsTransient(tt.err); transient != tt.wantTransient {
				t.Errorf("IsTransient() = %v, want %v", transient, tt.wantTransient)
			}
		})
	}
}

func TestUpstreamDataError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &UpstreamDataError{Provider: "hydrography", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should reach the wrapped cause")
	}
}

func TestBandSet_Validate(t *testing.T) {
	grid := func(h, w int) Grid { return NewGrid(h, w) }

	complete := BandSet{
		BandBlue:    grid(4, 4),
		BandGreen:   grid(4, 4),
		BandRed:     grid(4, 4),
		BandRedEdge: grid(4, 4),
		BandNIR:     grid(4, 4),
		BandSWIR1:   grid(4, 4),
	}
	if err := complete.Validate(); err != nil {
		t.Errorf("Validate() on complete set error = %v", err)
	}

	missing := BandSet{BandRed: grid(4, 4)}
	if err := missing.Validate(); err == nil {
		t.Error("Validate() on incomplete set should fail")
	}

	mismatched := BandSet{
		BandBlue:    grid(4, 4),
		BandGreen:   grid(4, 4),
		BandRed:     grid(4, 4),
		BandRedEdge: grid(4, 4),
		BandNIR:     grid(2, 4),
		BandSWIR1:   grid(4, 4),
	}
	if err := mismatched.Validate(); err == nil {
		t.Error("Validate() on mismatched shapes should fail")
	}
}
