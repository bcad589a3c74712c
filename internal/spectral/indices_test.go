package spectral

import (
	"math"
	"testing"

	"beemap-platform/internal/models"
)

const tolerance = 1e-9

func gridOf(values [][]float64) models.Grid {
	return models.Grid(values)
}

func TestNDVI(t *testing.T) {
	tests := []struct {
		name string
		nir  [][]float64
		red  [][]float64
		want [][]float64
	}{
		{
			name: "standard vegetation values",
			nir:  [][]float64{{0.8, 0.5}},
			red:  [][]float64{{0.2, 0.5}},
			want: [][]float64{{0.6, 0.0}},
		},
		{
			name: "zero denominator masks to exactly zero",
			nir:  [][]float64{{0.0, 0.3}},
			red:  [][]float64{{0.0, 0.1}},
			want: [][]float64{{0.0, 0.5}},
		},
		{
			name: "negative denominator masks to exactly zero",
			nir:  [][]float64{{-0.4}},
			red:  [][]float64{{0.1}},
			want: [][]float64{{0.0}},
		},
		{
			name: "bare soil gives negative ndvi",
			nir:  [][]float64{{0.1}},
			red:  [][]float64{{0.3}},
			want: [][]float64{{-0.5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NDVI(gridOf(tt.nir), gridOf(tt.red))
			for i := range tt.want {
				for j := range tt.want[i] {
					if math.Abs(got[i][j]-tt.want[i][j]) > tolerance {
						t.Errorf("NDVI[%d][%d] = %v, want %v", i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}

func TestNDVI_BoundedForPositiveDenominator(t *testing.T) {
	nir := gridOf([][]float64{{0.9, 0.01, 0.45, 1.2}})
	red := gridOf([][]float64{{0.05, 0.7, 0.45, 0.3}})

	got := NDVI(nir, red)
	for j := range got[0] {
		direct := (nir[0][j] - red[0][j]) / (nir[0][j] + red[0][j])
		if math.Abs(got[0][j]-direct) > tolerance {
			t.Errorf("NDVI[0][%d] = %v, want direct formula %v", j, got[0][j], direct)
		}
		if got[0][j] < -1 || got[0][j] > 1 {
			t.Errorf("NDVI[0][%d] = %v, out of [-1, 1]", j, got[0][j])
		}
	}
}

func TestEVI(t *testing.T) {
	nir := gridOf([][]float64{{0.8}})
	red := gridOf([][]float64{{0.2}})
	blue := gridOf([][]float64{{0.1}})

	// 2.5 * (0.8-0.2) / (0.8 + 1.2 - 0.75 + 1) = 1.5 / 2.25
	want := 1.5 / 2.25
	got := EVI(nir, red, blue)
	if math.Abs(got[0][0]-want) > tolerance {
		t.Errorf("EVI = %v, want %v", got[0][0], want)
	}
}

func TestEVI_NoMaskingNearZeroDenominator(t *testing.T) {
	// nir + 6*red - 7.5*blue + 1 close to zero: outlier expected, not masked
	nir := gridOf([][]float64{{0.5}})
	red := gridOf([][]float64{{0.1}})
	blue := gridOf([][]float64{{0.28}})

	got := EVI(nir, red, blue)
	if math.Abs(got[0][0]) < 10 {
		t.Errorf("EVI near-zero denominator = %v, expected large-magnitude outlier", got[0][0])
	}
}

func TestMSAVI(t *testing.T) {
	tests := []struct {
		name string
		nir  float64
		red  float64
		want float64
	}{
		{
			// (2*0.8+1 - sqrt(2.6^2 - 8*0.6)) / 2 = (2.6 - sqrt(1.96)) / 2 = 0.6
			name: "standard values",
			nir:  0.8,
			red:  0.2,
			want: 0.6,
		},
		{
			name: "equal bands give zero",
			nir:  0.5,
			red:  0.5,
			want: (2*0.5 + 1 - math.Sqrt((2*0.5+1)*(2*0.5+1))) / 2,
		},
		{
			// radicand (2*2+1)^2 - 8*(2-(-2)) = 25 - 32 < 0: clamps to 0
			name: "negative radicand clamps to zero",
			nir:  2.0,
			red:  -2.0,
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MSAVI(gridOf([][]float64{{tt.nir}}), gridOf([][]float64{{tt.red}}))
			if math.Abs(got[0][0]-tt.want) > tolerance {
				t.Errorf("MSAVI(%v, %v) = %v, want %v", tt.nir, tt.red, got[0][0], tt.want)
			}
			if math.IsNaN(got[0][0]) {
				t.Errorf("MSAVI(%v, %v) produced NaN", tt.nir, tt.red)
			}
		})
	}
}

func TestChlorophyllIndex(t *testing.T) {
	got := ChlorophyllIndex(gridOf([][]float64{{0.9}}), gridOf([][]float64{{0.3}}))
	want := 0.9/0.3 - 1
	if math.Abs(got[0][0]-want) > tolerance {
		t.Errorf("ChlorophyllIndex = %v, want %v", got[0][0], want)
	}
}

func TestSWIRNIRRatio(t *testing.T) {
	got := SWIRNIRRatio(gridOf([][]float64{{0.3}}), gridOf([][]float64{{0.6}}))
	if math.Abs(got[0][0]-0.5) > tolerance {
		t.Errorf("SWIRNIRRatio = %v, want 0.5", got[0][0])
	}
}

func TestComputeAll(t *testing.T) {
	bands := models.BandSet{
		models.BandBlue:    gridOf([][]float64{{0.1, 0.2}, {0.1, 0.2}}),
		models.BandGreen:   gridOf([][]float64{{0.2, 0.3}, {0.2, 0.3}}),
		models.BandRed:     gridOf([][]float64{{0.2, 0.25}, {0.2, 0.25}}),
		models.BandRedEdge: gridOf([][]float64{{0.4, 0.45}, {0.4, 0.45}}),
		models.BandNIR:     gridOf([][]float64{{0.8, 0.7}, {0.8, 0.7}}),
		models.BandSWIR1:   gridOf([][]float64{{0.3, 0.35}, {0.3, 0.35}}),
	}

	indices, err := ComputeAll(bands)
	if err != nil {
		t.Fatalf("ComputeAll() error = %v", err)
	}

	expected := []string{
		models.IndexNDVI,
		models.IndexEVI,
		models.IndexMSAVI,
		models.IndexCI,
		models.IndexSWIRNIRRatio,
	}
	for _, name := range expected {
		grid, ok := indices[name]
		if !ok {
			t.Errorf("ComputeAll() missing index %s", name)
			continue
		}
		h, w := grid.Shape()
		if h != 2 || w != 2 {
			t.Errorf("index %s shape = %dx%d, want 2x2", name, h, w)
		}
	}
}

func TestComputeAll_MismatchedShapes(t *testing.T) {
	bands := models.BandSet{
		models.BandBlue:    models.NewGrid(2, 2),
		models.BandGreen:   models.NewGrid(2, 2),
		models.BandRed:     models.NewGrid(2, 2),
		models.BandRedEdge: models.NewGrid(2, 2),
		models.BandNIR:     models.NewGrid(3, 2),
		models.BandSWIR1:   models.NewGrid(2, 2),
	}

	if _, err := ComputeAll(bands); err == nil {
		t.Error("ComputeAll() with mismatched shapes should fail")
	}
}
