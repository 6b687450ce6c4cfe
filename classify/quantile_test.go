package classify

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blues = []string{"#eff6ff", "#bfdbfe", "#60a5fa", "#2563eb", "#1e3a8a"}

const noData = "#e5e7eb"

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(Config{Bins: 5, Palette: blues, NoDataColor: noData})
	require.NoError(t, err)
	return c
}

func TestNewClassifier_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		msg  string
	}{
		{"zero bins", Config{Bins: 0, NoDataColor: noData}, "bins must be positive"},
		{"palette size", Config{Bins: 5, Palette: blues[:3], NoDataColor: noData}, "3 colors for 5 bins"},
		{"empty color", Config{Bins: 2, Palette: []string{"#fff", ""}, NoDataColor: noData}, "color 1 is empty"},
		{"no data color", Config{Bins: 5, Palette: blues}, "no-data color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassifier(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestClassify_UniformScenario(t *testing.T) {
	cl := newTestClassifier(t).Classify([]float64{10, 20, 30, 40, 50})

	assert.InDeltaSlice(t, []float64{18, 26, 34, 42}, cl.Breakpoints, 1e-9)
	assert.Equal(t, 5, cl.Count)
	for i, v := range []float64{10, 20, 30, 40, 50} {
		assert.Equal(t, i, cl.BinOf(v), "value %v", v)
		assert.Equal(t, blues[i], cl.ColorOf(v))
	}
}

func TestClassify_AllZero(t *testing.T) {
	cl := newTestClassifier(t).Classify([]float64{0, 0, 0, 0, 0})

	assert.Empty(t, cl.Breakpoints)
	assert.Equal(t, 0, cl.Count)
	for i := 0; i < 5; i++ {
		assert.Equal(t, -1, cl.BinOf(0))
		assert.Equal(t, noData, cl.ColorOf(0))
	}
	assert.Len(t, cl.Legend(), 5)
}

func TestClassify_SingleOutlier(t *testing.T) {
	cl := newTestClassifier(t).Classify([]float64{1, 1, 1, 1, 1000})

	require.Len(t, cl.Breakpoints, 4)
	for _, bp := range cl.Breakpoints {
		assert.False(t, math.IsNaN(bp) || math.IsInf(bp, 0))
	}
	assert.Equal(t, 4, cl.BinOf(1000))
	assert.Less(t, cl.BinOf(1), cl.BinOf(1000))
	assert.Equal(t, blues[4], cl.ColorOf(1000))
}

func TestClassify_AllIdentical(t *testing.T) {
	cl := newTestClassifier(t).Classify([]float64{7, 7, 7})
	assert.Equal(t, []float64{7, 7, 7, 7}, cl.Breakpoints)
	assert.Equal(t, 4, cl.BinOf(7))
	assert.Equal(t, cl.ColorOf(7), cl.ColorOf(7))
}

func TestClassify_FewerValuesThanBins(t *testing.T) {
	cl := newTestClassifier(t).Classify([]float64{3, 9})
	require.Len(t, cl.Breakpoints, 4)
	assert.True(t, sort.Float64sAreSorted(cl.Breakpoints))
	assert.Less(t, cl.BinOf(3), cl.BinOf(9))
}

func TestClassify_ZeroIsolation(t *testing.T) {
	c := newTestClassifier(t)
	base := []float64{4, 8, 15, 16, 23, 42, 99, 108}
	withZeros := append([]float64{0, 0, 0}, base...)
	withZeros = append(withZeros, 0, math.NaN(), math.Inf(1))

	a := c.Classify(base)
	b := c.Classify(withZeros)
	assert.Equal(t, a.Breakpoints, b.Breakpoints)
	assert.Equal(t, a.Count, b.Count)
	assert.Equal(t, noData, b.ColorOf(0))
	assert.Equal(t, noData, b.ColorOf(math.NaN()))
	assert.Equal(t, noData, b.ColorOf(math.Inf(-1)))
}

func TestClassify_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	c := newTestClassifier(t)
	for round := 0; round < 100; round++ {
		values := make([]float64, 1+rng.Intn(60))
		for i := range values {
			values[i] = math.Round(rng.NormFloat64()*100) / 4
		}
		sort.Float64s(values)

		cl := c.Classify(values)
		require.True(t, sort.Float64sAreSorted(cl.Breakpoints), "breakpoints %v", cl.Breakpoints)

		prev := -1
		for _, v := range values {
			bin := cl.BinOf(v)
			if bin < 0 {
				continue
			}
			require.GreaterOrEqual(t, bin, prev, "value %v", v)
			prev = bin
		}
	}
}

func TestClassify_PopulationBalance(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i + 1)
	}
	rand.New(rand.NewSource(3)).Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	cl := newTestClassifier(t).Classify(values)
	counts := make([]int, 5)
	for _, v := range values {
		counts[cl.BinOf(v)]++
	}
	for i, n := range counts {
		assert.InDelta(t, 200, n, 1, "bin %d", i)
	}
}

func TestClassify_NegativeValuesAreData(t *testing.T) {
	cl := newTestClassifier(t).Classify([]float64{-10, -5, 5, 10, 20})
	assert.Equal(t, 5, cl.Count)
	assert.Equal(t, -10.0, cl.Min)
	assert.Equal(t, 0, cl.BinOf(-10))
	assert.Equal(t, 4, cl.BinOf(20))
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier(t)
	values := []float64{5, 0, 3, 12, 12, 40, 7}
	a := c.Classify(values)
	b := c.Classify(values)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Classify not deterministic:\n%s", diff)
	}
	// the input is not reordered
	assert.Equal(t, []float64{5, 0, 3, 12, 12, 40, 7}, values)
}

func TestClassify_NoStateBetweenMetrics(t *testing.T) {
	c := newTestClassifier(t)
	revenue := c.Classify([]float64{1e6, 2e6, 3e6, 4e6, 5e6})
	stores := c.Classify([]float64{1, 2, 3, 4, 5})

	assert.InDeltaSlice(t, []float64{1.8, 2.6, 3.4, 4.2}, stores.Breakpoints, 1e-9)
	assert.InDeltaSlice(t, []float64{1.8e6, 2.6e6, 3.4e6, 4.2e6}, revenue.Breakpoints, 1e-3)
}

func TestClassify_PaletteIsCopied(t *testing.T) {
	palette := []string{"#1", "#2"}
	c, err := NewClassifier(Config{Bins: 2, Palette: palette, NoDataColor: "#0"})
	require.NoError(t, err)
	palette[0] = "#changed"

	cl := c.Classify([]float64{1, 2, 3})
	assert.Equal(t, []string{"#1", "#2"}, cl.Colors)
	cl.Colors[1] = "#mutated"
	assert.Equal(t, "#2", c.Classify([]float64{1, 2, 3}).Colors[1])
}

func TestLegend(t *testing.T) {
	cl := newTestClassifier(t).Classify([]float64{10, 20, 30, 40, 50})
	legend := cl.Legend()
	require.Len(t, legend, 5)

	assert.Equal(t, 10.0, legend[0].Lower)
	assert.InDelta(t, 18, legend[0].Upper, 1e-9)
	assert.InDelta(t, 18, legend[1].Lower, 1e-9)
	assert.InDelta(t, 42, legend[4].Lower, 1e-9)
	assert.Equal(t, 50.0, legend[4].Upper)
	for i, e := range legend {
		assert.Equal(t, blues[i], e.Color)
	}
}

func TestQuantile(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, Quantile(s, 0))
	assert.Equal(t, 4.0, Quantile(s, 1))
	assert.InDelta(t, 2.5, Quantile(s, 0.5), 1e-12)
	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	assert.Equal(t, 9.0, Quantile([]float64{9}, 0.3))
}
