// Package classify buckets metric values into quantile bins and maps each bin to a palette colour.
package classify

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// DefaultBins is the bin count used when none is configured
const DefaultBins = 5

// Config describes one palette: Bins colours ordered from lowest to highest bin,
// plus the colour reserved for regions without data.
type Config struct {
	Bins        int
	Palette     []string
	NoDataColor string
}

// Classifier produces classifications for a fixed, validated config
type Classifier struct {
	cfg Config
}

// NewClassifier validates cfg once so classification itself never fails
func NewClassifier(cfg Config) (*Classifier, error) {
	if cfg.Bins < 1 {
		return nil, eris.Errorf("classify: bins must be positive, got %d", cfg.Bins)
	}
	if len(cfg.Palette) != cfg.Bins {
		return nil, eris.Errorf("classify: palette has %d colors for %d bins", len(cfg.Palette), cfg.Bins)
	}
	for i, c := range cfg.Palette {
		if c == "" {
			return nil, eris.Errorf("classify: palette color %d is empty", i)
		}
	}
	if cfg.NoDataColor == "" {
		return nil, eris.New("classify: no-data color is empty")
	}
	palette := make([]string, len(cfg.Palette))
	copy(palette, cfg.Palette)
	cfg.Palette = palette
	return &Classifier{cfg: cfg}, nil
}

// Classification is the derived bin layout for one metric over one snapshot.
// It is never updated in place; a new snapshot or metric means a new Classification.
type Classification struct {
	Breakpoints []float64 `json:"breakpoints"`
	Colors      []string  `json:"legend_colors"`
	NoDataColor string    `json:"no_data_color"`
	Count       int       `json:"count"` // values that took part in the quantiles
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
}

// HasData reports whether a value takes part in classification.
// Zero and non-finite values are treated as missing.
func HasData(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Classify computes Bins-1 breakpoints at the k/Bins quantiles of the values that have data.
// Quantiles interpolate linearly between order statistics. Too few distinct values
// yield repeated breakpoints rather than an error.
func (c *Classifier) Classify(values []float64) *Classification {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if HasData(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)

	colors := make([]string, len(c.cfg.Palette))
	copy(colors, c.cfg.Palette)
	out := &Classification{
		Breakpoints: []float64{},
		Colors:      colors,
		NoDataColor: c.cfg.NoDataColor,
		Count:       len(sorted),
	}
	if len(sorted) == 0 {
		return out
	}

	out.Min = sorted[0]
	out.Max = sorted[len(sorted)-1]
	out.Breakpoints = make([]float64, c.cfg.Bins-1)
	for k := 1; k < c.cfg.Bins; k++ {
		out.Breakpoints[k-1] = Quantile(sorted, float64(k)/float64(c.cfg.Bins))
	}
	return out
}

// Quantile returns the p-quantile of an ascending slice using linear interpolation
// between the order statistics at floor((n-1)p) and ceil((n-1)p).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// BinOf returns the bin index of v, or -1 when v has no data.
// Bin i covers [Breakpoints[i-1], Breakpoints[i]); the first bin is open below
// and the last bin is closed above.
func (cl *Classification) BinOf(v float64) int {
	if !HasData(v) {
		return -1
	}
	// number of breakpoints <= v
	return sort.Search(len(cl.Breakpoints), func(i int) bool { return cl.Breakpoints[i] > v })
}

// ColorOf maps a value to its bin colour or the no-data colour
func (cl *Classification) ColorOf(v float64) string {
	bin := cl.BinOf(v)
	if bin < 0 || bin >= len(cl.Colors) {
		return cl.NoDataColor
	}
	return cl.Colors[bin]
}

// LegendEntry is one swatch of the legend
type LegendEntry struct {
	Color string  `json:"color"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Legend returns one entry per bin in order. The outer bounds are the smallest
// and largest classified values.
func (cl *Classification) Legend() []LegendEntry {
	entries := make([]LegendEntry, len(cl.Colors))
	for i, color := range cl.Colors {
		e := LegendEntry{Color: color, Lower: cl.Min, Upper: cl.Max}
		if i > 0 && i-1 < len(cl.Breakpoints) {
			e.Lower = cl.Breakpoints[i-1]
		}
		if i < len(cl.Breakpoints) {
			e.Upper = cl.Breakpoints[i]
		}
		entries[i] = e
	}
	return entries
}
