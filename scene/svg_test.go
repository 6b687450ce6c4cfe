package scene

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kuanb/scout-choropleth/geom"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteSVG(t *testing.T) {
	s, err := Build(strip(10, 20, 0, 40, 50), geom.MetricRevenue, 500, 100, testStyle())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, s))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `width="500" height="156"`)
	assert.Equal(t, 5, strings.Count(out, "<path"))
	assert.Contains(t, out, "<title>Cagayan Valley</title>")
	assert.Contains(t, out, "fill:#e5e7eb")
	for _, c := range s.Legend.Colors {
		assert.Contains(t, out, "fill:"+c)
	}
	assert.Contains(t, out, "No data")
	assert.Contains(t, out, "₱10")
	assert.Contains(t, out, "₱50")
	assert.Contains(t, out, ">CV<")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestWriteSVG_Escapes(t *testing.T) {
	fc := strip(10, 20)
	fc[0].RegionName = "Bangsamoro <BARMM> & Co"
	s, err := Build(fc, geom.MetricRevenue, 200, 100, testStyle())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, s))
	assert.Contains(t, buf.String(), "Bangsamoro &lt;BARMM&gt; &amp; Co")
	assert.NotContains(t, buf.String(), "<BARMM>")
}

func TestWriteSVG_WriteError(t *testing.T) {
	s, err := Build(strip(10, 20), geom.MetricRevenue, 200, 100, testStyle())
	require.NoError(t, err)
	err = WriteSVG(failingWriter{}, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriteEmptySVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEmptySVG(&buf, 320, 200, "No regions to display"))
	out := buf.String()
	assert.Contains(t, out, "No regions to display")
	assert.Contains(t, out, `width="320" height="256"`)
	assert.Equal(t, 0, strings.Count(out, "<path"))

	assert.Error(t, WriteEmptySVG(failingWriter{}, 320, 200, "x"))
}
