package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"kuanb/scout-choropleth/geom"
)

func TestMoney(t *testing.T) {
	f := New("")
	tests := []struct {
		in   float64
		want string
	}{
		{850, "₱850"},
		{999, "₱999"},
		{12_340, "₱12.3K"},
		{1_200_000, "₱1.2M"},
		{999.4, "₱999"},
		{999.5, "₱1.0K"},
		{999_949, "₱999.9K"},
		{999_950, "₱1.0M"},
		{999_999_950, "₱1.0B"},
		{4_000_000_000_000, "₱4000.0B"},
		{4_000_000_000, "₱4.0B"},
		{-2_500_000, "-₱2.5M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Money(tt.in), "%v", tt.in)
	}

	assert.Equal(t, "$1.5K", New("$").Money(1500))
}

func TestCount(t *testing.T) {
	assert.Equal(t, "0", Count(0))
	assert.Equal(t, "42", Count(42))
	assert.Equal(t, "1,234", Count(1234.4))
	assert.Equal(t, "1,000,000", Count(999_999.6))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "+12.5%", Percent(12.5))
	assert.Equal(t, "-3.0%", Percent(-3))
	assert.Equal(t, "0.0%", Percent(0))
	assert.Equal(t, "0.0%", Percent(0.04))
	assert.Equal(t, "0.0%", Percent(-0.04))
	assert.Equal(t, "+0.1%", Percent(0.05))
}

func TestValue(t *testing.T) {
	f := New(DefaultCurrency)
	assert.Equal(t, "₱1.2M", f.Value(geom.MetricRevenue, 1_200_000, true))
	assert.Equal(t, "+12.5%", f.Value(geom.MetricGrowth, 12.5, true))
	assert.Equal(t, "3,210", f.Value(geom.MetricTransactions, 3210, true))
	assert.Equal(t, "17", f.Value(geom.MetricStores, 17, true))
	assert.Equal(t, NoData, f.Value(geom.MetricStores, 17, false))
	assert.Equal(t, NoData, f.Value(geom.MetricRevenue, math.NaN(), true))
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "NCR", Abbreviate("National Capital Region"))
	assert.Equal(t, "CAR", Abbreviate("Cordillera Administrative Region"))
	assert.Equal(t, "DAV", Abbreviate("Davao"))
	assert.Equal(t, "RIA", Abbreviate("Region IV-A"))
	assert.Equal(t, "BAR", Abbreviate("BARMM"))
	assert.Equal(t, "", Abbreviate("   "))
	assert.Equal(t, "ÑN", Abbreviate("ñame norte"))
}
