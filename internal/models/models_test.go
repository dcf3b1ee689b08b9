package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiv(t *testing.T) {
	assert.Equal(t, Ratio{Value: 0.25, Defined: true}, Div(1, 4))
	assert.Equal(t, Ratio{Value: 0, Defined: true}, Div(0, 4))
	assert.False(t, Div(1, 0).Defined)
	assert.False(t, Div(math.NaN(), 1).Defined)
	assert.Equal(t, 7.0, Div(1, 0).Or(7))
}

func TestRatioRendering(t *testing.T) {
	assert.Equal(t, "N/A", Undefined.String())
	assert.Equal(t, "N/A", Undefined.Percent())
	assert.Equal(t, "N/A", Undefined.Money())
	assert.Equal(t, "3.5%", Div(35, 1000).Percent())
	assert.Equal(t, "$12.35", Ratio{Value: 12.345678, Defined: true}.Money())
}

func TestRatioJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Ratio `json:"a"`
		B Ratio `json:"b"`
	}{Div(1, 3), Undefined})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":0.3333,"b":null}`, string(b))

	var back struct {
		A Ratio `json:"a"`
		B Ratio `json:"b"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.A.Defined)
	assert.False(t, back.B.Defined)
}

func TestParseChannel(t *testing.T) {
	ch, ok := ParseChannel(" googlesearch ")
	assert.True(t, ok)
	assert.Equal(t, GoogleSearch, ch)
	_, ok = ParseChannel("tiktok")
	assert.False(t, ok)
	assert.True(t, MetaWhatsApp.Paid())
	assert.False(t, Organic.Paid())
}

func TestBucketMerge(t *testing.T) {
	d1 := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 7)
	a := AggregateBucket{WindowStart: d2, WindowEnd: d2.AddDate(0, 0, 7), Leads: 2, Tiers: map[Tier]int{Hot: 1}}
	b := AggregateBucket{WindowStart: d1, WindowEnd: d1.AddDate(0, 0, 7), Leads: 3, Spend: 10, Tiers: map[Tier]int{Hot: 2}}

	var m AggregateBucket
	m.Merge(a)
	m.Merge(b)
	assert.Equal(t, d1, m.WindowStart)
	assert.Equal(t, d2.AddDate(0, 0, 7), m.WindowEnd)
	assert.Equal(t, 5, m.Leads)
	assert.Equal(t, 3, m.Tiers[Hot])
	// las entradas no se modifican
	assert.Equal(t, 1, a.Tiers[Hot])
	assert.InDelta(t, 2.0, m.CostPerLead().Value, 1e-12)
	assert.False(t, m.CPA().Defined)
	assert.Equal(t, 0.0, m.Conversions())
}
