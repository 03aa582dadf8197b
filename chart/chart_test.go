package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projection(months int) (*forecast.Plan, *forecast.Projection) {
	p := forecast.DefaultPlan()
	p.Assumptions.PlanMonths = months
	return p, forecast.ComputeAt(p.Inputs(), date.New(2025, time.January, 1))
}

var pngMagic = []byte("\x89PNG")

func TestNetWorth(t *testing.T) {
	_, proj := projection(24)

	img, err := NetWorth(proj, PNG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic), "not a PNG image")

	img, err = NetWorth(proj, SVG)
	require.NoError(t, err)
	assert.Contains(t, string(img), "<svg")
	assert.Contains(t, string(img), "Net Worth")
}

func TestEmergencyFund(t *testing.T) {
	plan, proj := projection(24)
	img, err := EmergencyFund(proj, plan.Goals.EmergencyTarget, PNG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic), "not a PNG image")
}

func TestLineCharts_TooShort(t *testing.T) {
	plan, proj := projection(1)
	_, err := NetWorth(proj, PNG)
	assert.ErrorContains(t, err, "need at least 2 months")
	_, err = EmergencyFund(proj, plan.Goals.EmergencyTarget, SVG)
	assert.ErrorContains(t, err, "need at least 2 months")
}

func TestAllocation(t *testing.T) {
	plan, proj := projection(12)
	img, err := Allocation(forecast.NewAllocation(plan, proj), SVG)
	require.NoError(t, err)
	assert.Contains(t, string(img), "<svg")
	assert.Contains(t, string(img), "Emergency Fund")

	_, err = Allocation(forecast.Allocation{}, PNG)
	assert.ErrorContains(t, err, "allocation is empty")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("SVG")
	require.NoError(t, err)
	assert.Equal(t, SVG, f)
	assert.Equal(t, "image/svg+xml", f.ContentType())
	assert.Equal(t, "image/png", PNG.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}
