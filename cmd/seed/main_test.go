package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogenplan/cogenplan/pkg/config"
	"github.com/cogenplan/cogenplan/pkg/demand"
	"github.com/cogenplan/cogenplan/pkg/types"
)

func TestSampleScenario(t *testing.T) {
	s, err := config.Decode(context.Background(), bytes.NewReader(sampleScenario))
	require.NoError(t, err)
	assert.Equal(t, "Chicago, IL", s.Location())
	assert.Equal(t, 10, s.Demand.HeaderRows)

	var buf bytes.Buffer
	require.NoError(t, writeDemand(&buf, s.Demand, rand.New(rand.NewPCG(1, 0))))

	d, err := demand.Read(context.Background(), &buf, demand.LayoutFrom(s.Demand))
	require.NoError(t, err)
	require.Equal(t, types.HoursPerYear, d.Hours())

	// heating load is higher in January than in July
	jan := d.Thermal(12).BtuPerHour()
	jul := d.Thermal(182*24 + 12).BtuPerHour()
	assert.Greater(t, jan, jul)
	for h := range d.Hours() {
		require.Positive(t, d.Electrical(h).KW(), "hour %d", h)
	}
}
