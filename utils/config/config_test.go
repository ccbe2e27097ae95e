package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, config.Validate(config.Default()))
}

func TestParseOverridesDefault(t *testing.T) {
	c, err := config.Parse([]byte(`
control:
  step:
    start: 0
    total: 500
    interval: 1
    transient: 100
  seed: 7
  service_policy: one_per_tick
road:
  length: 100
vehicles:
  density: 0.1
passengers:
  destination: uniform
`))
	require.NoError(t, err)
	assert.Equal(t, int32(500), c.Control.Step.Total)
	assert.Equal(t, uint64(7), c.Control.Seed)
	assert.Equal(t, 100, c.Road.Length)
	// 未出现的字段保持默认值
	assert.Equal(t, 4, c.Road.Width)
	assert.Equal(t, 20, c.Vehicles.Transit.Capacity)

	rc := config.NewRuntimeConfig(c)
	assert.Equal(t, config.ServiceOnePerTick, rc.Service)
	assert.Equal(t, config.DestinationUniform, rc.Destination)
	assert.True(t, rc.Allowed(1, config.ClassFreight))
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := config.Parse([]byte("road:\n  lanes: 3\n"))
	assert.Error(t, err)
}

func TestValidateCrossField(t *testing.T) {
	c := config.Default()
	c.Vehicles.Freight.Width = 3
	assert.Error(t, config.Validate(c))

	c = config.Default()
	c.Control.Step.Transient = c.Control.Step.Total + 1
	assert.Error(t, config.Validate(c))

	c = config.Default()
	c.Control.ServicePolicy = "greedy"
	assert.Error(t, config.Validate(c))

	c = config.Default()
	c.Sidewalk.Stops = config.StopLayout{Mode: "explicit", Positions: []int{10, 400}}
	assert.Error(t, config.Validate(c))

	c = config.Default()
	c.Sweep = &config.Sweep{Densities: []float64{0.1}, TruckFractions: []float64{}, Trials: 1}
	assert.Error(t, config.Validate(c))
}

func TestAllowedRows(t *testing.T) {
	c := config.Default()
	c.Road.AllowedRows = []config.RowRule{
		{Row: 0, Classes: []string{config.ClassTransit}},
		{Row: 2, Classes: []string{config.ClassTransit, config.ClassFreight}},
	}
	require.NoError(t, config.Validate(c))
	rc := config.NewRuntimeConfig(c)
	assert.True(t, rc.Allowed(0, config.ClassTransit))
	assert.False(t, rc.Allowed(0, config.ClassFreight))
	assert.False(t, rc.Allowed(1, config.ClassTransit))
	assert.True(t, rc.Allowed(2, config.ClassFreight))
}
