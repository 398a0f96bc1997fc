package beam_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/embedded"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/OCAP2/beamcore/internal/beam"
)

type countingProvider struct {
	noop.MeterProvider
	meter countingMeter
}

func (p countingProvider) Meter(string, ...metric.MeterOption) metric.Meter { return p.meter }

type countingMeter struct {
	noop.Meter
	registered   *atomic.Int32
	unregistered *atomic.Int32
}

func (m countingMeter) RegisterCallback(metric.Callback, ...metric.Observable) (metric.Registration, error) {
	m.registered.Add(1)
	return countingRegistration{unregistered: m.unregistered}, nil
}

type countingRegistration struct {
	embedded.Registration
	unregistered *atomic.Int32
}

func (r countingRegistration) Unregister() error {
	r.unregistered.Add(1)
	return nil
}

func TestClose_UnregistersActiveGauge(t *testing.T) {
	var registered, unregistered atomic.Int32
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(countingProvider{meter: countingMeter{registered: &registered, unregistered: &unregistered}})
	t.Cleanup(func() { otel.SetMeterProvider(prev) })
	// systems from earlier tests are re-registered when the global delegates
	before := registered.Load()

	sys, err := beam.NewSystem(beam.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, before+1, registered.Load())

	require.NoError(t, sys.Close())
	require.NoError(t, sys.Close())
	assert.Equal(t, int32(1), unregistered.Load())
}
