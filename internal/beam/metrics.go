package beam

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/beamcore/internal/beam"

type metrics struct {
	fired    metric.Int64Counter
	rejected metric.Int64Counter
	hits     metric.Int64Counter
	damage   metric.Float64Counter
	active   metric.Int64ObservableGauge
	reg      metric.Registration
}

// newMetrics registers the beam instruments on the global meter (no-op if not configured).
func newMetrics(s *System) (*metrics, error) {
	m := otel.Meter(instrumentationName)
	out := &metrics{}

	var err error
	out.fired, err = m.Int64Counter(
		"beam.fired",
		metric.WithDescription("Beams created by fire requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}

	out.rejected, err = m.Int64Counter(
		"beam.fire.rejected",
		metric.WithDescription("Fire requests that created no beam"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	out.hits, err = m.Int64Counter(
		"beam.hits",
		metric.WithDescription("Fresh beam hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}

	out.damage, err = m.Float64Counter(
		"beam.damage",
		metric.WithDescription("Damage applied by beams"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating damage counter: %w", err)
	}

	out.active, err = m.Int64ObservableGauge(
		"beam.active",
		metric.WithDescription("Beams currently in the pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active gauge: %w", err)
	}

	out.reg, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(out.active, s.active.Load())
			return nil
		},
		out.active,
	)
	if err != nil {
		return nil, fmt.Errorf("registering active callback: %w", err)
	}

	return out, nil
}

// unregister detaches the active gauge callback so the meter stops
// referencing the system.
func (m *metrics) unregister() error {
	if m == nil || m.reg == nil {
		return nil
	}
	err := m.reg.Unregister()
	m.reg = nil
	return err
}

func weaponAttr(name string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("weapon", name))
}

func (m *metrics) addFired(weapon string) {
	m.fired.Add(context.Background(), 1, weaponAttr(weapon))
}

func (m *metrics) addRejected(reason string) {
	m.rejected.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *metrics) addHit(weapon string) {
	m.hits.Add(context.Background(), 1, weaponAttr(weapon))
}

func (m *metrics) addDamage(weapon string, amount float64) {
	m.damage.Add(context.Background(), amount, weaponAttr(weapon))
}
