package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/beamcore/internal/dispatcher"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// instruments are the dispatcher's metrics. The global meter is a no-op until
// an OTel provider is installed.
type instruments struct {
	processed metric.Int64Counter
	dropped   metric.Int64Counter
}

func newInstruments(d *Dispatcher) (instruments, error) {
	m := meter()
	var ins instruments

	gauge, err := m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Events waiting in each buffered handler"))
	if err != nil {
		return ins, fmt.Errorf("creating queue size gauge: %w", err)
	}
	observe := func(_ context.Context, o metric.Observer) error {
		for cmd, n := range d.Pending() {
			o.ObserveInt64(gauge, int64(n), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}
	if _, err := m.RegisterCallback(observe, gauge); err != nil {
		return ins, fmt.Errorf("registering queue callback: %w", err)
	}

	if ins.processed, err = m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Buffered events handled")); err != nil {
		return ins, fmt.Errorf("creating processed counter: %w", err)
	}
	if ins.dropped, err = m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Events refused because a handler queue was full")); err != nil {
		return ins, fmt.Errorf("creating dropped counter: %w", err)
	}
	return ins, nil
}

func commandAttr(command string) metric.AddOption {
	return metric.WithAttributes(attribute.String("command", command))
}
