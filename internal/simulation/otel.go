package simulation

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/roversim/internal/simulation"

type metrics struct {
	controlTicks metric.Int64Counter
	frames       metric.Int64Counter
	rejections   metric.Int64Counter
	recordErrors metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	var err error
	var out metrics

	out.controlTicks, err = m.Int64Counter(
		"simulation.control.ticks",
		metric.WithDescription("Total control task invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating control ticks counter: %w", err)
	}

	out.frames, err = m.Int64Counter(
		"simulation.render.frames",
		metric.WithDescription("Total render task invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	out.rejections, err = m.Int64Counter(
		"simulation.actuation.rejections",
		metric.WithDescription("Total rejected actuator values"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejections counter: %w", err)
	}

	out.recordErrors, err = m.Int64Counter(
		"simulation.recorder.errors",
		metric.WithDescription("Total failed recorder calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recorder errors counter: %w", err)
	}

	return &out, nil
}
