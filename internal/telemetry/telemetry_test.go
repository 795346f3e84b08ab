package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/njchilds90/gointegral/internal/config"
)

func TestInit_None(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := Init(context.Background(), config.TracingConfig{Exporter: "none"}, Options{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestInit_StdoutExportsSpans(t *testing.T) {
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	var buf bytes.Buffer
	cfg := config.TracingConfig{Exporter: "stdout", SampleRatio: 1}
	shutdown, err := Init(context.Background(), cfg, Options{ServiceName: "gointegral-test", Writer: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "integrate-x")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "integrate-x")
	assert.Contains(t, buf.String(), "gointegral-test")
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), config.TracingConfig{Exporter: "zipkin"}, Options{})
	assert.ErrorIs(t, err, ErrUnknownExporter)
}
