package observability

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitOTel_Disabled(t *testing.T) {
	logger, hook := test.NewNullLogger()

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)
	require.NoError(t, err)
	assert.Nil(t, providers)
	assert.Equal(t, "OpenTelemetry is disabled", hook.LastEntry().Message)

	assert.NoError(t, ShutdownOTel(context.Background(), nil, logger))
}

func TestInitOTel_Enabled(t *testing.T) {
	logger, hook := test.NewNullLogger()

	// The gRPC exporter connects lazily so no collector is needed.
	providers, err := InitOTel(context.Background(), OTelConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		ServiceName: "chatprune-test",
		Insecure:    true,
	}, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.NotNil(t, providers.TracerProvider)
	require.NotNil(t, providers.MeterProvider)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "OpenTelemetry initialized successfully", entry.Message)
	assert.Equal(t, 10*time.Second, entry.Data["metric_interval"])

	// otelhttp picks its meter up from the global provider
	assert.Same(t, providers.MeterProvider, otel.GetMeterProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = ShutdownOTel(ctx, providers, logger)
}

func TestShutdownOTel_PartialProviders(t *testing.T) {
	logger, hook := test.NewNullLogger()

	require.NoError(t, ShutdownOTel(context.Background(), &OTelProviders{}, logger))
	assert.Equal(t, "OpenTelemetry shutdown complete", hook.LastEntry().Message)
}
