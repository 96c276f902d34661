package tracing_test

import (
	"testing"

	"github.com/aaravmahajanofficial/storefront-cart/internal/config"
	"github.com/aaravmahajanofficial/storefront-cart/internal/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := tracing.Setup(t.Context(), &config.OTel{ServiceName: "storefront-cart"})

	require.NoError(t, err)
	assert.NoError(t, shutdown(t.Context()))
}

func TestNewProvider(t *testing.T) {
	// Arrange
	exporter := tracetest.NewInMemoryExporter()
	tp := tracing.NewProvider(exporter, &config.OTel{ServiceName: "storefront-cart", SamplerRatio: 1})

	// Act
	_, span := tp.Tracer("test").Start(t.Context(), "cart.add_item")
	span.End()
	require.NoError(t, tp.ForceFlush(t.Context()))

	// Assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "cart.add_item", spans[0].Name)

	serviceName, ok := spans[0].Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "storefront-cart", serviceName.AsString())
	assert.NoError(t, tp.Shutdown(t.Context()))
}
