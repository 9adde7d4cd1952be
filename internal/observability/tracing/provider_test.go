package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zaptest"
)

func TestSafeAttributesFiltersUnknownKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/jobs"),
		attribute.String("job.description", "secret"),
		attribute.String("job.plan", "featured"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
	assert.Equal(t, attribute.Key("job.plan"), attrs[1].Key)
}

func TestSafeErrorHidesMessage(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	err := SafeError(errors.New("password=hunter2"))
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(nil, Config{Enabled: false, ServiceName: "jobboard"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, provider)
}
