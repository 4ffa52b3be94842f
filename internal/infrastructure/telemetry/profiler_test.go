package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, nil)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresServer(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true}, nil)
	assert.Error(t, err)
}

func TestProfileTypes(t *testing.T) {
	assert.Len(t, profileTypes(false), 2)
	assert.Len(t, profileTypes(true), 6)
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Route":        "/api/v1/products/:slug",
		"request_id":   "abc",
		"cart-session": "tok",
		"empty":        "",
		"area":         strings.Repeat("x", MaxLabelValueLength+10),
	})

	assert.Equal(t, []string{
		"area", strings.Repeat("x", MaxLabelValueLength),
		"route", "/api/v1/products/:slug",
	}, pairs)
	assert.Nil(t, sanitizeLabels(nil))
}

func TestHTTPRequestLabels(t *testing.T) {
	labels := HTTPRequestLabels("orders", "/api/v1/admin/orders/:id", "POST", "admin")
	assert.Equal(t, map[string]string{
		ProfilingLabelController: "orders",
		ProfilingLabelRoute:      "/api/v1/admin/orders/:id",
		ProfilingLabelMethod:     "POST",
		ProfilingLabelArea:       "admin",
	}, labels)

	assert.Empty(t, HTTPRequestLabels("", "", "", ""))
}

func TestWithProfilingLabels(t *testing.T) {
	var seen string
	WithProfilingLabels(context.Background(), OperationLabels("purge-carts"), func(ctx context.Context) {
		seen, _ = pprof.Label(ctx, ProfilingLabelOperation)
	})
	assert.Equal(t, "purge-carts", seen)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
