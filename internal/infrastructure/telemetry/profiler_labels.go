package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelArea       = "area"
	ProfilingLabelOperation  = "operation"
)

// MaxLabelValueLength truncates label values.
const MaxLabelValueLength = 128

// HighCardinalityLabels are dropped before labels reach Pyroscope.
var HighCardinalityLabels = map[string]bool{
	"request_id":   true,
	"trace_id":     true,
	"span_id":      true,
	"order_id":     true,
	"order_number": true,
	"cart_session": true,
	"email":        true,
}

// WithProfilingLabels runs fn with pprof labels attached to the goroutine.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabels drops empty and high cardinality labels, truncates values
// and returns key/value pairs in key order.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, k := range keys {
		v := labels[k]
		key := sanitizeLabelKey(k)
		if key == "" || v == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, v)
	}
	return pairs
}

// sanitizeLabelKey lowercases and keeps [a-z0-9_].
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		case c == ' ' || c == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// HTTPRequestLabels builds the per-request label set. area is
// "storefront" or "admin".
func HTTPRequestLabels(controller, route, method, area string) map[string]string {
	labels := make(map[string]string, 4)
	for k, v := range map[string]string{
		ProfilingLabelController: controller,
		ProfilingLabelRoute:      route,
		ProfilingLabelMethod:     method,
		ProfilingLabelArea:       area,
	} {
		if v != "" {
			labels[k] = v
		}
	}
	return labels
}

// OperationLabels labels a background operation such as a scheduler job.
func OperationLabels(operation string) map[string]string {
	return map[string]string{ProfilingLabelOperation: operation}
}
