package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute        = "route"
	ProfilingLabelMethod       = "method"
	ProfilingLabelOperation    = "operation"
	ProfilingLabelDocumentType = "document_type"
)

// MaxLabelValueLength bounds label values
const MaxLabelValueLength = 128

// highCardinalityLabels are never attached to profiles
var highCardinalityLabels = map[string]bool{
	"owner_id":    true,
	"user_id":     true,
	"document_id": true,
	"request_id":  true,
	"trace_id":    true,
	"span_id":     true,
}

// WithProfilingLabels runs fn with pprof labels attached, so Pyroscope can
// slice CPU time by route or operation. Empty and high-cardinality labels
// are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels labels a request by route pattern and method
func HTTPRequestLabels(route, method string) map[string]string {
	return map[string]string{
		ProfilingLabelRoute:  route,
		ProfilingLabelMethod: method,
	}
}

// DocumentOperationLabels labels a document service operation,
// e.g. ("convert", "estimate")
func DocumentOperationLabels(operation, documentType string) map[string]string {
	return map[string]string{
		ProfilingLabelOperation:    operation,
		ProfilingLabelDocumentType: documentType,
	}
}

// sanitizeLabels returns key/value pairs with snake_case keys, sorted by
// the sanitized key
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	clean := make(map[string]string, len(labels))
	for key, value := range labels {
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		clean[key] = value
	}
	if len(clean) == 0 {
		return nil
	}

	keys := make([]string, 0, len(clean))
	for key := range clean {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, key, clean[key])
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		case c == ' ' || c == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}
