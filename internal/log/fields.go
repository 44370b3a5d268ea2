package log

import "sort"

// Field names shared across packages.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldScenarioID = "scenario_id"
	FieldBundleID   = "bundle_id"
	FieldRows       = "rows"
	FieldPeriodType = "period_type"
	FieldStart      = "start"
	FieldEnd        = "end"
)

// Components
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentProjection = "projection"
	ComponentStorage    = "storage"
	ComponentWorker     = "worker"
	ComponentCLI        = "cli"
)

// Operations
const (
	OpGenerate = "generate"
	OpRead     = "read"
	OpClear    = "clear"
	OpList     = "list"
)

// LogFields collects attributes for one record.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError records err's message; a nil err adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithScenario(id int) LogFields {
	f[FieldScenarioID] = id
	return f
}

// WithProjection adds the bundle, size and window of a projection run.
func (f LogFields) WithProjection(bundleID string, rows int, periodType, start, end string) LogFields {
	f[FieldBundleID] = bundleID
	f[FieldRows] = rows
	f[FieldPeriodType] = periodType
	f[FieldStart] = start
	f[FieldEnd] = end
	return f
}

// WithHTTPRequest adds method and path, plus the query when there is one.
func (f LogFields) WithHTTPRequest(method, path, query string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice flattens f into slog key/value pairs sorted by key, so records
// always list attributes in the same order.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
