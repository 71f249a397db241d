package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldMonth         = "month"
	FieldOperationID   = "operation_id"
	FieldCostID        = "cost_id"
	FieldCategoryID    = "category_id"
	FieldLabel         = "label"
	FieldDate          = "date"
	FieldAmount        = "amount"
	FieldPlanned       = "planned"
	FieldEventType     = "event_type"
	FieldEventID       = "event_id"
	FieldWindowStart   = "window_start"
	FieldWindowEnd     = "window_end"
	FieldProjectFuture = "project_future"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentAccount     = "account"
	ComponentLedger      = "ledger"
	ComponentMaterialize = "materializer"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentSheets      = "sheets"
	ComponentCache       = "cache"
	ComponentRateLimit   = "rate_limit"
	ComponentBackend     = "backend"
	ComponentTemplate    = "template"
	ComponentCLI         = "cli"
)

// Operations defines standard operation names
const (
	OpCreate      = "create"
	OpRead        = "read"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpList        = "list"
	OpUnmerge     = "unmerge"
	OpInit        = "init"
	OpMaterialize = "materialize"
	OpExport      = "export"
	OpPublish     = "publish"
	OpRender      = "render"
	OpShutdown    = "shutdown"
	OpStartup     = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithLedgerOperation adds the fields describing a stored operation.
// Absent amounts are logged as empty strings.
func (f LogFields) WithLedgerOperation(id int64, label, date, amount, planned string) LogFields {
	f[FieldOperationID] = id
	f[FieldLabel] = label
	f[FieldDate] = date
	f[FieldAmount] = amount
	f[FieldPlanned] = planned
	return f
}

// WithWindow adds the resolved date window of a list view.
func (f LogFields) WithWindow(start, end string, projectFuture bool) LogFields {
	f[FieldWindowStart] = start
	f[FieldWindowEnd] = end
	f[FieldProjectFuture] = projectFuture
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
