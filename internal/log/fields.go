package log

// Attribute keys shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldExpenseID   = "expense_id"
	FieldExpenseDate = "expense_date"
	FieldAmountCents = "amount_cents"
	FieldVersion     = "version"
	FieldMode        = "mode"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentExpense = "expense"
	ComponentScreen  = "screen"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentTrace   = "trace"
	ComponentBackend = "backend"
	ComponentAMQP    = "amqp"
	ComponentTUI     = "tui"
)

// Operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
