package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldSuccess     = "success"
	FieldExpenseID   = "expense_id"
	FieldExpenseName = "expense_name"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldMonth       = "month"
	FieldBackend     = "backend"
	FieldKey         = "key"
	FieldRevision    = "revision"
	FieldBytes       = "bytes"
	FieldDuration    = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStore   = "store"
	ComponentService = "service"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentMirror  = "mirror"
	ComponentCache   = "cache"
	ComponentCLI     = "cli"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLoad     = "load"
	OpSave     = "save"
	OpAdd      = "add"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpClear    = "clear"
	OpExport   = "export"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpMirror   = "mirror"
	OpAutosave = "autosave"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
