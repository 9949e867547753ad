package logging

// Field name constants for structured logging.
const (
	FieldError    = "error"
	FieldPath     = "path"
	FieldSession  = "session"
	FieldEndpoint = "endpoint"
	FieldMethod   = "method"
	FieldStatus   = "status"
	FieldDuration = "duration"
	FieldLanguage = "language"
	FieldModel    = "model"
	FieldKind     = "kind"
	FieldScore    = "score"
	FieldCount    = "count"
	FieldConfig   = "config"
	FieldVersion  = "version"
)
