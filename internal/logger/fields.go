package logger

// Standard field names for structured logging across the generator.
const (
	FieldRunID      = "run_id"
	FieldComponent  = "component"
	FieldStage      = "stage"
	FieldClient     = "client"
	FieldFile       = "file"
	FieldPath       = "path"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldSeverity   = "severity"
	FieldError      = "error"
)
