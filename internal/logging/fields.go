package logging

// Standardized attribute keys used across the brief pipeline.
const (
	FieldComponent = "component"
	FieldUserID    = "user_id"
	FieldRunID     = "run_id"
	FieldBriefID   = "brief_id"
	FieldSource    = "source"
	FieldStage     = "stage"
	FieldItemRef   = "item_ref"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
)
