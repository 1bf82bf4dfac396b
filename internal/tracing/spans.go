package tracing

// Span names.
const (
	SpanStoreLoad     = "store.load"
	SpanStoreSave     = "store.save"
	SpanCommandPrefix = "command."
)

// Span attribute keys.
const (
	AttrRulesCount   = "rules.count"
	AttrStoreDriver  = "store.driver"
	AttrCommandName  = "command.name"
	AttrCommandArgs  = "command.args"
	AttrErrorMessage = "error.message"
)
