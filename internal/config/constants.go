package config

const (
	// EnvPrefix prefixes every environment variable the tool reads.
	EnvPrefix = "ASSERTDIAG_"
	// DefaultOutput is the report document path when none is configured.
	DefaultOutput = "assertdiag-report.json"
	// DefaultOrdering runs examples in declaration order.
	DefaultOrdering = "defined"
	// ColorAuto enables colors only when writing to a terminal.
	ColorAuto = "auto"
	// ColorAlways forces colored output.
	ColorAlways = "always"
	// ColorNever disables colored output.
	ColorNever = "never"
)
