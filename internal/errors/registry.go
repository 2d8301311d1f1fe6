package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Config errors (G100-G199)

	"G100": {
		Category:   CategoryConfig,
		Message:    "Config file not readable",
		Suggestion: "Check the path passed to --config, or run without it to use defaults.",
	},
	"G101": {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Suggestion: "gestured.json must be a single JSON object. Check for trailing commas.",
	},
	"G102": {
		Category:   CategoryConfig,
		Message:    "Invalid gesture threshold",
		Suggestion: "Thresholds must be zero (use the default) or positive. Use -1 for maxSwipeTimeMs to disable the time gate.",
	},
	"G103": {
		Category:   CategoryConfig,
		Message:    "Invalid server setting",
		Suggestion: "Timeouts and intervals must be positive. maxSessions may be 0 for no limit.",
	},
	"G104": {
		Category:   CategoryConfig,
		Message:    "Invalid record setting",
		Suggestion: "Set record.dir or record.s3Bucket when record.enabled is true.",
	},
	"G105": {
		Category:   CategoryConfig,
		Message:    "Invalid environment override",
		Suggestion: "GESTURED_* variables must parse as the type of the field they override.",
	},

	// Record errors (G200-G299)

	"G200": {
		Category:   CategoryRecord,
		Message:    "Trace file not readable",
		Suggestion: "Pass paths to YAML files written by a record directory sink.",
	},
	"G201": {
		Category:   CategoryRecord,
		Message:    "Trace sink unavailable",
		Suggestion: "Check that record.dir is writable, or that the S3 bucket exists and credentials are set.",
	},
	"G202": {
		Category: CategoryRecord,
		Message:  "Replay outcome differs from recording",
	},

	// Server errors (G300-G399)

	"G300": {
		Category:   CategoryServer,
		Message:    "Listener failed",
		Suggestion: "Another process may be using the address. Change server.addr or GESTURED_ADDR.",
	},
	"G301": {
		Category: CategoryServer,
		Message:  "Shutdown did not complete",
	},

	// CLI errors (G400-G499)

	"G400": {
		Category:   CategoryCLI,
		Message:    "Missing argument",
		Suggestion: "Run with --help to see usage.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns every registered code.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
