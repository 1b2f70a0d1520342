package sandbox

import "time"

// Config defines sandbox configuration
type Config struct {
	Timeout        time.Duration // Execution timeout
	AcquireTimeout time.Duration // Pool wait before giving up
	MaxCallStack   int           // goja call stack limit
	EnableConsole  bool          // Capture console.log/warn/error
	PageURL        string        // Reported as window.location.href
}

// Result holds execution result
type Result struct {
	Value    any            // Completion value of the script
	Console  []LogEntry     // Console output
	Widgets  []Construction // Widget constructors invoked, in call order
	Duration time.Duration
	Error    error
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Library names the browser widget library a construction went to.
type Library string

const (
	ChartJS    Library = "chart.js"
	DataTables Library = "datatables"
)

// Construction is one widget constructor call observed during a dry run.
type Construction struct {
	Library Library `json:"library"`
	Target  string  `json:"target"`
	// Found reports whether Target exists in the page the script ran against.
	Found bool `json:"found"`
	// Config is the configuration as JSON.stringify saw it; functions are dropped.
	Config string `json:"config"`
	// Rendered holds the output of any column render callback applied to a
	// sample row whose first cell is SampleKey.
	Rendered []string `json:"rendered,omitempty"`
}

// SampleKey is the first cell of the row handed to render callbacks.
const SampleKey = "42"

// DefaultConfig returns the settings used by the service.
func DefaultConfig() Config {
	return Config{
		Timeout:        2 * time.Second,
		AcquireTimeout: 5 * time.Second,
		MaxCallStack:   1024,
		EnableConsole:  true,
		PageURL:        "http://localhost/",
	}
}
