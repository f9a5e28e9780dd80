package logging

import (
	"sync"
	"time"
)

// ErrorCategory groups absorbed errors by the stage that produced them
type ErrorCategory string

const (
	ErrorCategoryTemplate ErrorCategory = "template"
	ErrorCategoryCapture  ErrorCategory = "capture"
	ErrorCategoryMatch    ErrorCategory = "match"
	ErrorCategoryClick    ErrorCategory = "click"
	ErrorCategoryJournal  ErrorCategory = "journal"
	ErrorCategoryEngine   ErrorCategory = "engine"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity string

const (
	ErrorSeverityLow      ErrorSeverity = "low"
	ErrorSeverityMedium   ErrorSeverity = "medium"
	ErrorSeverityHigh     ErrorSeverity = "high"
	ErrorSeverityCritical ErrorSeverity = "critical"
)

// ErrorReport is one absorbed or escalated error
type ErrorReport struct {
	Timestamp   time.Time
	Category    ErrorCategory
	Severity    ErrorSeverity
	Message     string
	Error       error
	Context     map[string]interface{}
	Recoverable bool
}

// ErrorCallback is called when an error of a watched severity is reported
type ErrorCallback func(report *ErrorReport)

// ErrorReporter logs per-item errors and keeps a bounded history with
// per-category counts, so absorbed failures still leave a trace
type ErrorReporter struct {
	logger *Logger

	mu         sync.RWMutex
	history    []*ErrorReport
	maxHistory int
	counts     map[ErrorCategory]int

	callbacksMu sync.RWMutex
	callbacks   map[ErrorSeverity][]ErrorCallback
}

// NewErrorReporter creates a reporter keeping the last maxHistory reports
func NewErrorReporter(logger *Logger, maxHistory int) *ErrorReporter {
	if logger == nil {
		logger = NewLogger("ErrorReporter")
	}
	if maxHistory <= 0 {
		maxHistory = 200
	}
	return &ErrorReporter{
		logger:     logger,
		maxHistory: maxHistory,
		counts:     make(map[ErrorCategory]int),
		callbacks:  make(map[ErrorSeverity][]ErrorCallback),
	}
}

// Report records and logs an error
func (er *ErrorReporter) Report(report *ErrorReport) {
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	er.logError(report)

	er.mu.Lock()
	er.history = append(er.history, report)
	if len(er.history) > er.maxHistory {
		er.history = er.history[len(er.history)-er.maxHistory:]
	}
	er.counts[report.Category]++
	er.mu.Unlock()

	er.callbacksMu.RLock()
	callbacks := er.callbacks[report.Severity]
	er.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		callback(report)
	}
}

// ReportError records a recoverable error
func (er *ErrorReporter) ReportError(category ErrorCategory, severity ErrorSeverity, message string, err error, context map[string]interface{}) {
	er.Report(&ErrorReport{
		Category:    category,
		Severity:    severity,
		Message:     message,
		Error:       err,
		Context:     context,
		Recoverable: true,
	})
}

// ReportCritical records an error that stops the engine
func (er *ErrorReporter) ReportCritical(category ErrorCategory, message string, err error) {
	er.Report(&ErrorReport{
		Category: category,
		Severity: ErrorSeverityCritical,
		Message:  message,
		Error:    err,
	})
}

func (er *ErrorReporter) logError(report *ErrorReport) {
	context := map[string]interface{}{
		"category": string(report.Category),
	}
	for k, v := range report.Context {
		context[k] = v
	}

	switch report.Severity {
	case ErrorSeverityCritical:
		er.logger.FatalWithContext(report.Message, report.Error, context)
	case ErrorSeverityHigh:
		er.logger.ErrorWithContext(report.Message, report.Error, context)
	case ErrorSeverityMedium:
		if report.Error != nil {
			context["error"] = report.Error.Error()
		}
		er.logger.WarnWithContext(report.Message, context)
	default:
		if report.Error != nil {
			context["error"] = report.Error.Error()
		}
		er.logger.DebugWithContext(report.Message, context)
	}
}

// OnError registers a callback for a severity. Callbacks run synchronously.
func (er *ErrorReporter) OnError(severity ErrorSeverity, callback ErrorCallback) {
	er.callbacksMu.Lock()
	defer er.callbacksMu.Unlock()

	er.callbacks[severity] = append(er.callbacks[severity], callback)
}

// Recent returns up to n of the most recent reports, oldest first
func (er *ErrorReporter) Recent(n int) []*ErrorReport {
	er.mu.RLock()
	defer er.mu.RUnlock()

	if n > len(er.history) {
		n = len(er.history)
	}
	out := make([]*ErrorReport, n)
	copy(out, er.history[len(er.history)-n:])
	return out
}

// Count returns the total number of reports in a category since creation
func (er *ErrorReporter) Count(category ErrorCategory) int {
	er.mu.RLock()
	defer er.mu.RUnlock()
	return er.counts[category]
}

// Counts returns a copy of the per-category totals
func (er *ErrorReporter) Counts() map[ErrorCategory]int {
	er.mu.RLock()
	defer er.mu.RUnlock()

	out := make(map[ErrorCategory]int, len(er.counts))
	for k, v := range er.counts {
		out[k] = v
	}
	return out
}
