// Package debug provides detailed per-case logging for troubleshooting
// evaluation runs.
package debug

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http/httptrace"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TimingBreakdown captures detailed HTTP timing using httptrace
type TimingBreakdown struct {
	DNSLookup       time.Duration `json:"dns_lookup"`
	TCPConnection   time.Duration `json:"tcp_connection"`
	TLSHandshake    time.Duration `json:"tls_handshake"`
	TimeToFirstByte time.Duration `json:"time_to_first_byte"`
	TotalDuration   time.Duration `json:"total_duration"`
}

// Logger handles debug logging for an evaluation run
type Logger struct {
	mu          sync.RWMutex
	enabled     bool
	fullCapture bool
	startTime   time.Time
	session     *session
	outputPath  string
}

// session represents the entire debug session
type session struct {
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Datasets  map[string]*DatasetLog `json:"datasets"`
	RunInfo   map[string]interface{} `json:"run_info"`
}

// DatasetLog contains debug data for one dataset's cases
type DatasetLog struct {
	Name  string     `json:"name"`
	Cases []*CaseLog `json:"cases"`
}

// CaseLog contains debug data for a single case evaluation. Each case
// issues exactly one extraction request.
type CaseLog struct {
	CaseID    string        `json:"case_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration"`
	Request   *RequestLog   `json:"request,omitempty"`
	Response  *ResponseLog  `json:"response,omitempty"`
	Errors    []ErrorLog    `json:"errors"`

	// internal storage for non-serializable objects (not exported to JSON)
	internalMeta map[string]interface{}
}

// RequestLog captures HTTP request details
type RequestLog struct {
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	InputFile string            `json:"input_file,omitempty"`
	BodySize  int               `json:"body_size"`
	Timing    *TimingBreakdown  `json:"timing,omitempty"`
}

// ResponseLog captures HTTP response details
type ResponseLog struct {
	Timestamp   time.Time         `json:"timestamp"`
	StatusCode  int               `json:"status_code"`
	Headers     map[string]string `json:"headers,omitempty"`
	BodyPreview string            `json:"body_preview,omitempty"`
	BodyFull    string            `json:"body_full,omitempty"`
	BodySize    int               `json:"body_size"`
	Duration    time.Duration     `json:"duration"`
	Timing      *TimingBreakdown  `json:"timing,omitempty"`
}

// ErrorLog captures error details with context
type ErrorLog struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind,omitempty"`
	Context   string    `json:"context,omitempty"`
}

// NewLogger creates a new debug logger
// enabled: enables basic debug logging
// fullCapture: when true, captures complete response bodies (requires enabled=true)
// outputDir: base output directory for debug files
func NewLogger(enabled bool, fullCapture bool, outputDir string) *Logger {
	logger := &Logger{
		enabled:     enabled,
		fullCapture: fullCapture,
		startTime:   time.Now(),
		session: &session{
			StartTime: time.Now(),
			Datasets:  make(map[string]*DatasetLog),
			RunInfo: map[string]interface{}{
				"timestamp":    time.Now().Format(time.RFC3339),
				"full_capture": fullCapture,
			},
		},
	}

	if enabled {
		logger.outputPath = filepath.Join(outputDir, "debug")
	}

	return logger
}

// IsEnabled returns whether debug logging is enabled
func (l *Logger) IsEnabled() bool {
	return l.enabled
}

// IsFullCapture returns whether full body capture is enabled
func (l *Logger) IsFullCapture() bool {
	return l.fullCapture
}

// SetRunInfo records a run-level detail such as the endpoint in use
func (l *Logger) SetRunInfo(key string, value interface{}) {
	if !l.enabled {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.session.RunInfo[key] = value
}

// StartCase begins logging a new case evaluation
func (l *Logger) StartCase(datasetName, caseID string) *CaseLog {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	datasetLog, exists := l.session.Datasets[datasetName]
	if !exists {
		datasetLog = &DatasetLog{Name: datasetName}
		l.session.Datasets[datasetName] = datasetLog
	}

	caseLog := &CaseLog{
		CaseID:    caseID,
		StartTime: time.Now(),
		Errors:    []ErrorLog{},
	}
	datasetLog.Cases = append(datasetLog.Cases, caseLog)

	return caseLog
}

// NewTraceContext creates an httptrace.ClientTrace that populates timing data.
// Returns a *TimingBreakdown to be filled and a function to finalize it.
func (l *Logger) NewTraceContext(caseLog *CaseLog) (*TimingBreakdown, func()) {
	if !l.enabled || caseLog == nil {
		return nil, func() {}
	}

	timing := &TimingBreakdown{}
	var dnsStart, tcpStart, tlsStart, firstByteTime time.Time

	trace := &httptrace.ClientTrace{
		DNSStart: func(_ httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(_ httptrace.DNSDoneInfo) {
			timing.DNSLookup = time.Since(dnsStart)
		},
		ConnectStart: func(_, _ string) {
			tcpStart = time.Now()
		},
		ConnectDone: func(_, _ string, _ error) {
			timing.TCPConnection = time.Since(tcpStart)
		},
		TLSHandshakeStart: func() {
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, _ error) {
			timing.TLSHandshake = time.Since(tlsStart)
		},
		GotFirstResponseByte: func() {
			firstByteTime = time.Now()
		},
	}

	finalize := func() {
		if !firstByteTime.IsZero() && !dnsStart.IsZero() {
			timing.TimeToFirstByte = firstByteTime.Sub(dnsStart)
		}
	}

	l.mu.Lock()
	if caseLog.internalMeta == nil {
		caseLog.internalMeta = make(map[string]interface{})
	}
	caseLog.internalMeta["_trace"] = trace
	caseLog.internalMeta["_timing"] = timing
	l.mu.Unlock()

	return timing, finalize
}

// GetTraceFromCase retrieves the httptrace.ClientTrace associated with a case log
func (l *Logger) GetTraceFromCase(caseLog *CaseLog) *httptrace.ClientTrace {
	if !l.enabled || caseLog == nil {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if caseLog.internalMeta == nil {
		return nil
	}
	if trace, ok := caseLog.internalMeta["_trace"].(*httptrace.ClientTrace); ok {
		return trace
	}
	return nil
}

// LogRequest records the case's extraction request
func (l *Logger) LogRequest(caseLog *CaseLog, method, url string, headers map[string]string, inputFile string, bodySize int, timing *TimingBreakdown) {
	if !l.enabled || caseLog == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	caseLog.Request = &RequestLog{
		Timestamp: time.Now(),
		Method:    method,
		URL:       url,
		Headers:   headers,
		InputFile: inputFile,
		BodySize:  bodySize,
		Timing:    timing,
	}
}

// LogResponse records the case's extraction response
func (l *Logger) LogResponse(caseLog *CaseLog, statusCode int, headers map[string]string, body string, duration time.Duration, timing *TimingBreakdown) {
	if !l.enabled || caseLog == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	caseLog.Response = &ResponseLog{
		Timestamp:   time.Now(),
		StatusCode:  statusCode,
		Headers:     headers,
		BodyPreview: truncateString(body, 1000),
		BodySize:    len(body),
		Duration:    duration,
		Timing:      timing,
	}

	if l.fullCapture {
		caseLog.Response.BodyFull = body
	}

	if timing != nil {
		timing.TotalDuration = duration
	}
}

// LogError records an error with context
func (l *Logger) LogError(caseLog *CaseLog, message, kind, context string) {
	if !l.enabled || caseLog == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	caseLog.Errors = append(caseLog.Errors, ErrorLog{
		Timestamp: time.Now(),
		Message:   message,
		Kind:      kind,
		Context:   context,
	})
}

// EndCase marks a case as complete
func (l *Logger) EndCase(caseLog *CaseLog) {
	if !l.enabled || caseLog == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	caseLog.EndTime = &now
	caseLog.Duration = now.Sub(caseLog.StartTime)
}

// Finalize completes the debug session and writes per-dataset log files
func (l *Logger) Finalize() error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.session.EndTime = &now

	debugDir := l.outputPath
	// #nosec G301 - debug output stays readable for the invoking user
	if err := os.MkdirAll(debugDir, 0750); err != nil {
		return fmt.Errorf("failed to create debug output directory: %w", err)
	}

	datasetNames := make([]string, 0, len(l.session.Datasets))
	for name := range l.session.Datasets {
		datasetNames = append(datasetNames, name)
	}

	sessionPath := filepath.Join(debugDir, "session.json")
	sessionData := map[string]interface{}{
		"start_time": l.session.StartTime,
		"end_time":   l.session.EndTime,
		"run_info":   l.session.RunInfo,
		"datasets":   datasetNames,
	}

	data, err := json.MarshalIndent(sessionData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	if err := os.WriteFile(sessionPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	for name, datasetLog := range l.session.Datasets {
		datasetPath := filepath.Join(debugDir, name+".json")
		data, err := json.MarshalIndent(datasetLog, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal debug data for %s: %w", name, err)
		}
		if err := os.WriteFile(datasetPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write debug file for %s: %w", name, err)
		}
	}

	return nil
}

// GetOutputPath returns the directory debug data is written to
func (l *Logger) GetOutputPath() string {
	return l.outputPath
}

// GetSessionPath returns the path to the session.json file
func (l *Logger) GetSessionPath() string {
	if !l.enabled {
		return ""
	}
	return filepath.Join(l.outputPath, "session.json")
}

// GetDatasetPath returns the path to a specific dataset's debug file
func (l *Logger) GetDatasetPath(datasetName string) string {
	if !l.enabled {
		return ""
	}
	return filepath.Join(l.outputPath, datasetName+".json")
}

// truncateString limits a string to a maximum length with ellipsis
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
