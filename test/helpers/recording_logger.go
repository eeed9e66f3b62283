package helpers

import (
	"strings"
	"sync"
)

// LogLine is one captured log call
type LogLine struct {
	Level    string
	Message  string
	Metadata map[string]interface{}
}

// RecordingLogger captures log calls for assertions
type RecordingLogger struct {
	mu    sync.Mutex
	lines []LogLine
}

// NewRecordingLogger creates an empty recorder
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) Log(level, message string, metadata map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, LogLine{Level: level, Message: message, Metadata: metadata})
}

// Lines returns every captured line
func (l *RecordingLogger) Lines() []LogLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogLine(nil), l.lines...)
}

// Contains reports whether any line at level mentions substr
func (l *RecordingLogger) Contains(level, substr string) bool {
	for _, line := range l.Lines() {
		if line.Level == level && strings.Contains(line.Message, substr) {
			return true
		}
	}
	return false
}
