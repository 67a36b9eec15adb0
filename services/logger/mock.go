package logsvc

import (
	"sync"

	"github.com/grecko-app/grecko/core"
)

// LogEntry is one message captured by MockLogger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// MockLogger keeps logged messages in memory for tests.
type MockLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return new(MockLogger)
}

func (l *MockLogger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

// Entries returns the captured messages of the given level, or all of them.
func (l *MockLogger) Entries(level ...string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	res := make([]LogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if len(level) == 0 || e.Level == level[0] {
			res = append(res, e)
		}
	}
	return res
}

func (l *MockLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *MockLogger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *MockLogger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *MockLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *MockLogger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }
