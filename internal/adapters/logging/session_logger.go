package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrescamacho/gatherbot-go/internal/adapters/persistence"
	"github.com/andrescamacho/gatherbot-go/internal/domain/shared"
	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/config"
)

const recentCapacity = 500

// Entry is one log line kept in memory
type Entry struct {
	Timestamp time.Time
	SessionID string
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// SessionLogger implements common.Logger. Lines go to an slog handler (text or
// json) and, when a repository is attached, are persisted against the current
// gathering session without blocking the caller.
type SessionLogger struct {
	out     *slog.Logger
	closer  io.Closer
	minimum slog.Level
	repo    persistence.SessionLogRepository
	clock   shared.Clock

	sessionSource atomic.Pointer[func() string]

	mu     sync.Mutex
	recent []Entry
	next   int
	filled bool

	pending sync.WaitGroup
}

// NewSessionLogger builds a logger from the logging config. repo may be nil.
func NewSessionLogger(cfg config.LoggingConfig, repo persistence.SessionLogRepository, clock shared.Clock) (*SessionLogger, error) {
	if clock == nil {
		clock = shared.NewRealClock()
	}

	var w io.Writer
	var closer io.Closer
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w, closer = f, f
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}

	if !cfg.Persist {
		repo = nil
	}
	return NewSessionLoggerTo(w, cfg.Format, cfg.Level, repo, clock, closer), nil
}

// NewSessionLoggerTo writes to w. closer, if set, is closed by Close.
func NewSessionLoggerTo(w io.Writer, format, level string, repo persistence.SessionLogRepository, clock shared.Clock, closer io.Closer) *SessionLogger {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	minimum := parseLevel(level)
	opts := &slog.HandlerOptions{Level: minimum}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &SessionLogger{
		out:     slog.New(handler),
		closer:  closer,
		minimum: minimum,
		repo:    repo,
		clock:   clock,
		recent:  make([]Entry, recentCapacity),
	}
}

// SetSessionSource tells the logger how to find the session a line belongs to
// when the line itself carries no session_id
func (l *SessionLogger) SetSessionSource(fn func() string) {
	l.sessionSource.Store(&fn)
}

// Log implements common.Logger
func (l *SessionLogger) Log(level, message string, metadata map[string]interface{}) {
	slogLevel := parseLevel(level)
	if slogLevel < l.minimum {
		return
	}

	entry := Entry{
		Timestamp: l.clock.Now(),
		SessionID: l.sessionOf(metadata),
		Level:     normalizeLevel(level),
		Message:   message,
		Metadata:  metadata,
	}

	l.out.LogAttrs(context.Background(), slogLevel, message, attrsOf(entry)...)
	l.remember(entry)

	if l.repo == nil || entry.SessionID == "" {
		return
	}
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.repo.Log(ctx, entry.SessionID, entry.Message, entry.Level, entry.Metadata); err != nil {
			l.out.Error("Failed to persist session log", slog.String("session_id", entry.SessionID), slog.String("error", err.Error()))
		}
	}()
}

// Recent returns up to limit in-memory lines, oldest first, optionally for one session
func (l *SessionLogger) Recent(sessionID string, limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	ordered := make([]Entry, 0, recentCapacity)
	if l.filled {
		ordered = append(ordered, l.recent[l.next:]...)
	}
	ordered = append(ordered, l.recent[:l.next]...)

	out := make([]Entry, 0, len(ordered))
	for _, e := range ordered {
		if sessionID == "" || e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// GetLogs answers from the in-memory buffer, newest first, in the shape of the
// session log repository. Used when logs are not persisted.
func (l *SessionLogger) GetLogs(ctx context.Context, sessionID string, limit int, level *string, since *time.Time) ([]persistence.SessionLogEntry, error) {
	lines := l.Recent(sessionID, 0)
	out := make([]persistence.SessionLogEntry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		e := lines[i]
		if level != nil && e.Level != normalizeLevel(*level) {
			continue
		}
		if since != nil && !e.Timestamp.After(*since) {
			continue
		}
		out = append(out, persistence.SessionLogEntry{
			SessionID: e.SessionID,
			Timestamp: e.Timestamp,
			Level:     e.Level,
			Message:   e.Message,
			Metadata:  e.Metadata,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close waits for pending writes and closes the log file, if any
func (l *SessionLogger) Close() error {
	l.pending.Wait()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *SessionLogger) remember(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recent[l.next] = e
	l.next = (l.next + 1) % len(l.recent)
	if l.next == 0 {
		l.filled = true
	}
}

func (l *SessionLogger) sessionOf(metadata map[string]interface{}) string {
	if id, ok := metadata["session_id"].(string); ok && id != "" {
		return id
	}
	if fn := l.sessionSource.Load(); fn != nil {
		return (*fn)()
	}
	return ""
}

func attrsOf(e Entry) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(e.Metadata)+1)
	if e.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", e.SessionID))
	}
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		if k != "session_id" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, e.Metadata[k]))
	}
	return attrs
}

// parseLevel accepts both the orchestrator's level names and config values
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func normalizeLevel(level string) string {
	switch parseLevel(level) {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelWarn:
		return "WARNING"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
