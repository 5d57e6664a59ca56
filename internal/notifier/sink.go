package notifier

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// LogSink writes notifications to a zap logger. It is always permitted.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Permitted() bool { return s.Logger != nil }

func (s LogSink) Deliver(n Notification) error {
	s.Logger.Info("notification",
		zap.String("category", string(n.Category)),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("tag", n.Tag))
	return nil
}

// WriterSink prints notifications as single lines, optionally ringing the
// terminal bell. Disabled sinks report no permission.
type WriterSink struct {
	mu      sync.Mutex
	w       io.Writer
	bell    bool
	enabled bool
	format  func(Notification) string
}

// NewWriterSink creates an enabled sink writing to w. A nil format prints
// "title: body".
func NewWriterSink(w io.Writer, bell bool, format func(Notification) string) *WriterSink {
	if format == nil {
		format = func(n Notification) string { return n.Title + ": " + n.Body }
	}
	return &WriterSink{w: w, bell: bell, enabled: w != nil, format: format}
}

// SetEnabled toggles delivery.
func (s *WriterSink) SetEnabled(on bool) {
	s.mu.Lock()
	s.enabled = on && s.w != nil
	s.mu.Unlock()
}

func (s *WriterSink) Permitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *WriterSink) Deliver(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.format(n)
	if s.bell {
		line = "\a" + line
	}
	_, err := fmt.Fprintln(s.w, line)
	return err
}
