package notification

import (
	"context"
	"log/slog"
	"sync"
)

const (
	// KindVerificationCode carries a phone verification code.
	KindVerificationCode = "verification_code"
)

// Message describes a notification payload.
type Message struct {
	Kind        string `json:"kind"`
	Destination string `json:"destination"`
	Body        string `json:"body"`
	Lang        string `json:"lang,omitempty"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	)
	return nil
}

// Recorder keeps every message in memory. Local development and tests read
// verification codes from it.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send records message.
func (r *Recorder) Send(_ context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return nil
}

// Messages returns a copy of everything recorded.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the newest message sent to destination.
func (r *Recorder) Last(destination string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Destination == destination {
			return r.messages[i], true
		}
	}
	return Message{}, false
}

// Fanout sends to every notifier and returns the first error.
type Fanout []Notifier

// Send delivers message to each notifier in order.
func (f Fanout) Send(ctx context.Context, message Message) error {
	var first error
	for _, n := range f {
		if err := n.Send(ctx, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
