package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/bookly-de/customer_portal/internal/logging"
)

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, Message) error { return errors.New("broker down") }

func TestRecorderLast(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()
	_ = rec.Send(ctx, Message{Destination: "+491", Body: "111111"})
	_ = rec.Send(ctx, Message{Destination: "+492", Body: "222222"})
	_ = rec.Send(ctx, Message{Destination: "+491", Body: "333333"})

	msg, ok := rec.Last("+491")
	if !ok || msg.Body != "333333" {
		t.Fatalf("expected newest message, got %+v ok=%v", msg, ok)
	}
	if _, ok := rec.Last("+499"); ok {
		t.Fatal("expected no message for unknown destination")
	}
	if len(rec.Messages()) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(rec.Messages()))
	}
}

func TestFanoutDeliversToAll(t *testing.T) {
	rec := NewRecorder()
	fan := Fanout{failingNotifier{}, NewLoggerNotifier(logging.Discard()), rec}

	err := fan.Send(context.Background(), Message{Kind: KindVerificationCode, Destination: "+491", Body: "123456"})
	if err == nil {
		t.Fatal("expected first error to be reported")
	}
	if _, ok := rec.Last("+491"); !ok {
		t.Fatal("later notifiers must still receive the message")
	}
}
