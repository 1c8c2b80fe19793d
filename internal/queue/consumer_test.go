package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"GeetaSaathi/internal/model"
	"GeetaSaathi/pkg/errors"
)

type fakeWelcome struct {
	marked    map[string]string
	sent      []string
	sendErr   error
	markErr   error
	unmarkHit int
}

func newFakeWelcome() *fakeWelcome {
	return &fakeWelcome{marked: make(map[string]string)}
}

func (f *fakeWelcome) deps() welcomeDeps {
	return welcomeDeps{
		tryMark: func(_ context.Context, id string, _ time.Duration) (bool, error) {
			if f.markErr != nil {
				return false, f.markErr
			}
			if _, ok := f.marked[id]; ok {
				return false, nil
			}
			f.marked[id] = "processing"
			return true, nil
		},
		unmark: func(_ context.Context, id string) error {
			f.unmarkHit++
			delete(f.marked, id)
			return nil
		},
		markDone: func(_ context.Context, id string, _ time.Duration) error {
			f.marked[id] = "completed"
			return nil
		},
		decrypt: func(raw []byte) (string, error) {
			return string(raw), nil
		},
		send: func(_ context.Context, phone, language, firstName string) error {
			if f.sendErr != nil {
				return f.sendErr
			}
			f.sent = append(f.sent, phone+"|"+language+"|"+firstName)
			return nil
		},
	}
}

func encodeMessage(t *testing.T, msg model.OnboardingCompletedMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func validMessage() model.OnboardingCompletedMessage {
	return model.OnboardingCompletedMessage{
		MessageID:         "onboarding_1",
		SessionID:         "sid",
		UserID:            "42",
		PhoneCipherBase64: base64.StdEncoding.EncodeToString([]byte("+919876543210")),
		FirstName:         "Arun",
		Language:          "hi",
	}
}

func isSkip(err error) bool {
	var skip *errors.SkipMessageError
	return stderrors.As(err, &skip)
}

func TestWelcomeHandlerSendsOnce(t *testing.T) {
	f := newFakeWelcome()
	handler := newWelcomeHandler(f.deps())
	body := encodeMessage(t, validMessage())

	if err := handler(context.Background(), body); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if len(f.sent) != 1 || f.sent[0] != "+919876543210|hi|Arun" {
		t.Fatalf("sent = %v", f.sent)
	}
	if f.marked["onboarding_1"] != "completed" {
		t.Fatalf("mark = %q, want completed", f.marked["onboarding_1"])
	}

	if err := handler(context.Background(), body); !isSkip(err) {
		t.Fatalf("duplicate delivery should be skipped, got %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("duplicate delivery sent again: %v", f.sent)
	}
}

func TestWelcomeHandlerSkipsMalformed(t *testing.T) {
	f := newFakeWelcome()
	handler := newWelcomeHandler(f.deps())

	if err := handler(context.Background(), []byte("{not json")); !isSkip(err) {
		t.Fatalf("malformed body: got %v", err)
	}

	msg := validMessage()
	msg.PhoneCipherBase64 = "***"
	if err := handler(context.Background(), encodeMessage(t, msg)); !isSkip(err) {
		t.Fatalf("bad base64: got %v", err)
	}

	msg = validMessage()
	msg.MessageID = ""
	if err := handler(context.Background(), encodeMessage(t, msg)); !isSkip(err) {
		t.Fatalf("missing id: got %v", err)
	}
	if len(f.sent) != 0 {
		t.Fatalf("nothing should be sent, got %v", f.sent)
	}
}

func TestWelcomeHandlerRequeuesOnSendFailure(t *testing.T) {
	f := newFakeWelcome()
	f.sendErr = stderrors.New("provider down")
	handler := newWelcomeHandler(f.deps())
	body := encodeMessage(t, validMessage())

	err := handler(context.Background(), body)
	if err == nil || isSkip(err) {
		t.Fatalf("send failure should be retried, got %v", err)
	}
	if f.unmarkHit != 1 {
		t.Fatalf("unmark calls = %d, want 1", f.unmarkHit)
	}

	f.sendErr = nil
	if err := handler(context.Background(), body); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sent = %v", f.sent)
	}
}

func TestWelcomeHandlerProceedsWhenDedupeUnavailable(t *testing.T) {
	f := newFakeWelcome()
	f.markErr = stderrors.New("redis down")
	handler := newWelcomeHandler(f.deps())

	if err := handler(context.Background(), encodeMessage(t, validMessage())); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sent = %v", f.sent)
	}
}
