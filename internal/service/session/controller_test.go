package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pmorlen/chatgate/internal/model/chat"
	"github.com/pmorlen/chatgate/internal/service/conversation"
	"github.com/pmorlen/chatgate/internal/service/session"
	"github.com/pmorlen/chatgate/internal/transport"
)

func strPtr(s string) *string { return &s }

// fakeTransport scripts the backend exchange for controller tests.
type fakeTransport struct {
	reply transport.Reply
	err   error
	calls atomic.Int64

	// release, when set, blocks Send until closed.
	release chan struct{}
}

func (f *fakeTransport) Send(ctx context.Context, text string) (transport.Reply, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

func newController(backend session.Transport) (*session.Controller, *conversation.Service) {
	conversations := conversation.NewService()
	return session.NewController(conversations, backend), conversations
}

func TestSubmitTurnAppendsUserThenBot(t *testing.T) {
	backend := &fakeTransport{reply: transport.Reply{
		Response:    strPtr("hi"),
		ResponseLog: strPtr("trace1"),
	}}
	ctrl, conversations := newController(backend)

	turn, err := ctrl.SubmitTurn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SubmitTurn err: %v", err)
	}
	if turn.Failed {
		t.Fatal("unexpected failed turn")
	}

	messages := conversations.ActiveLog().Snapshot()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Sender != chat.SenderUser || messages[0].Text != "hello" {
		t.Fatalf("unexpected user message: %+v", messages[0])
	}
	if messages[1].Sender != chat.SenderBot || messages[1].Text != "hi" {
		t.Fatalf("unexpected bot message: %+v", messages[1])
	}
	if messages[1].Trace != "trace1" {
		t.Fatalf("expected trace1, got %q", messages[1].Trace)
	}
	if messages[0].ID >= messages[1].ID {
		t.Fatal("user message id must precede bot message id")
	}
}

func TestSubmitTurnSubstitutesPlaceholders(t *testing.T) {
	backend := &fakeTransport{reply: transport.Reply{}}
	ctrl, _ := newController(backend)

	turn, err := ctrl.SubmitTurn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SubmitTurn err: %v", err)
	}

	if turn.Reply.Text != "[No response]" {
		t.Fatalf("expected [No response], got %q", turn.Reply.Text)
	}
	if turn.Reply.Trace != "[No log]" {
		t.Fatalf("expected [No log], got %q", turn.Reply.Trace)
	}
}

func TestSubmitTurnPartialReply(t *testing.T) {
	backend := &fakeTransport{reply: transport.Reply{Response: strPtr("only text")}}
	ctrl, _ := newController(backend)

	turn, err := ctrl.SubmitTurn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SubmitTurn err: %v", err)
	}
	if turn.Reply.Text != "only text" {
		t.Fatalf("unexpected reply text %q", turn.Reply.Text)
	}
	if turn.Reply.Trace != "[No log]" {
		t.Fatalf("expected [No log], got %q", turn.Reply.Trace)
	}
}

func TestSubmitTurnTransportFailure(t *testing.T) {
	backend := &fakeTransport{err: &transport.Error{Op: "send", Err: errors.New("connection refused")}}
	ctrl, conversations := newController(backend)

	turn, err := ctrl.SubmitTurn(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SubmitTurn err: %v", err)
	}
	if !turn.Failed {
		t.Fatal("expected failed turn")
	}

	messages := conversations.ActiveLog().Snapshot()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[1].Sender != chat.SenderError {
		t.Fatalf("expected error-sender message, got %s", messages[1].Sender)
	}
	for _, msg := range messages {
		if msg.Sender == chat.SenderBot {
			t.Fatal("no bot message may be appended on transport failure")
		}
	}
}

func TestSubmitTurnEmptyInput(t *testing.T) {
	backend := &fakeTransport{}
	ctrl, conversations := newController(backend)

	for _, input := range []string{"", "   ", "\n\t "} {
		if _, err := ctrl.SubmitTurn(context.Background(), input); !errors.Is(err, session.ErrEmptyInput) {
			t.Fatalf("input %q: expected ErrEmptyInput, got %v", input, err)
		}
	}

	if conversations.ActiveLog().Len() != 0 {
		t.Fatal("empty input must not append messages")
	}
	if backend.calls.Load() != 0 {
		t.Fatal("empty input must not reach the transport")
	}
}

func TestSubmitTurnRejectsWhilePending(t *testing.T) {
	backend := &fakeTransport{
		reply:   transport.Reply{Response: strPtr("done")},
		release: make(chan struct{}),
	}
	ctrl, conversations := newController(backend)

	firstDone := make(chan session.Turn, 1)
	go func() {
		turn, err := ctrl.SubmitTurn(context.Background(), "first")
		if err != nil {
			t.Errorf("first SubmitTurn err: %v", err)
		}
		firstDone <- turn
	}()

	// Wait until the first turn is in flight.
	deadline := time.After(2 * time.Second)
	for backend.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first turn never reached the transport")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := ctrl.SubmitTurn(context.Background(), "second"); !errors.Is(err, session.ErrTurnPending) {
		t.Fatalf("expected ErrTurnPending, got %v", err)
	}

	close(backend.release)
	<-firstDone

	// Only the first turn's messages may be present; the rejected
	// submission appended nothing.
	messages := conversations.ActiveLog().Snapshot()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages after first turn, got %d", len(messages))
	}
	if messages[0].Text != "first" {
		t.Fatalf("unexpected first message %q", messages[0].Text)
	}

	// The controller accepts a new turn once the previous one resolved.
	if _, err := ctrl.SubmitTurn(context.Background(), "third"); err != nil {
		t.Fatalf("SubmitTurn after resolve err: %v", err)
	}
}

func TestSubmitTurnIDsUniqueAcrossTurns(t *testing.T) {
	backend := &fakeTransport{reply: transport.Reply{Response: strPtr("ok")}}
	ctrl, conversations := newController(backend)

	for i := 0; i < 10; i++ {
		if _, err := ctrl.SubmitTurn(context.Background(), "ping"); err != nil {
			t.Fatalf("SubmitTurn err: %v", err)
		}
	}

	seen := make(map[int64]bool)
	for _, msg := range conversations.ActiveLog().Snapshot() {
		if seen[msg.ID] {
			t.Fatalf("duplicate message id %d", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestSubmitTurnPinsLogAcrossSessionSwitch(t *testing.T) {
	backend := &fakeTransport{
		reply:   transport.Reply{Response: strPtr("late reply")},
		release: make(chan struct{}),
	}
	ctrl, conversations := newController(backend)
	original := conversations.ActiveID()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := ctrl.SubmitTurn(context.Background(), "question"); err != nil {
			t.Errorf("SubmitTurn err: %v", err)
		}
	}()

	deadline := time.After(2 * time.Second)
	for backend.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("turn never reached the transport")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	other := conversations.CreateSession()
	if err := conversations.SwitchSession(other.ID); err != nil {
		t.Fatalf("SwitchSession err: %v", err)
	}

	close(backend.release)
	<-done

	originalLog, err := conversations.Log(original)
	if err != nil {
		t.Fatalf("Log err: %v", err)
	}
	if originalLog.Len() != 2 {
		t.Fatalf("expected both turn messages in the original log, got %d", originalLog.Len())
	}
	if conversations.ActiveLog().Len() != 0 {
		t.Fatal("switched-to session must stay untouched by the in-flight turn")
	}
}
