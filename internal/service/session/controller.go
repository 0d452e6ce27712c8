package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/pmorlen/chatgate/internal/model/chat"
	"github.com/pmorlen/chatgate/internal/service/conversation"
	"github.com/pmorlen/chatgate/internal/transport"
)

var (
	// ErrEmptyInput rejects blank submissions; no turn is created.
	ErrEmptyInput = errors.New("empty input")
	// ErrTurnPending rejects a submission while another turn is in flight.
	ErrTurnPending = errors.New("a turn is already pending")
)

// Placeholders substituted when the backend reply lacks a field.
const (
	placeholderResponse = "[No response]"
	placeholderTrace    = "[No log]"
)

// Transport performs one exchange with the inference backend.
type Transport interface {
	Send(ctx context.Context, text string) (transport.Reply, error)
}

// Turn is the outcome of one submission: the appended user message and
// the bot reply, or an error-sender message when the exchange failed.
type Turn struct {
	User   chat.Message `json:"user"`
	Reply  chat.Message `json:"reply"`
	Failed bool         `json:"failed"`
}

// Messages returns the turn's appended messages in log order.
func (t Turn) Messages() []chat.Message {
	return []chat.Message{t.User, t.Reply}
}

// Controller orchestrates one conversation turn at a time: append the
// user message, run the transport exchange, merge the reply back into
// the log. It is the only writer of conversation state.
type Controller struct {
	mu      sync.Mutex
	pending bool

	conversations *conversation.Service
	backend       Transport
}

// NewController wires the controller to the registry and backend client.
func NewController(conversations *conversation.Service, backend Transport) *Controller {
	return &Controller{
		conversations: conversations,
		backend:       backend,
	}
}

// Pending reports whether a turn is currently in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// SubmitTurn runs one full turn. Blank input is a no-op returning
// ErrEmptyInput. While a turn is in flight further submissions return
// ErrTurnPending; they are never interleaved with the pending merge.
// A transport failure does not return an error: the turn completes in
// the failed state with an error-sender message in the log.
func (c *Controller) SubmitTurn(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return Turn{}, ErrTurnPending
	}
	c.pending = true
	// Pin the log at submit time so a mid-flight session switch cannot
	// split the turn across logs.
	conv := c.conversations.ActiveLog()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
	}()

	user := conv.Append(chat.SenderUser, text, "")

	reply, err := c.backend.Send(ctx, text)
	if err != nil {
		log.Printf("[turn] transport exchange failed: %v", err)
		failure := conv.Append(chat.SenderError, fmt.Sprintf("Request failed: %v", err), "")
		return Turn{User: user, Reply: failure, Failed: true}, nil
	}

	response := placeholderResponse
	if reply.Response != nil {
		response = *reply.Response
	}
	trace := placeholderTrace
	if reply.ResponseLog != nil {
		trace = *reply.ResponseLog
	}

	bot := conv.Append(chat.SenderBot, response, trace)
	return Turn{User: user, Reply: bot}, nil
}
