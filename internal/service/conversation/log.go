package conversation

import (
	"sync"
	"time"

	"github.com/pmorlen/chatgate/internal/model/chat"
)

// Log is one ordered, append-only message sequence. It owns the id
// counter for its messages, so ids are unique and increasing even for
// appends within the same instant.
type Log struct {
	mu       sync.RWMutex
	nextID   int64
	messages []chat.Message

	// notify fans appended messages out to registry subscribers.
	notify func(chat.Message)
}

func newLog(notify func(chat.Message)) *Log {
	return &Log{
		nextID:   1,
		messages: make([]chat.Message, 0, 16),
		notify:   notify,
	}
}

// Append adds one message to the end of the log and returns it with its
// assigned id. Existing entries are never mutated, dropped or reordered.
func (l *Log) Append(sender chat.Sender, text, trace string) chat.Message {
	l.mu.Lock()
	message := chat.Message{
		ID:        l.nextID,
		Text:      text,
		Sender:    sender,
		Trace:     trace,
		CreatedAt: time.Now().UTC(),
	}
	l.nextID++
	l.messages = append(l.messages, message)
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify(message)
	}
	return message
}

// Snapshot returns a copy of the current message sequence in append
// order. Callers may hold it across further appends.
func (l *Log) Snapshot() []chat.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	copied := make([]chat.Message, len(l.messages))
	copy(copied, l.messages)
	return copied
}

// Len reports the number of appended messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
