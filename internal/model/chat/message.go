package chat

import "time"

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderBot   Sender = "bot"
	SenderError Sender = "error"
)

// Message is one entry in the ordered conversation log. IDs are assigned
// by the owning log and increase monotonically within it.
type Message struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Trace     string    `json:"trace,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
