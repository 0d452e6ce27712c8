package chat

import "time"

// Session names one conversation log. Sessions live only for the process
// lifetime; nothing is persisted.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
