package storage

import (
	"encoding/json"
	"time"
)

// Message is one journal entry: a committed event of the node. ID and Offset
// are assigned by the backend on Send.
type Message struct {
	ID         string          `json:"id"`
	Offset     uint64          `json:"offset"`
	Event      string          `json:"event"`
	Data       json.RawMessage `json:"data"`
	SenderAddr string          `json:"sender"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Storage interface {
	Send(messages ...Message) error
	GetMessages(offset uint64) ([]Message, error)
	Close() error
}
