package emails

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/amy-emails/internal/domain/entity"
)

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Messages collects user-facing notices produced while handling one request.
type Messages struct {
	mu    sync.Mutex
	items []Message
}

func (m *Messages) add(level, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, Message{Level: level, Text: text})
}

func (m *Messages) All() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.items))
	copy(out, m.items)
	return out
}

// Request carries the caller of a strategy run through the signal
// receivers.
type Request struct {
	Author           *entity.Person
	Logger           logrus.FieldLogger
	Messages         *Messages
	SuppressMessages bool
	DryRun           bool
}

func NewRequest(author *entity.Person, logger logrus.FieldLogger) *Request {
	return &Request{Author: author, Logger: logger, Messages: &Messages{}}
}

func (r *Request) log() logrus.FieldLogger {
	if r == nil || r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

func (r *Request) AuthorID() *int64 {
	if r == nil || r.Author == nil || r.Author.ID == 0 {
		return nil
	}
	id := r.Author.ID
	return &id
}

func (r *Request) Info(text string) {
	if r == nil || r.SuppressMessages || r.Messages == nil {
		return
	}
	r.Messages.add(LevelInfo, text)
}

func (r *Request) Warning(text string) {
	if r == nil || r.SuppressMessages || r.Messages == nil {
		return
	}
	r.Messages.add(LevelWarning, text)
}
