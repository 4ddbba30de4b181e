package email

import (
	"context"
	"sync"
)

type Message struct {
	From      Address
	Recipient Address
	Subject   string
	Body      string
}

// MemorySender keeps every email it is asked to send. Set Err to make Send fail.
type MemorySender struct {
	mu     sync.Mutex
	emails []Message

	Err error
}

func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

func (s *MemorySender) Send(_ context.Context, from, recipient Address, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.emails = append(s.emails, Message{
		From:      from,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
	return nil
}

func (s *MemorySender) Emails() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.emails...)
}

// Last returns the most recent email, if any.
func (s *MemorySender) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.emails) == 0 {
		return Message{}, false
	}
	return s.emails[len(s.emails)-1], true
}
