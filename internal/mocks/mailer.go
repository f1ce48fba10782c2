// internal/mocks/mailer.go
package mocks

import (
	"sync"

	"github.com/disciplo/disciplo/internal/app/system/mailer"
)

// FakeMailer implements mailer.Sender for tests. It records every email
// and can be told to fail.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []mailer.Email
	Err  error // returned by every Send when non-nil
}

// NewFakeMailer returns an empty fake mailer.
func NewFakeMailer() *FakeMailer {
	return &FakeMailer{}
}

func (f *FakeMailer) Send(e mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, e)
	return f.Err
}

// SentTo returns the recorded emails addressed to one recipient.
func (f *FakeMailer) SentTo(addr string) []mailer.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []mailer.Email
	for _, e := range f.Sent {
		if e.To == addr {
			out = append(out, e)
		}
	}
	return out
}
