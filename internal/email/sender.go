// Package email sends transactional mail. The Resend HTTP API is the only
// implementation; coordinators talk to the Sender interface and the
// Notifier wrapper, which never blocks or fails the calling mutation.
package email

import "context"

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message. Implementations return an error only for the
// caller to log; notification mail is always best-effort.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
