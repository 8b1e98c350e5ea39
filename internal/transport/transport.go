// Package transport delivers statement messages with document attachments.
package transport

import "context"

// Message is one outbound delivery: subject, plain-text body and zero or
// more local attachment paths.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []string
}

// Sender is the message transport consumed by the delivery pass. The real
// transport is an external collaborator; SMTPSender is the local
// implementation and RecordingSender the test double.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
