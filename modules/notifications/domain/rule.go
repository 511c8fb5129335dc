// Package domain contains notification rules: which message goes to whom
// when an order reaches a status.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Attachment is a file sent with the message under its original filename.
// Ref locates the content in the attachment store.
type Attachment struct {
	Filename string
	Ref      string
}

// Rule maps a transition target status to a recipient and a template.
// Several rules may match the same target; each is dispatched on its own.
type Rule struct {
	ID               string
	Name             string
	TransitionTarget string
	Notify           Notify
	// Recipient is the staff member ID for the recipient selector.
	Recipient   string
	Template    MailTemplate
	Attachments []Attachment
}

// NewRule validates a rule and assigns it an ID.
func NewRule(name, target string, notify Notify, recipient string, tmpl MailTemplate, attachments []Attachment) (Rule, error) {
	r := Rule{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(name),
		TransitionTarget: strings.TrimSpace(target),
		Notify:           notify,
		Recipient:        strings.TrimSpace(recipient),
		Template:         tmpl,
		Attachments:      attachments,
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func (r Rule) Validate() error {
	if r.TransitionTarget == "" {
		return ErrTargetRequired
	}
	if _, err := ParseNotify(r.Notify.String()); err != nil {
		return err
	}
	if r.Notify == NotifyRecipient && r.Recipient == "" {
		return ErrRecipientRequired
	}
	if err := r.Template.validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(r.Attachments))
	for _, a := range r.Attachments {
		if a.Filename == "" || a.Ref == "" {
			return ErrInvalidAttachment
		}
		if _, ok := seen[a.Filename]; ok {
			return ErrDuplicateFilename
		}
		seen[a.Filename] = struct{}{}
	}
	return nil
}
