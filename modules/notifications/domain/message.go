package domain

// Address is a mail recipient.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Message is a rendered notification handed to the mail queue.
type Message struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	RuleID      string            `json:"rule_id"`
	Template    string            `json:"template"`
	Recipients  []Address         `json:"recipients"`
	Locale      string            `json:"locale"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body,omitempty"`
	HTMLBody    string            `json:"html_body,omitempty"`
	Attachments map[string][]byte `json:"attachments,omitempty"`
}
