package gmail

import (
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// Defaults used when a message lacks the header.
const (
	DefaultSubject = "No Subject"
	DefaultSender  = "Unknown Sender"
)

// MessageSummary is the subset of a message that classification looks at.
type MessageSummary struct {
	ID      string
	Subject string
	Sender  string
}

// SummaryFromMessage extracts the Subject and From headers from a message
// fetched in metadata format.
func SummaryFromMessage(m *gmail.Message) MessageSummary {
	s := MessageSummary{
		ID:      m.Id,
		Subject: HeaderValue(m, "Subject"),
		Sender:  HeaderValue(m, "From"),
	}
	if s.Subject == "" {
		s.Subject = DefaultSubject
	}
	if s.Sender == "" {
		s.Sender = DefaultSender
	}
	return s
}

// HeaderValue extracts a header value from a Gmail message.
// Header names are matched case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	mpart := m.Payload
	if mpart == nil {
		return ""
	}
	for _, mph := range mpart.Headers {
		if strings.EqualFold(mph.Name, header) {
			return mph.Value
		}
	}
	return ""
}
