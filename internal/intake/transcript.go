package intake

import (
	"strings"
	"time"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role Speaker   `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Transcript is the append-only dialogue so far. It is owned by the
// conversation; intake only reads copies.
type Transcript []Turn

// Clone returns an independent copy.
func (t Transcript) Clone() Transcript {
	return append(Transcript(nil), t...)
}

// Render formats the transcript as "role: text" lines for extraction prompts.
func (t Transcript) Render() string {
	var b strings.Builder
	for _, turn := range t {
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(turn.Text))
		b.WriteString("\n")
	}
	return b.String()
}

// Extraction is the structured reading of a transcript returned by the
// extraction oracle.
type Extraction struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	ServiceType       string `json:"service_type"`
	Description       string `json:"description"`
	Address           string `json:"address"`
	PreferredDateTime string `json:"preferred_date_time"`
	// IsComplete means all six fields were gathered and a summary was read
	// back to the customer.
	IsComplete bool `json:"isComplete"`
	// IsConfirmed means the customer explicitly agreed to that summary.
	IsConfirmed bool `json:"isConfirmed"`
}

// Ready reports whether the extraction authorizes a commit.
func (e Extraction) Ready() bool {
	return e.IsComplete && e.IsConfirmed
}

// Candidate converts the extraction into a ledger candidate.
func (e Extraction) Candidate(source string) bookings.Candidate {
	return bookings.Candidate{
		Name:              e.Name,
		Phone:             e.Phone,
		ServiceType:       e.ServiceType,
		Description:       e.Description,
		Address:           e.Address,
		PreferredDateTime: e.PreferredDateTime,
		Source:            source,
	}
}
