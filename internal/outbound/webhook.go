package outbound

import (
	"encoding/json"
	"fmt"
	"time"
)

const eventCallCompleted = "call.completed"

// Call statuses recorded in the call store.
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
)

// CallResult is the structured outcome the outbound assistant reports.
type CallResult struct {
	BookingConfirmed bool    `json:"booking_confirmed"`
	SelectedTime     *string `json:"selected_time"`
	Urgency          string  `json:"urgency"`
	Notes            string  `json:"notes"`
}

// DefaultResult is used when the provider sends no structured data.
func DefaultResult() CallResult {
	return CallResult{Urgency: "low"}
}

// CallRecord is the normalized view of an outbound call.
type CallRecord struct {
	ID           string      `json:"id"`
	BookingID    string      `json:"bookingId,omitempty"`
	PhoneNumber  string      `json:"phoneNumber"`
	CustomerName string      `json:"customerName"`
	Status       string      `json:"status"`
	Result       *CallResult `json:"result,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

type webhookPayload struct {
	Type string `json:"type"`
	Call struct {
		ID       string `json:"id"`
		Customer *struct {
			Number string `json:"number"`
		} `json:"customer"`
		Metadata *struct {
			BookingID    string `json:"bookingId"`
			CustomerName string `json:"customerName"`
		} `json:"metadata"`
		Analysis *struct {
			StructuredData json.RawMessage `json:"structuredData"`
			Summary        string          `json:"summary"`
		} `json:"analysis"`
	} `json:"call"`
}

// ParseWebhook normalizes a provider webhook. Events other than
// call.completed return (nil, nil). Missing or unreadable structured data
// falls back to DefaultResult; fields absent from it keep their defaults.
func ParseWebhook(body []byte, now time.Time) (*CallRecord, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if p.Type != eventCallCompleted {
		return nil, nil
	}

	result := DefaultResult()
	if p.Call.Analysis != nil && len(p.Call.Analysis.StructuredData) > 0 && string(p.Call.Analysis.StructuredData) != "null" {
		parsed := DefaultResult()
		if err := json.Unmarshal(p.Call.Analysis.StructuredData, &parsed); err == nil {
			result = parsed
		}
	}

	rec := &CallRecord{
		ID:           p.Call.ID,
		PhoneNumber:  "Unknown",
		CustomerName: "Client",
		Status:       StatusCompleted,
		Result:       &result,
		CreatedAt:    now.UTC(),
	}
	if p.Call.Customer != nil && p.Call.Customer.Number != "" {
		rec.PhoneNumber = p.Call.Customer.Number
	}
	if p.Call.Metadata != nil {
		rec.BookingID = p.Call.Metadata.BookingID
		if p.Call.Metadata.CustomerName != "" {
			rec.CustomerName = p.Call.Metadata.CustomerName
		}
	}
	return rec, nil
}

// webhookSummary returns the analysis summary text of a webhook, if any.
func webhookSummary(body []byte) string {
	var p webhookPayload
	if json.Unmarshal(body, &p) != nil || p.Call.Analysis == nil {
		return ""
	}
	return p.Call.Analysis.Summary
}
