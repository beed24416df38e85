package bookings

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
)

// Candidate is a proposed booking as it arrives from intake channels (AI
// extraction, admin form, CSV import). Fields may be missing or shaped
// loosely; Create normalizes them.
type Candidate struct {
	Name              string        `json:"name"`
	Phone             string        `json:"phone"`
	Email             string        `json:"email,omitempty"`
	ServiceType       string        `json:"service_type"`
	SystemType        string        `json:"system_type,omitempty"`
	TeamType          string        `json:"team_type,omitempty"`
	Description       string        `json:"description"`
	Address           string        `json:"address,omitempty"`
	Suburb            string        `json:"suburb,omitempty"`
	Location          LocationInput `json:"location,omitempty"`
	PreferredDateTime string        `json:"preferred_date_time"`
	AssignedStaffIDs  []string      `json:"assignedStaffIds,omitempty"`
	Notes             []string      `json:"notes,omitempty"`
	EstimatedCost     string        `json:"estimatedCost,omitempty"`
	LineItems         []LineItem    `json:"lineItems,omitempty"`
	Payments          []Payment     `json:"payments,omitempty"`
	LaborHours        float64       `json:"laborHours,omitempty"`
	EquipmentUsed     []string      `json:"equipmentUsed,omitempty"`
	Source            string        `json:"-"`
}

// LocationInput accepts either a {"address","suburb"} object or a bare
// string address.
type LocationInput struct {
	Address string
	Suburb  string
	Text    string
}

func (l *LocationInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = LocationInput{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*l = LocationInput{Text: text}
		return nil
	}
	var obj struct {
		Address string `json:"address"`
		Suburb  string `json:"suburb"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// Unknown shapes carry no usable address.
		*l = LocationInput{}
		return nil
	}
	*l = LocationInput{Address: obj.Address, Suburb: obj.Suburb}
	return nil
}

func (l LocationInput) MarshalJSON() ([]byte, error) {
	if l.Text != "" && l.Address == "" {
		return json.Marshal(l.Text)
	}
	return json.Marshal(struct {
		Address string `json:"address"`
		Suburb  string `json:"suburb"`
	}{l.Address, l.Suburb})
}

// ResolveLocation picks the job site address with precedence: explicit
// address field, then nested location address, then a string location.
func ResolveLocation(c Candidate) Location {
	address := firstNonEmpty(c.Address, c.Location.Address, c.Location.Text)
	suburb := firstNonEmpty(c.Suburb, c.Location.Suburb)
	return Location{
		Address: strings.TrimSpace(address),
		Suburb:  strings.TrimSpace(suburb),
	}
}

// ResolveTeam uses an explicit team when it names a known team, otherwise
// infers Installation from the service type text and defaults to Repair.
func ResolveTeam(c Candidate) roster.TeamType {
	if team, ok := roster.ParseTeamType(c.TeamType); ok {
		return team
	}
	if strings.Contains(strings.ToLower(c.ServiceType), "installation") {
		return roster.TeamInstallation
	}
	return roster.TeamRepair
}

// ResolveSlot normalizes the preferred date/time. Values that do not parse,
// including an empty one, are kept verbatim as opaque slot tokens.
func ResolveSlot(raw string) schedule.Slot {
	raw = strings.TrimSpace(raw)
	if slot, err := schedule.ParseSlot(raw); err == nil {
		return slot
	}
	return schedule.Slot(raw)
}

// IsDuplicate reports whether existing already represents the same
// appointment as the given name, address and slot.
func IsDuplicate(existing *Booking, name, address string, slot schedule.Slot) bool {
	if existing.Status == StatusCancelled {
		return false
	}
	return sameText(existing.Name, name) &&
		sameText(existing.Location.Address, address) &&
		existing.PreferredDateTime == slot
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
