package bookings

import (
	"github.com/wolfman30/arcticflow-dispatch/internal/roster"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
)

// JobStatus is a booking's lifecycle state.
type JobStatus string

const (
	StatusNew        JobStatus = "New"
	StatusConfirmed  JobStatus = "Confirmed"
	StatusAssigned   JobStatus = "Assigned"
	StatusInProgress JobStatus = "In Progress"
	StatusCompleted  JobStatus = "Completed"
	StatusCancelled  JobStatus = "Cancelled"
)

// Staffed reports whether a booking in this status must carry an assignment.
func (s JobStatus) Staffed() bool {
	return s == StatusAssigned || s == StatusInProgress || s == StatusCompleted
}

const (
	DefaultServiceType = "Repair / Maintenance"
	defaultName        = "Unknown Client"
	defaultPhone       = "N/A"
	defaultDescription = "No description provided."
)

// Location is the canonical job site.
type Location struct {
	Address string   `json:"address"`
	Suburb  string   `json:"suburb"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// LineOrigin tags line items synthesized by the charge commit.
type LineOrigin string

const (
	OriginManual    LineOrigin = "manual"
	OriginLabor     LineOrigin = "labor"
	OriginEquipment LineOrigin = "equipment"
	OriginTax       LineOrigin = "tax"
)

type LineItem struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	Origin      LineOrigin `json:"origin,omitempty"`
}

type Payment struct {
	ID         string  `json:"id"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Method     string  `json:"method"`
	Note       string  `json:"note,omitempty"`
	RecordedBy string  `json:"recordedBy,omitempty"`
}

type Attachment struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploadedAt"`
}

type InternalNote struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
}

type SafetyChecks struct {
	Electrical      bool `json:"electrical"`
	LeakCheck       bool `json:"leakCheck"`
	PressureTest    bool `json:"pressureTest"`
	AirflowBalanced bool `json:"airflowBalanced"`
	MountingSecure  bool `json:"mountingSecure"`
}

// CompletionReport is the technician's sign-off for a finished job.
type CompletionReport struct {
	WorkPerformed       string       `json:"workPerformed"`
	PartsUsed           []string     `json:"partsUsed"`
	SystemBrand         string       `json:"systemBrand"`
	SystemModel         string       `json:"systemModel"`
	SerialNumber        string       `json:"serialNumber"`
	CapacityKW          string       `json:"capacityKw"`
	RefrigerantType     string       `json:"refrigerantType"`
	RefrigerantAmountKG float64      `json:"refrigerantAmountKg"`
	SafetyChecks        SafetyChecks `json:"safetyChecks"`
	ARCLicense          string       `json:"arcLicense"`
	TechnicianNotes     string       `json:"technicianNotes"`
	CustomerName        string       `json:"customerName"`
	CustomerSignature   string       `json:"customerSignature"`
	CompletedAt         string       `json:"completedAt"`
	Photos              []string     `json:"photos"`
}

// Booking is one customer job. Financial totals are derived on read and are
// never stored on the record.
type Booking struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Phone             string            `json:"phone"`
	Email             string            `json:"email,omitempty"`
	ServiceType       string            `json:"service_type"`
	SystemType        string            `json:"system_type,omitempty"`
	TeamType          roster.TeamType   `json:"team_type"`
	Description       string            `json:"description"`
	Location          Location          `json:"location"`
	PreferredDateTime schedule.Slot     `json:"preferred_date_time"`
	Status            JobStatus         `json:"status"`
	CreatedAt         string            `json:"createdAt"`
	AssignedStaffIDs  []string          `json:"assignedStaffIds"`
	Notes             []string          `json:"notes"`
	InternalNotes     []InternalNote    `json:"internalNotes"`
	EstimatedCost     string            `json:"estimatedCost,omitempty"`
	LineItems         []LineItem        `json:"lineItems"`
	Payments          []Payment         `json:"payments"`
	IsInvoiced        bool              `json:"isInvoiced"`
	CompletionReport  *CompletionReport `json:"completionReport,omitempty"`
	Attachments       []Attachment      `json:"attachments"`
	LaborHours        float64           `json:"laborHours,omitempty"`
	EquipmentUsed     []string          `json:"equipmentUsed,omitempty"`
}

// Assigned reports whether any staff member holds the booking.
func (b *Booking) Assigned() bool {
	return len(b.AssignedStaffIDs) > 0
}

// HoldsSlot reports whether the booking blocks its assignees at slot.
func (b *Booking) HoldsSlot(slot schedule.Slot) bool {
	return b.Status != StatusCancelled && b.PreferredDateTime == slot
}

// Clone returns a deep copy so callers can modify it before Update.
func (b Booking) Clone() Booking {
	out := b
	out.AssignedStaffIDs = append([]string{}, b.AssignedStaffIDs...)
	out.Notes = append([]string{}, b.Notes...)
	out.InternalNotes = append([]InternalNote{}, b.InternalNotes...)
	out.LineItems = append([]LineItem{}, b.LineItems...)
	out.Payments = append([]Payment{}, b.Payments...)
	out.Attachments = append([]Attachment{}, b.Attachments...)
	if b.EquipmentUsed != nil {
		out.EquipmentUsed = append([]string{}, b.EquipmentUsed...)
	}
	if b.CompletionReport != nil {
		report := *b.CompletionReport
		report.PartsUsed = append([]string(nil), b.CompletionReport.PartsUsed...)
		report.Photos = append([]string(nil), b.CompletionReport.Photos...)
		out.CompletionReport = &report
	}
	return out
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status  JobStatus
	StaffID string
	Team    roster.TeamType
}

func (f Filter) matches(b *Booking) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.Team != "" && b.TeamType != f.Team {
		return false
	}
	if f.StaffID != "" {
		for _, id := range b.AssignedStaffIDs {
			if id == f.StaffID {
				return true
			}
		}
		return false
	}
	return true
}
