package roster

import "strings"

// TeamType is a staff specialization and the team a job is dispatched to.
type TeamType string

const (
	TeamRepair       TeamType = "Repair"
	TeamInstallation TeamType = "Installation"
)

// Valid reports whether t is a known team.
func (t TeamType) Valid() bool {
	return t == TeamRepair || t == TeamInstallation
}

// ParseTeamType accepts team names case-insensitively.
func ParseTeamType(raw string) (TeamType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "repair":
		return TeamRepair, true
	case "installation":
		return TeamInstallation, true
	}
	return "", false
}

// Role separates dispatchable staff from administrators.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleStaff Role = "Staff"
)

// Availability is the informational status tag shown on the roster. It does
// not influence dispatch; slot availability is derived from bookings.
type Availability string

const (
	StatusAvailable Availability = "Available"
	StatusBusy      Availability = "Busy"
	StatusOffline   Availability = "Offline"
)

// StaffMember is one person on the roster. Members are never hard-deleted.
type StaffMember struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Username   string       `json:"username"`
	Phone      string       `json:"phone"`
	Email      string       `json:"email"`
	Role       Role         `json:"role"`
	TeamType   TeamType     `json:"teamType"`
	Status     Availability `json:"status"`
	Active     bool         `json:"active"`
	ARCLicense string       `json:"arcLicense,omitempty"`
}

// Dispatchable reports whether the member can be assigned field work for team.
func (m StaffMember) Dispatchable(team TeamType) bool {
	return m.Active && m.Role == RoleStaff && m.TeamType == team
}

// EnlistRequest carries the admin-supplied fields for a new member.
type EnlistRequest struct {
	Name       string   `json:"name"`
	Username   string   `json:"username"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email"`
	Role       Role     `json:"role"`
	TeamType   TeamType `json:"teamType"`
	ARCLicense string   `json:"arcLicense,omitempty"`
}

// Validate checks the request before enlistment.
func (r *EnlistRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Role == "" {
		r.Role = RoleStaff
	}
	if r.Role != RoleStaff && r.Role != RoleAdmin {
		return ErrInvalidRole
	}
	if !r.TeamType.Valid() {
		return ErrInvalidTeam
	}
	return nil
}
