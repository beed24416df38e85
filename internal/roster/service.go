package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// Service owns the staff roster document.
type Service struct {
	store  docstore.Store
	logger *logging.Logger
	mu     sync.Mutex
}

// NewService creates a roster service over a document store.
func NewService(store docstore.Store, logger *logging.Logger) *Service {
	if store == nil {
		panic("roster: document store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger}
}

// List returns the roster in stored (enlistment) order.
func (s *Service) List(ctx context.Context) ([]StaffMember, error) {
	return s.load(ctx)
}

// Get returns one member by ID.
func (s *Service) Get(ctx context.Context, id string) (*StaffMember, error) {
	members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == id {
			m := members[i]
			return &m, nil
		}
	}
	return nil, ErrStaffNotFound
}

// Enlist adds a new active member.
func (s *Service) Enlist(ctx context.Context, req EnlistRequest) (*StaffMember, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	member := StaffMember{
		ID:         "s-" + uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		Username:   strings.TrimSpace(req.Username),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		Role:       req.Role,
		TeamType:   req.TeamType,
		Status:     StatusAvailable,
		Active:     true,
		ARCLicense: strings.TrimSpace(req.ARCLicense),
	}
	members = append(members, member)
	if err := s.save(ctx, members); err != nil {
		return nil, err
	}
	s.logger.Info("staff enlisted", "staff_id", member.ID, "team", member.TeamType, "role", member.Role)
	return &member, nil
}

// SetActive activates or soft-deactivates a member.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*StaffMember, error) {
	return s.mutate(ctx, id, func(m *StaffMember) { m.Active = active })
}

// Toggle flips the active flag, matching the admin roster switch.
func (s *Service) Toggle(ctx context.Context, id string) (*StaffMember, error) {
	return s.mutate(ctx, id, func(m *StaffMember) { m.Active = !m.Active })
}

// SetStatus updates the informational availability tag.
func (s *Service) SetStatus(ctx context.Context, id string, status Availability) (*StaffMember, error) {
	return s.mutate(ctx, id, func(m *StaffMember) { m.Status = status })
}

// Seed stores members only when no roster exists yet.
func (s *Service) Seed(ctx context.Context, members []StaffMember) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.store.Get(ctx, docstore.KeyStaff); err == nil {
		return false, nil
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return false, fmt.Errorf("roster: seed: %w", err)
	}
	if err := s.save(ctx, members); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*StaffMember)) (*StaffMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID != id {
			continue
		}
		fn(&members[i])
		if err := s.save(ctx, members); err != nil {
			return nil, err
		}
		m := members[i]
		s.logger.Info("staff updated", "staff_id", m.ID, "active", m.Active, "status", m.Status)
		return &m, nil
	}
	return nil, ErrStaffNotFound
}

func (s *Service) load(ctx context.Context) ([]StaffMember, error) {
	data, err := s.store.Get(ctx, docstore.KeyStaff)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("roster: load: %w", err)
	}
	var members []StaffMember
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("roster: decode: %w", err)
	}
	return members, nil
}

func (s *Service) save(ctx context.Context, members []StaffMember) error {
	if members == nil {
		members = []StaffMember{}
	}
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("roster: encode: %w", err)
	}
	if err := s.store.Put(ctx, docstore.KeyStaff, data); err != nil {
		return fmt.Errorf("roster: save: %w", err)
	}
	return nil
}
