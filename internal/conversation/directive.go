package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/arcticflow-dispatch/internal/availability"
	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
	"github.com/wolfman30/arcticflow-dispatch/internal/schedule"
)

const (
	placeholderCurrentTime  = "{{CURRENT_TIME}}"
	placeholderAvailability = "{{AVAILABILITY_INFO}}"
)

// DefaultDirective is the stock system instruction for booking sessions.
const DefaultDirective = `You are a professional HVAC operations assistant for ArcticFlow AI. Your goal is to provide a seamless, world-class experience for customers and staff.

STRICT OPERATIONAL GUIDELINES:
1. COLLECTION: Precisely collect Full Name, Valid Phone Number, Service Type (Installation or Repair), Problem Description, Site Address, and Preferred Date/Time.
2. DATE VALIDATION: You MUST NOT accept "ASAP", "tomorrow", or "next week" without resolving it to a specific date and time from the available slots. If a user says "ASAP", suggest the next earliest available slot and ask for their explicit confirmation.
3. CONFIRMATION FLOW: Once all 6 data points are collected, you MUST present a summary of the booking and ask the user: "Is this information correct? Shall I proceed with the booking?"
4. ATOMIC SUBMISSION: Only consider a booking "Complete" after the user has explicitly confirmed the summary you provided.
5. PROFESSIONALISM: Maintain a confident, concise, and helpful tone. Use natural language. Avoid unnecessary formatting.
6. LOGIC: Check availability status before confirming slots. Only book between 09:00 and 17:00 AEST for future dates.

CURRENT SYSTEM TIME: {{CURRENT_TIME}}
CALENDAR DISPATCH STATUS:
{{AVAILABILITY_INFO}}`

// RenderDirective fills the time and availability placeholders.
func RenderDirective(template, availabilityInfo, now string) string {
	out := strings.ReplaceAll(template, placeholderAvailability, availabilityInfo)
	return strings.ReplaceAll(out, placeholderCurrentTime, now)
}

// DirectiveStore keeps the admin-edited directive template.
type DirectiveStore struct {
	docs docstore.Store
}

func NewDirectiveStore(docs docstore.Store) *DirectiveStore {
	if docs == nil {
		panic("conversation: document store required")
	}
	return &DirectiveStore{docs: docs}
}

// Get returns the saved template, or DefaultDirective when none was saved.
// A saved blank template is returned as-is and takes the assistant offline.
func (s *DirectiveStore) Get(ctx context.Context) (string, error) {
	data, err := s.docs.Get(ctx, docstore.KeyMasterPrompt)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return DefaultDirective, nil
		}
		return "", fmt.Errorf("conversation: load directive: %w", err)
	}
	return string(data), nil
}

func (s *DirectiveStore) Put(ctx context.Context, template string) error {
	if err := s.docs.Put(ctx, docstore.KeyMasterPrompt, []byte(template)); err != nil {
		return fmt.Errorf("conversation: save directive: %w", err)
	}
	return nil
}

// TemplateSource supplies the directive template.
type TemplateSource interface {
	Get(ctx context.Context) (string, error)
}

// DigestSource supplies the availability digest.
type DigestSource interface {
	Summary(ctx context.Context) (availability.Digest, error)
}

// Briefing renders the system instruction a new session starts with.
type Briefing struct {
	templates TemplateSource
	digests   DigestSource
	clock     schedule.Clock
}

func NewBriefing(templates TemplateSource, digests DigestSource, clock schedule.Clock) *Briefing {
	if templates == nil || digests == nil {
		panic("conversation: briefing requires templates and digests")
	}
	if clock == nil {
		clock = schedule.NewSystemClock(schedule.DefaultTimezone)
	}
	return &Briefing{templates: templates, digests: digests, clock: clock}
}

// Build returns the rendered directive. An empty result means the
// assistant is offline.
func (b *Briefing) Build(ctx context.Context) (string, error) {
	template, err := b.templates.Get(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(template) == "" {
		return "", nil
	}
	digest, err := b.digests.Summary(ctx)
	if err != nil {
		return "", fmt.Errorf("conversation: availability digest: %w", err)
	}
	return RenderDirective(template, digest.String(), schedule.HumanNow(b.clock)), nil
}
