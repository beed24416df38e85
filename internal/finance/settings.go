package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wolfman30/arcticflow-dispatch/internal/docstore"
)

// ErrInvalidSettings is returned when business settings fail validation.
var ErrInvalidSettings = errors.New("finance: invalid settings")

// EquipmentItem is one priced catalog model.
type EquipmentItem struct {
	Model string  `json:"model" yaml:"model"`
	Cost  float64 `json:"cost" yaml:"cost"`
}

// Settings is the business profile used for pricing and invoices.
type Settings struct {
	Name             string          `json:"name" yaml:"name"`
	Address          string          `json:"address" yaml:"address"`
	Phone            string          `json:"phone" yaml:"phone"`
	Email            string          `json:"email" yaml:"email"`
	TaxID            string          `json:"taxId" yaml:"tax_id"`
	LogoURL          string          `json:"logoUrl,omitempty" yaml:"logo_url,omitempty"`
	HourlyRate       float64         `json:"hourlyRate" yaml:"hourly_rate"`
	GSTRate          float64         `json:"gstRate" yaml:"gst_rate"`
	EquipmentCatalog []EquipmentItem `json:"equipmentCatalog" yaml:"equipment_catalog"`
}

// DefaultSettings returns the stock business profile.
func DefaultSettings() Settings {
	return Settings{
		Name:       "ArcticFlow AI HVAC Solutions",
		Address:    "101 Innovation Way, Canberra ACT 2601",
		Phone:      "1300 ARCTIC",
		Email:      "service@arcticflow.ai",
		TaxID:      "ABN 12 345 678 910",
		HourlyRate: 110,
		GSTRate:    10,
		EquipmentCatalog: []EquipmentItem{
			{Model: "7kW Split System Unit", Cost: 1450},
			{Model: "5kW Split System Unit", Cost: 1100},
			{Model: "Ducted Zone Controller", Cost: 450},
			{Model: "Inverter Compressor", Cost: 890},
		},
	}
}

// CatalogCost returns the price of a model, or 0 when it is not listed.
func (s Settings) CatalogCost(model string) float64 {
	for _, item := range s.EquipmentCatalog {
		if item.Model == model {
			return item.Cost
		}
	}
	return 0
}

// Validate ensures rates are usable.
func (s *Settings) Validate() error {
	if s.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly_rate must not be negative", ErrInvalidSettings)
	}
	if s.GSTRate < 0 {
		return fmt.Errorf("%w: gst_rate must not be negative", ErrInvalidSettings)
	}
	for i, item := range s.EquipmentCatalog {
		if strings.TrimSpace(item.Model) == "" {
			return fmt.Errorf("%w: equipment_catalog[%d] has no model", ErrInvalidSettings, i)
		}
	}
	return nil
}

// LoadSettingsFile reads settings from a YAML file. Fields missing from the
// file keep their defaults.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("finance: read settings %s: %w", path, err)
	}
	return SettingsFromYAML(data)
}

// SettingsFromYAML parses settings over the defaults.
func SettingsFromYAML(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("finance: parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SettingsStore persists the admin-edited business profile.
type SettingsStore struct {
	docs     docstore.Store
	fallback Settings
}

// NewSettingsStore serves fallback until an admin saves settings.
func NewSettingsStore(docs docstore.Store, fallback Settings) *SettingsStore {
	if docs == nil {
		panic("finance: document store required")
	}
	return &SettingsStore{docs: docs, fallback: fallback}
}

func (s *SettingsStore) Get(ctx context.Context) (Settings, error) {
	data, err := s.docs.Get(ctx, docstore.KeyBusinessSettings)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return s.fallback, nil
		}
		return Settings{}, fmt.Errorf("finance: load settings: %w", err)
	}
	out := s.fallback
	if err := json.Unmarshal(data, &out); err != nil {
		return Settings{}, fmt.Errorf("finance: decode settings: %w", err)
	}
	return out, nil
}

func (s *SettingsStore) Put(ctx context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("finance: encode settings: %w", err)
	}
	if err := s.docs.Put(ctx, docstore.KeyBusinessSettings, data); err != nil {
		return fmt.Errorf("finance: save settings: %w", err)
	}
	return nil
}
