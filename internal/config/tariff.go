package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"energy_bill/internal/model"
)

// ErrUnknownTariff is returned when the requested schedule is not defined.
var ErrUnknownTariff = errors.New("unknown tariff")

// TariffFile is the YAML document holding contract schedules:
//
//	schedules:
//	  - name: spot-2023
//	    margin_per_kwh: 0.0049
//	    transfer_per_kwh: 0.0409
//	    energy_tax_per_kwh: 0.02779
//	    security_supply_per_kwh: 0.00013
//	    monthly_fee: 2.95
type TariffFile struct {
	Schedules []model.Tariff `yaml:"schedules" validate:"required,min=1,dive"`
}

// LoadTariffs reads and validates a schedule file.
func LoadTariffs(path string) ([]model.Tariff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tariff file: %w", err)
	}
	return ParseTariffs(data)
}

// ParseTariffs decodes a schedule document. Names must be unique.
func ParseTariffs(data []byte) ([]model.Tariff, error) {
	var doc TariffFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing tariff file: %w", err)
	}
	if err := newValidator().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid tariff file: %w", err)
	}
	seen := make(map[string]bool, len(doc.Schedules))
	for _, t := range doc.Schedules {
		if seen[t.Name] {
			return nil, fmt.Errorf("invalid tariff file: duplicate schedule %q", t.Name)
		}
		seen[t.Name] = true
	}
	return doc.Schedules, nil
}

// SelectTariff returns the schedule called name. The built-in default is
// used when name is the default name and the list does not override it.
func SelectTariff(schedules []model.Tariff, name string) (model.Tariff, error) {
	for _, t := range schedules {
		if t.Name == name {
			return t, nil
		}
	}
	if name == model.DefaultTariffName {
		return model.DefaultTariff(), nil
	}
	names := make([]string, 0, len(schedules)+1)
	names = append(names, model.DefaultTariffName)
	for _, t := range schedules {
		names = append(names, t.Name)
	}
	return model.Tariff{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownTariff, name, strings.Join(names, ", "))
}

// ResolveTariff loads the configured schedule file, if any, and selects the
// configured schedule.
func (c *Config) ResolveTariff() (model.Tariff, error) {
	var schedules []model.Tariff
	if c.Tariff.File != "" {
		var err error
		if schedules, err = LoadTariffs(c.Tariff.File); err != nil {
			return model.Tariff{}, err
		}
	}
	return SelectTariff(schedules, c.Tariff.Name)
}
