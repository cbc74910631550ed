package model

// Tariff is the fixed contract schedule used for one billing computation.
// All rates are in euros per kWh, MonthlyFee in euros.
type Tariff struct {
	Name                 string  `yaml:"name" mapstructure:"name" validate:"required"`
	MarginPerKWh         float64 `yaml:"margin_per_kwh" mapstructure:"margin_per_kwh" validate:"gte=0"`
	TransferPerKWh       float64 `yaml:"transfer_per_kwh" mapstructure:"transfer_per_kwh" validate:"gte=0"`
	EnergyTaxPerKWh      float64 `yaml:"energy_tax_per_kwh" mapstructure:"energy_tax_per_kwh" validate:"gte=0"`
	SecuritySupplyPerKWh float64 `yaml:"security_supply_per_kwh" mapstructure:"security_supply_per_kwh" validate:"gte=0"`
	MonthlyFee           float64 `yaml:"monthly_fee" mapstructure:"monthly_fee" validate:"gte=0"`
}

// DefaultTariffName is the name of the built-in schedule.
const DefaultTariffName = "default"

// DefaultTariff returns the built-in contract. Energy tax and security of
// supply are the regulated transfer rates.
func DefaultTariff() Tariff {
	return Tariff{
		Name:                 DefaultTariffName,
		MarginPerKWh:         0.006,
		TransferPerKWh:       0.0409,
		EnergyTaxPerKWh:      0.02778,
		SecuritySupplyPerKWh: 0.00016,
		MonthlyFee:           3.53,
	}
}
