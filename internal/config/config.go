// Package config loads bill-checker settings from defaults, an optional
// YAML file, BILL_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"energy_bill/internal/ingest"
	"energy_bill/internal/model"
)

const envPrefix = "BILL"

type Config struct {
	Spot        SpotConfig        `mapstructure:"spot"`
	Consumption ConsumptionConfig `mapstructure:"consumption"`
	Tariff      TariffConfig      `mapstructure:"tariff"`
	Output      OutputConfig      `mapstructure:"output"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
}

type SpotConfig struct {
	File      string            `mapstructure:"file"`
	Delimiter string            `mapstructure:"delimiter" validate:"delimiter"`
	Fields    ingest.SpotFields `mapstructure:"fields"`
}

type ConsumptionConfig struct {
	File      string                   `mapstructure:"file"`
	Delimiter string                   `mapstructure:"delimiter" validate:"delimiter"`
	Fields    ingest.ConsumptionFields `mapstructure:"fields"`
}

// TariffConfig selects a schedule by name. Without a file only the built-in
// default schedule is available.
type TariffConfig struct {
	File string `mapstructure:"file"`
	Name string `mapstructure:"name" validate:"required"`
}

type OutputConfig struct {
	// View is checked with model.ParseView; empty prints the summary.
	View string `mapstructure:"view"`
	XLSX string `mapstructure:"xlsx"`
	PDF  string `mapstructure:"pdf"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
	// Retention caps the number of reports kept in memory.
	Retention int `mapstructure:"retention" validate:"gte=1"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"json":         "output.view",
	"spotfile":     "spot.file",
	"sf-delimiter": "spot.delimiter",
	"consfile":     "consumption.file",
	"cf-delimiter": "consumption.delimiter",
	"tariff-file":  "tariff.file",
	"tariff":       "tariff.name",
	"xlsx":         "output.xlsx",
	"pdf":          "output.pdf",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"addr":         "server.addr",
	"retention":    "server.retention",
}

func setDefaults(v *viper.Viper) {
	spot := ingest.DefaultSpotFields()
	cons := ingest.DefaultConsumptionFields()

	v.SetDefault("spot.file", "")
	v.SetDefault("spot.delimiter", ",")
	v.SetDefault("spot.fields.datetime_field", spot.DateTime)
	v.SetDefault("spot.fields.price_field", spot.Price)
	v.SetDefault("consumption.file", "")
	v.SetDefault("consumption.delimiter", ";")
	v.SetDefault("consumption.fields.datetime_field", cons.DateTime)
	v.SetDefault("consumption.fields.consumption_field", cons.Consumption)
	v.SetDefault("consumption.fields.temperature_field", cons.Temperature)
	v.SetDefault("consumption.fields.date_field", cons.Date)
	v.SetDefault("tariff.file", "")
	v.SetDefault("tariff.name", model.DefaultTariffName)
	v.SetDefault("output.view", "")
	v.SetDefault("output.xlsx", "")
	v.SetDefault("output.pdf", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.retention", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load builds the configuration. fs may be nil; otherwise every known flag
// it defines is bound, and its "config" flag, when set, names the YAML file
// to read. Without it bill-checker.yaml is looked up in the working
// directory and ./config, and its absence is not an error.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var explicit string
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("bill-checker")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints, that both delimiters are a single
// character and that the output view is known.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := model.ParseView(c.Output.View); err != nil {
		return fmt.Errorf("invalid config: output.view: %w", err)
	}
	return nil
}

// SpotDelimiter returns the spot file delimiter as a rune.
func (c *Config) SpotDelimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Spot.Delimiter)
	return r
}

// ConsumptionDelimiter returns the consumption file delimiter as a rune.
func (c *Config) ConsumptionDelimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Consumption.Delimiter)
	return r
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("delimiter", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		r, size := utf8.DecodeRuneInString(s)
		return size == len(s) && r != utf8.RuneError && r != '\n' && r != '\r' && r != '"'
	})
	return validate
}
