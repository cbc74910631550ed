package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"energy_bill/internal/billing"
	"energy_bill/internal/config"
	"energy_bill/internal/logger"
	"energy_bill/internal/model"
	"energy_bill/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bill-checker", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringP("json", "j", "", "print data as JSON: consumption, spot or totals (default: summary)")
	fs.String("spotfile", "", "spot price CSV file")
	fs.String("sf-delimiter", ",", "spot price file delimiter")
	fs.String("consfile", "", "consumption CSV file")
	fs.String("cf-delimiter", ";", "consumption file delimiter")
	fs.String("config", "", "YAML config file")
	fs.String("tariff-file", "", "YAML file with tariff schedules")
	fs.String("tariff", model.DefaultTariffName, "tariff schedule name")
	fs.String("xlsx", "", "also write an XLSX statement to this path")
	fs.String("pdf", "", "also write a PDF statement to this path")
	fs.String("log-level", "info", "log level")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: bill-checker --spotfile FILE --consfile FILE [options]")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}
	return fs
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if cfg.Spot.File == "" || cfg.Consumption.File == "" {
		fmt.Fprintln(stderr, "Mandatory spotfile or consumption file missing.")
		fs.Usage()
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, stderr)

	view, err := model.ParseView(cfg.Output.View)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	tariff, err := cfg.ResolveTariff()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	checker := billing.NewChecker(
		billing.WithTariff(tariff),
		billing.WithSpotFields(cfg.Spot.Fields),
		billing.WithConsumptionFields(cfg.Consumption.Fields),
		billing.WithLogger(log),
	)
	rep, err := checker.RunFiles(billing.Inputs{
		SpotFile:             cfg.Spot.File,
		SpotDelimiter:        cfg.SpotDelimiter(),
		ConsumptionFile:      cfg.Consumption.File,
		ConsumptionDelimiter: cfg.ConsumptionDelimiter(),
	})
	if err != nil {
		log.WithError(err).Error("billing run failed")
		return 1
	}

	if err := report.WriteView(stdout, rep, view); err != nil {
		log.WithError(err).Error("writing output")
		return 1
	}

	if err := writeStatement(log, cfg.Output.XLSX, rep, report.XLSX); err != nil {
		return 1
	}
	if err := writeStatement(log, cfg.Output.PDF, rep, report.PDF); err != nil {
		return 1
	}
	return 0
}

func writeStatement(log logrus.FieldLogger, path string, rep *billing.Report, build func(*billing.Report) ([]byte, error)) error {
	if path == "" {
		return nil
	}
	data, err := build(rep)
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		log.WithError(err).WithField("path", path).Error("writing statement")
		return err
	}
	log.WithField("path", path).Info("statement written")
	return nil
}
