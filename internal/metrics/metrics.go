package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "bill_checker_"

	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	rowsTotal        *prometheus.CounterVec
	parseErrorsTotal *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec
	runLatency       *prometheus.HistogramVec
	reportDays       prometheus.Gauge
	exportsTotal     *prometheus.CounterVec
)

// Init registers the collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		rowsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_total",
				Help: "Input rows read by source",
			},
			[]string{"source"},
		)
		parseErrorsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "parse_errors_total",
				Help: "Fatal parse errors by source",
			},
			[]string{"source"},
		)
		runsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Billing runs by result",
			},
			[]string{"result"},
		)
		runLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_latency_seconds",
				Help:    "Billing run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reportDays = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "report_days",
				Help: "Consumption days in the latest report",
			},
		)
		exportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Rendered report views by view and result",
			},
			[]string{"view", "result"},
		)

		prometheus.MustRegister(
			rowsTotal,
			parseErrorsTotal,
			runsTotal,
			runLatency,
			reportDays,
			exportsTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AddRows adds n rows read from source.
func AddRows(source string, n int) {
	if rowsTotal != nil && n > 0 {
		rowsTotal.WithLabelValues(source).Add(float64(n))
	}
}

// IncParseError counts a fatal parse error for source.
func IncParseError(source string) {
	if parseErrorsTotal != nil {
		parseErrorsTotal.WithLabelValues(source).Inc()
	}
}

// ObserveRun records run duration, result and day count.
func ObserveRun(result string, duration time.Duration, days int) {
	if result == "" {
		result = ResultSuccess
	}
	if runsTotal != nil {
		runsTotal.WithLabelValues(result).Inc()
	}
	if runLatency != nil {
		runLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if reportDays != nil && result != ResultError {
		reportDays.Set(float64(days))
	}
}

// IncExport counts a rendered view.
func IncExport(view, result string) {
	if result == "" {
		result = ResultSuccess
	}
	if exportsTotal != nil {
		exportsTotal.WithLabelValues(view, result).Inc()
	}
}
