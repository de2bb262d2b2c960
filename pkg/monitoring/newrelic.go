package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		// Return disabled app
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.enabled || nr.Application == nil {
		return
	}
	nr.Application.Shutdown(timeout)
}

// IsEnabled returns whether New Relic is enabled
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled
}

// Custom metric helpers

// RecordEstimateLatency records fare estimate fan-out latency
func (nr *NewRelicApp) RecordEstimateLatency(latencyMs float64) {
	nr.RecordCustomMetric("custom/fare/estimate_latency_ms", latencyMs)
}

// RecordRideRequested records ride creation
func (nr *NewRelicApp) RecordRideRequested(vehicleClass string, fareTotal float64) {
	nr.RecordCustomEvent("RideRequested", map[string]interface{}{
		"vehicle_class": vehicleClass,
		"fare_total":    fareTotal,
		"timestamp":     time.Now().Unix(),
	})
}

// RecordRideCancelled records rider-initiated cancellation
func (nr *NewRelicApp) RecordRideCancelled(rideID string) {
	nr.RecordCustomEvent("RideCancelled", map[string]interface{}{
		"ride_id":   rideID,
		"timestamp": time.Now().Unix(),
	})
}

// RecordGeocoderFallback records a degraded geocoder lookup
func (nr *NewRelicApp) RecordGeocoderFallback(kind string) {
	nr.RecordCustomMetric(fmt.Sprintf("custom/geocoder/fallback/%s", kind), 1)
}
