package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/tailortalk/tailortalk/internal/google"
	"github.com/tailortalk/tailortalk/internal/llm"
)

// Defaults for the serve command.
const (
	defaultTimezone    = "Asia/Kolkata"
	defaultHTTPAddr    = ":8000"
	defaultMetricsAddr = ":9090"
)

// ServeConfig holds everything the serve command needs: model
// credentials, calendar access and listen addresses.
type ServeConfig struct {
	// OpenRouterKeys is the comma-separated API key pool. The assistant
	// still serves chat without keys, replying with a degraded message.
	OpenRouterKeys string

	// Model is the OpenRouter model identifier.
	Model string

	// CalendarID is the shared Google Calendar all bookings go to.
	CalendarID string

	// Timezone is the IANA name used for parsing and display.
	Timezone string

	// Google OAuth credential for the shared calendar.
	Google google.Credentials

	// HTTPAddr is the chat API listen address.
	HTTPAddr string

	// MetricsAddr is the Prometheus metrics listen address.
	MetricsAddr string

	// MetricsEnabled determines whether the metrics server starts.
	MetricsEnabled bool
}

// newServeViper returns a viper instance with the serve command's
// environment bindings and defaults registered.
func newServeViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("openrouter.model", llm.DefaultModel)
	v.SetDefault("calendar.timezone", defaultTimezone)
	v.SetDefault("http.addr", defaultHTTPAddr)
	v.SetDefault("metrics.addr", defaultMetricsAddr)
	v.SetDefault("metrics.enabled", true)

	// BindEnv never fails when at least one env name is given.
	_ = v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("calendar.id", "TAILORTALK_CALENDAR_ID")
	_ = v.BindEnv("calendar.timezone", "TAILORTALK_TIMEZONE")
	_ = v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	_ = v.BindEnv("google.refresh_token", "GOOGLE_REFRESH_TOKEN")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")
	_ = v.BindEnv("metrics.addr", "METRICS_ADDR")
	_ = v.BindEnv("metrics.enabled", "METRICS_ENABLED")

	return v
}

// loadServeConfig extracts a ServeConfig from the given viper instance.
func loadServeConfig(v *viper.Viper) ServeConfig {
	return ServeConfig{
		OpenRouterKeys: v.GetString("openrouter.api_key"),
		Model:          v.GetString("openrouter.model"),
		CalendarID:     v.GetString("calendar.id"),
		Timezone:       v.GetString("calendar.timezone"),
		Google: google.Credentials{
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			RefreshToken: v.GetString("google.refresh_token"),
		},
		HTTPAddr:       v.GetString("http.addr"),
		MetricsAddr:    v.GetString("metrics.addr"),
		MetricsEnabled: v.GetBool("metrics.enabled"),
	}
}

// Validate checks that the configuration can actually reach the shared
// calendar and that the timezone resolves.
func (c ServeConfig) Validate() error {
	if c.CalendarID == "" {
		return fmt.Errorf("calendar id is required (set TAILORTALK_CALENDAR_ID or --calendar-id)")
	}
	if !c.Google.Complete() {
		return fmt.Errorf("incomplete Google credentials: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN are all required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone. Call Validate first.
func (c ServeConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
