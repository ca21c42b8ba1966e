package config

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jvillarreal-dev/booking-core/internal/policy"
	"github.com/jvillarreal-dev/booking-core/internal/schedule"
)

// PolicySettings carries the tunable parameters for the policy chain.
// A nil block means the policy has no file-provided parameters.
type PolicySettings struct {
	LeadTime   *policy.LeadTimeParams   `mapstructure:"lead_time"`
	MaxAdvance *policy.MaxAdvanceParams `mapstructure:"max_advance"`
}

// Settings is the file-backed portion of the configuration: feature flags,
// policy parameters and working schedules keyed by resource ID.
type Settings struct {
	Features        map[string]bool            `mapstructure:"features"`
	Policies        PolicySettings             `mapstructure:"policies"`
	Schedules       map[string]schedule.Config `mapstructure:"schedules"`
	DefaultSchedule *schedule.Config           `mapstructure:"default_schedule"`

	strict bool
}

// LoadSettings reads the settings file with viper. In strict mode a missing
// path or unreadable file is fatal; otherwise an empty Settings with
// permissive defaults is returned.
func LoadSettings(path string, strict bool) (*Settings, error) {
	s := &Settings{strict: strict}

	if path == "" {
		if strict {
			return nil, fmt.Errorf("SETTINGS_PATH is required in strict mode")
		}
		return s, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings file %s failed: %w", path, err)
	}

	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("parse settings file %s failed: %w", path, err)
	}

	return s, nil
}

// FeatureEnabled reports whether a named feature flag is on.
// Flags absent from the file default to enabled.
func (s *Settings) FeatureEnabled(name string) bool {
	if v, ok := s.Features[name]; ok {
		return v
	}
	return true
}

// PolicyRegistry maps the file settings onto the policy registry input.
func (s *Settings) PolicyRegistry() policy.RegistryConfig {
	return policy.RegistryConfig{
		Strict:            s.strict,
		LeadTimeEnabled:   s.FeatureEnabled("lead_time_policy"),
		MaxAdvanceEnabled: s.FeatureEnabled("max_advance_policy"),
		LeadTime:          s.Policies.LeadTime,
		MaxAdvance:        s.Policies.MaxAdvance,
	}
}

// LoadSchedule implements schedule.Provider. Resources without an entry fall
// back to the file-level default schedule, then to the built-in permissive
// default. In strict mode the built-in fallback is disabled.
func (s *Settings) LoadSchedule(ctx context.Context, resourceID string) (*schedule.Config, error) {
	if cfg, ok := s.Schedules[resourceID]; ok {
		return &cfg, nil
	}
	if s.DefaultSchedule != nil {
		cfg := *s.DefaultSchedule
		return &cfg, nil
	}
	if s.strict {
		return nil, schedule.ErrNotConfigured
	}
	cfg := schedule.Default()
	return &cfg, nil
}
