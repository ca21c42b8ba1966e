package policy

import "fmt"

// Defaults substituted in permissive mode when an enabled rule carries no
// configured threshold.
const (
	DefaultMinLeadMinutes    = 60
	DefaultMaxAdvanceMinutes = 30 * 24 * 60 // 30 days
)

// LeadTimeParams configures the lead-time rule.
type LeadTimeParams struct {
	MinMinutes int `mapstructure:"min_minutes"`
}

// MaxAdvanceParams configures the max-advance rule.
type MaxAdvanceParams struct {
	MaxMinutes int `mapstructure:"max_minutes"`
}

// RegistryConfig is the already-resolved parameter set handed to the policy
// layer. Nil params mean "not configured".
type RegistryConfig struct {
	// Strict makes a missing threshold on an enabled rule a construction
	// error instead of a silent default. Defaulting a restrictive business
	// rule silently is worse than refusing to start.
	Strict bool

	LeadTimeEnabled   bool
	MaxAdvanceEnabled bool

	LeadTime   *LeadTimeParams
	MaxAdvance *MaxAdvanceParams
}

// BuildPolicies instantiates the enabled rules from resolved configuration.
func BuildPolicies(cfg RegistryConfig) ([]Policy, error) {
	var policies []Policy

	if cfg.LeadTimeEnabled {
		minMinutes := DefaultMinLeadMinutes
		if cfg.LeadTime != nil {
			minMinutes = cfg.LeadTime.MinMinutes
		} else if cfg.Strict {
			return nil, fmt.Errorf("lead-time policy enabled but no parameters configured")
		}

		p, err := NewLeadTimePolicy(minMinutes)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}

	if cfg.MaxAdvanceEnabled {
		maxMinutes := DefaultMaxAdvanceMinutes
		if cfg.MaxAdvance != nil {
			maxMinutes = cfg.MaxAdvance.MaxMinutes
		} else if cfg.Strict {
			return nil, fmt.Errorf("max-advance policy enabled but no parameters configured")
		}

		p, err := NewMaxAdvancePolicy(maxMinutes)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}

	return policies, nil
}
