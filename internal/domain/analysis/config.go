package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Pinned scoring and topology constants.
const (
	// CycleRiskBase and CycleRiskPerHop give min(100, 80 + 2*length).
	CycleRiskBase   = 80.0
	CycleRiskPerHop = 2.0

	// StructuringRisk is the flat score of every FAN_IN / FAN_OUT ring.
	StructuringRisk = 75.0

	// LayeringRiskBase and LayeringRiskPerAccount give min(100, 60 + 5*length).
	LayeringRiskBase       = 60.0
	LayeringRiskPerAccount = 5.0

	// ShellMaxDegree is the largest total degree (in+out) of a shell account.
	ShellMaxDegree = 3

	// MemberScoreFactor dampens ring scores folded onto member accounts.
	MemberScoreFactor = 0.5

	// MultiPatternBonus is added once to accounts showing more than one pattern.
	MultiPatternBonus = 20.0

	MinScore = 0.0
	MaxScore = 100.0
)

// Self transfers stay in the graph as edges but never count as a structuring
// counterparty; simple-path searches cannot use them either.
const CountSelfTransferCounterparty = false

// Config holds the tunable parameters of the analysis engine
type Config struct {
	MinCycleLength int `mapstructure:"min_cycle_length"`
	MaxCycleLength int `mapstructure:"max_cycle_length"`

	FanThreshold      int           `mapstructure:"fan_threshold"`
	StructuringWindow time.Duration `mapstructure:"structuring_window"`
	// ReportAllWindows reports every non-overlapping burst instead of the first one.
	ReportAllWindows bool `mapstructure:"report_all_windows"`

	MinChainLength int `mapstructure:"min_chain_length"`
	MaxChainLength int `mapstructure:"max_chain_length"`

	WhitelistDegree int `mapstructure:"whitelist_degree"`

	MaxSearchVisits int           `mapstructure:"max_search_visits"`
	DetectorTimeout time.Duration `mapstructure:"detector_timeout"`
}

// DefaultConfig returns the reference parameters
func DefaultConfig() Config {
	return Config{
		MinCycleLength:    3,
		MaxCycleLength:    5,
		FanThreshold:      10,
		StructuringWindow: 72 * time.Hour,
		ReportAllWindows:  false,
		MinChainLength:    4,
		MaxChainLength:    6,
		WhitelistDegree:   500,
		MaxSearchVisits:   2_000_000,
		DetectorTimeout:   30 * time.Second,
	}
}

var ErrInvalidConfig = errors.New("invalid analysis config")

// Validate checks that the bounds are coherent
func (c Config) Validate() error {
	switch {
	case c.MinCycleLength < 3:
		return fmt.Errorf("%w: min_cycle_length must be >= 3, got %d", ErrInvalidConfig, c.MinCycleLength)
	case c.MaxCycleLength < c.MinCycleLength:
		return fmt.Errorf("%w: max_cycle_length %d < min_cycle_length %d", ErrInvalidConfig, c.MaxCycleLength, c.MinCycleLength)
	case c.FanThreshold < 2:
		return fmt.Errorf("%w: fan_threshold must be >= 2, got %d", ErrInvalidConfig, c.FanThreshold)
	case c.StructuringWindow <= 0:
		return fmt.Errorf("%w: structuring_window must be positive", ErrInvalidConfig)
	case c.MinChainLength < 4:
		return fmt.Errorf("%w: min_chain_length must be >= 4, got %d", ErrInvalidConfig, c.MinChainLength)
	case c.MaxChainLength < c.MinChainLength:
		return fmt.Errorf("%w: max_chain_length %d < min_chain_length %d", ErrInvalidConfig, c.MaxChainLength, c.MinChainLength)
	case c.WhitelistDegree <= 0:
		return fmt.Errorf("%w: whitelist_degree must be positive", ErrInvalidConfig)
	case c.MaxSearchVisits <= 0:
		return fmt.Errorf("%w: max_search_visits must be positive", ErrInvalidConfig)
	}
	return nil
}
