package models

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// RiskLevel selects the sizing multiplier and the actionability threshold.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskConfig is the account risk configuration supplied by the host.
type RiskConfig struct {
	Level       RiskLevel `yaml:"level" json:"level" default:"medium" validate:"oneof=low medium high"`
	MaxNotional float64   `yaml:"max_notional" json:"max_notional" validate:"gt=0"`
}

var validate = validator.New()

// Normalize fills defaults and validates the config.
func (c *RiskConfig) Normalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("risk defaults: %w", err)
	}
	return c.Validate()
}

// Validate checks the level and the notional cap.
func (c *RiskConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("risk config: %w", err)
	}
	return nil
}

// PositionSize is the sizing recommendation for a signal.
type PositionSize struct {
	Quantity   float64 `json:"quantity"`
	Notional   float64 `json:"notional"`
	Actionable bool    `json:"actionable"`
	Reason     string  `json:"reason"`
}
