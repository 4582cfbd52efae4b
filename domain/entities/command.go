package entities

import (
	"fmt"
	"time"
)

// CommandDefinition describes one executable command: its payout distribution,
// cooldown, experience reward and unlock gating. Definitions are immutable
// configuration; they are validated once at load time, never at invocation.
type CommandDefinition struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	MinReward          int64         `json:"minReward"`
	MaxReward          int64         `json:"maxReward"`
	FailPenalty        int64         `json:"failPenalty"` // applied on failure, usually negative
	SuccessProbability float64       `json:"successProbability"`
	Cooldown           time.Duration `json:"cooldown"`
	ExperienceReward   int64         `json:"experienceReward"`
	UnlockCost         int64         `json:"unlockCost"`
	RequiredLevel      int           `json:"requiredLevel"`
}

// IsStarter reports whether the command is available without a purchase
func (d *CommandDefinition) IsStarter() bool {
	return d.UnlockCost == 0
}

// ExperienceFor returns the experience granted for one invocation attempt.
// Success grants the full reward, failure a quarter of it with a minimum of
// 1, capped at the success grant so failure never outpays success.
func (d *CommandDefinition) ExperienceFor(success bool) int64 {
	if success {
		return d.ExperienceReward
	}
	xp := d.ExperienceReward / 4
	if xp < 1 {
		xp = 1
	}
	if xp > d.ExperienceReward {
		xp = d.ExperienceReward
	}
	return xp
}

// Validate checks the definition for configuration errors. Any error here is
// a fatal misconfiguration and must fail catalog load.
func (d *CommandDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("command id must not be empty")
	}
	if d.MinReward > d.MaxReward {
		return fmt.Errorf("command %s: min reward %d exceeds max reward %d", d.ID, d.MinReward, d.MaxReward)
	}
	if d.SuccessProbability < 0 || d.SuccessProbability > 1 {
		return fmt.Errorf("command %s: success probability %f outside [0,1]", d.ID, d.SuccessProbability)
	}
	if d.Cooldown < 0 {
		return fmt.Errorf("command %s: cooldown must not be negative", d.ID)
	}
	if d.ExperienceReward < 0 {
		return fmt.Errorf("command %s: experience reward must not be negative", d.ID)
	}
	if d.UnlockCost < 0 {
		return fmt.Errorf("command %s: unlock cost must not be negative", d.ID)
	}
	if d.RequiredLevel < 0 {
		return fmt.Errorf("command %s: required level must not be negative", d.ID)
	}
	return nil
}
