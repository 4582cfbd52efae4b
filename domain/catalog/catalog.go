// Package catalog holds the immutable set of command definitions and answers
// eligibility questions. It is pure configuration plus lookup; all mutable
// player state is passed in by the caller.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"netrunner/domain/entities"
)

// ErrUnknownCommand is returned when a command id matches no definition
var ErrUnknownCommand = errors.New("unknown command")

// Catalog is an immutable lookup of command definitions
type Catalog struct {
	byID  map[string]*entities.CommandDefinition
	order []string
}

// New builds a catalog from definitions, rejecting any misconfiguration.
// Validation happens here, at load time, never at invocation time.
func New(definitions []entities.CommandDefinition) (*Catalog, error) {
	byID := make(map[string]*entities.CommandDefinition, len(definitions))
	order := make([]string, 0, len(definitions))
	for i := range definitions {
		def := definitions[i]
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog entry: %w", err)
		}
		if _, exists := byID[def.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog entry %q", def.ID)
		}
		byID[def.ID] = &def
		order = append(order, def.ID)
	}
	return &Catalog{byID: byID, order: order}, nil
}

// Load builds the catalog from a JSON file, or the built-in defaults when
// path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(DefaultDefinitions())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	definitions := make([]entities.CommandDefinition, 0, len(file.Commands))
	for _, entry := range file.Commands {
		definitions = append(definitions, entry.definition())
	}
	return New(definitions)
}

// Get returns the definition for a command id
func (c *Catalog) Get(commandID string) (*entities.CommandDefinition, error) {
	def, ok := c.byID[commandID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, commandID)
	}
	return def, nil
}

// All returns every definition in load order
func (c *Catalog) All() []*entities.CommandDefinition {
	definitions := make([]*entities.CommandDefinition, 0, len(c.order))
	for _, id := range c.order {
		definitions = append(definitions, c.byID[id])
	}
	return definitions
}

// IsUnlockedFor reports whether a player may invoke a command: either the
// definition is a starter command (zero unlock cost), or the player has
// purchased it and meets the level requirement.
func (c *Catalog) IsUnlockedFor(player *entities.Player, unlocked entities.UnlockSet, commandID string) (bool, error) {
	def, err := c.Get(commandID)
	if err != nil {
		return false, err
	}
	if !player.MeetsLevel(def.RequiredLevel) {
		return false, nil
	}
	if def.IsStarter() {
		return true, nil
	}
	return unlocked.Contains(commandID), nil
}

// catalogFile is the on-disk JSON representation. Durations are expressed
// in seconds to keep hand-edited files readable.
type catalogFile struct {
	Commands []catalogEntry `json:"commands"`
}

type catalogEntry struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	MinReward          int64   `json:"minReward"`
	MaxReward          int64   `json:"maxReward"`
	FailPenalty        int64   `json:"failPenalty"`
	SuccessProbability float64 `json:"successProbability"`
	CooldownSec        int64   `json:"cooldownSec"`
	ExperienceReward   int64   `json:"xpReward"`
	UnlockCost         int64   `json:"unlockCost"`
	RequiredLevel      int     `json:"requiredLevel"`
}

func (e catalogEntry) definition() entities.CommandDefinition {
	return entities.CommandDefinition{
		ID:                 e.ID,
		Title:              e.Title,
		MinReward:          e.MinReward,
		MaxReward:          e.MaxReward,
		FailPenalty:        e.FailPenalty,
		SuccessProbability: e.SuccessProbability,
		Cooldown:           time.Duration(e.CooldownSec) * time.Second,
		ExperienceReward:   e.ExperienceReward,
		UnlockCost:         e.UnlockCost,
		RequiredLevel:      e.RequiredLevel,
	}
}

// DefaultDefinitions returns the built-in command set
func DefaultDefinitions() []entities.CommandDefinition {
	definitions := []entities.CommandDefinition{
		{
			ID:                 "phish",
			Title:              "Phish",
			MinReward:          1,
			MaxReward:          5,
			FailPenalty:        -2,
			SuccessProbability: 0.71,
			Cooldown:           12 * time.Second,
			ExperienceReward:   10,
			UnlockCost:         0,
			RequiredLevel:      1,
		},
		{
			ID:                 "scan-port",
			Title:              "Scan Port",
			MinReward:          8,
			MaxReward:          14,
			FailPenalty:        -5,
			SuccessProbability: 0.62,
			Cooldown:           45 * time.Second,
			ExperienceReward:   25,
			UnlockCost:         80,
			RequiredLevel:      5,
		},
		{
			ID:                 "load-gitconfig-pulse",
			Title:              "Load Gitconfig PULSE",
			MinReward:          40,
			MaxReward:          65,
			FailPenalty:        -20,
			SuccessProbability: 0.55,
			Cooldown:           180 * time.Second,
			ExperienceReward:   80,
			UnlockCost:         300,
			RequiredLevel:      14,
		},
	}
	sort.SliceStable(definitions, func(i, j int) bool {
		return definitions[i].UnlockCost < definitions[j].UnlockCost
	})
	return definitions
}
