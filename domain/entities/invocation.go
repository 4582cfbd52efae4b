package entities

import "time"

// OutcomeReason classifies the result of one invocation attempt
type OutcomeReason string

const (
	ReasonSuccess  OutcomeReason = "success"
	ReasonFailed   OutcomeReason = "failed"
	ReasonCooldown OutcomeReason = "cooldown"
	ReasonLocked   OutcomeReason = "locked"
	ReasonBanned   OutcomeReason = "banned"
)

// IsPolicyRejection reports whether the reason is a negative-but-legitimate
// outcome rather than a win/loss roll
func (r OutcomeReason) IsPolicyRejection() bool {
	return r == ReasonCooldown || r == ReasonLocked || r == ReasonBanned
}

// Outcome is the result of one invocation attempt as returned to the caller
type Outcome struct {
	TraceID        string
	CommandID      string
	OK             bool
	Reason         OutcomeReason
	Delta          int64
	NewBalance     int64
	ExperienceGain int64
	NextEligibleAt time.Time
	Replayed       bool
}

// InvocationTrace is the append-only record of one attempt. It doubles as the
// idempotency ledger: a replay of the same (player, trace) pair returns the
// stored outcome instead of re-executing.
type InvocationTrace struct {
	ID             int64         `db:"id"`
	PlayerID       string        `db:"player_id"`
	TraceID        string        `db:"trace_id"`
	CommandID      string        `db:"command_id"`
	OK             bool          `db:"ok"`
	Reason         OutcomeReason `db:"reason"`
	Delta          int64         `db:"delta"`
	NewBalance     int64         `db:"new_balance"`
	ExperienceGain int64         `db:"xp_gained"`
	NextEligibleAt *time.Time    `db:"next_eligible_at"`
	CreatedAt      time.Time     `db:"created_at"`
}

// Outcome reconstructs the caller-facing outcome stored in the trace
func (t *InvocationTrace) Outcome() *Outcome {
	outcome := &Outcome{
		TraceID:        t.TraceID,
		CommandID:      t.CommandID,
		OK:             t.OK,
		Reason:         t.Reason,
		Delta:          t.Delta,
		NewBalance:     t.NewBalance,
		ExperienceGain: t.ExperienceGain,
		Replayed:       true,
	}
	if t.NextEligibleAt != nil {
		outcome.NextEligibleAt = *t.NextEligibleAt
	}
	return outcome
}

// NewTrace builds the trace row for an outcome
func NewTrace(playerID string, outcome *Outcome) *InvocationTrace {
	trace := &InvocationTrace{
		PlayerID:       playerID,
		TraceID:        outcome.TraceID,
		CommandID:      outcome.CommandID,
		OK:             outcome.OK,
		Reason:         outcome.Reason,
		Delta:          outcome.Delta,
		NewBalance:     outcome.NewBalance,
		ExperienceGain: outcome.ExperienceGain,
	}
	if !outcome.NextEligibleAt.IsZero() {
		at := outcome.NextEligibleAt
		trace.NextEligibleAt = &at
	}
	return trace
}
