package entities

// TransactionType represents the type of balance change
type TransactionType string

// All transaction types supported by the system
const (
	// Command execution transactions
	TransactionTypeCommandReward  TransactionType = "command_reward"
	TransactionTypeCommandPenalty TransactionType = "command_penalty"

	// Shop transactions
	TransactionTypeUnlockPurchase TransactionType = "unlock_purchase"

	// System transactions
	TransactionTypeInitial         TransactionType = "initial"
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
)

// IsCommandRelated returns true if the transaction came from a command invocation
func (tt TransactionType) IsCommandRelated() bool {
	return tt == TransactionTypeCommandReward || tt == TransactionTypeCommandPenalty
}

// IsSystemGenerated returns true if the transaction type is system-generated
func (tt TransactionType) IsSystemGenerated() bool {
	return tt == TransactionTypeInitial || tt == TransactionTypeAdminAdjustment
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
