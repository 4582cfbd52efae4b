package services

import "errors"

var (
	// ErrUnknownPlayer is returned when the player id references no account
	ErrUnknownPlayer = errors.New("unknown player")

	// ErrInsufficientBalance is returned when a purchase exceeds the balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrLevelTooLow is returned when a purchase requires a higher level
	ErrLevelTooLow = errors.New("player level too low")

	// ErrStarterCommand is returned when a purchase targets a free command
	ErrStarterCommand = errors.New("command does not require an unlock")
)
