package ledger

import "errors"

var (
	// ErrInvalidArgument covers non-positive amounts or prices, empty
	// names, and out-of-range percentages.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientFunds means a buy would push cash below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings means a sell exceeds the held amount.
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)
