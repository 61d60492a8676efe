package database

import "errors"

// Set of errors returned by the blockchain engine. Callers test for them
// with errors.Is since most are wrapped with the reason for the failure.
var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidBlock       = errors.New("invalid block")
	ErrMiningTimeout      = errors.New("mining attempts exhausted")
	ErrTxConflict         = errors.New("transaction conflicts with a known spend")
	ErrTxKnown            = errors.New("transaction already known")
)
