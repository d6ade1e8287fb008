package errors

import "errors"

var (
	ErrInvalidCaller            = errors.New("caller identity is required")
	ErrInvalidAmount            = errors.New("packet amount must be positive")
	ErrWrongAmount              = errors.New("packet amount must equal the fixed amount")
	ErrInvalidCount             = errors.New("packet count must be between 1 and 100")
	ErrInvalidMessage           = errors.New("packet message is too long")
	ErrInvalidAllocation        = errors.New("amount cannot be split into strictly positive shares")
	ErrPacketNotFound           = errors.New("red packet does not exist")
	ErrPacketExhausted          = errors.New("no packets remaining")
	ErrSelfClaimForbidden       = errors.New("creator cannot claim own packet")
	ErrAlreadyClaimed           = errors.New("already claimed")
	ErrInvalidPacketID          = errors.New("packet id must be a non-negative integer")
	ErrInvalidListFilter        = errors.New("invalid list filter")
	ErrIdempotencyKeyConflict   = errors.New("idempotency key reused with different request")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
