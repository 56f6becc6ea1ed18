package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrConflict        = errors.New("conflicting state or duplicate entity")
	ErrInvalidState    = errors.New("operation not valid for current state")
	ErrInvalidArgument = errors.New("invalid argument")

	// Payment / gateway errors
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
	ErrRefundNotAllowed          = errors.New("refund not allowed for this payment")

	// Storage-layer errors
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction execution context")
)
