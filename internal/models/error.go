package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrConflictData       = errors.New("data conflicts with existing data")
	ErrDataNotFound       = errors.New("data not found")
	ErrListingUnavailable = errors.New("listing is unavailable")
	ErrAlreadyResolved    = errors.New("order is already resolved")
	ErrNotAnAuction       = errors.New("listing is not an auction")
	ErrAuctionClosed      = errors.New("auction has ended")
	ErrBidTooLow          = errors.New("bid must be higher than current bid")
	ErrBidConflict        = errors.New("bid conflicts with a concurrent bid")
	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrInvalidEvent       = errors.New("malformed webhook event")
	ErrSessionRejected    = errors.New("gateway rejected checkout session")
	ErrInternalError      = errors.New("internal error")
)

// TooManyRequestsError is returned when the gateway asks to back off
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func NewTooManyRequestsError(retryAfter time.Duration) TooManyRequestsError {
	return TooManyRequestsError{RetryAfter: retryAfter}
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %v", e.RetryAfter)
}
