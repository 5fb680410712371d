package domain

import "errors"

// Validation errors: malformed input, rejected before any state change.
var (
	ErrValidation = errors.New("invalid input")
)

// Business rejections: well-formed requests that violate a domain rule.
var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionNotLive    = errors.New("auction is not live")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrSameBidder        = errors.New("already the highest bidder")
	ErrInvalidTransition = errors.New("invalid auction status transition")
	ErrNotSettleable     = errors.New("auction is not ready for settlement")
	ErrNotWinner         = errors.New("not the winning bidder")
	ErrMissingSeller     = errors.New("auction missing seller information")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrAlreadySettled    = errors.New("transaction already exists for auction")
	ErrNoSettlement      = errors.New("no completed transaction for auction")
	ErrDuplicateReview   = errors.New("review already submitted for auction")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
)

// ErrUpstreamUnavailable marks a dependency call that failed or timed out,
// distinct from a negative business answer. Retryable by the caller.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")
