package domain

import "errors"

var (
	// ErrSubscriptionFailed is returned when subscription to events fails
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrMissingConfig is returned when a required endpoint or source address is not configured
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrMalformedPayload is returned when an event payload cannot be projected
	ErrMalformedPayload = errors.New("malformed event payload")

	// ErrUnknownEvent is returned when no handler is registered for a source/event pair
	ErrUnknownEvent = errors.New("unknown event")

	// ErrTicketNotFound is returned when an event references a ticket that was never minted
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrListingConflict is returned when a ticket already has a different active listing
	ErrListingConflict = errors.New("listing already exists")

	// ErrQueryFailed is returned when the projection cannot be read
	ErrQueryFailed = errors.New("query failed")

	// ErrInvalidAddress is returned when an address is not a valid hex account address
	ErrInvalidAddress = errors.New("invalid address")
)
