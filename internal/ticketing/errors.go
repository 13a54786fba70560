package ticketing

import "errors"

var (
	// ErrNotAuthorized is returned when the caller is not allowed to
	// perform the operation.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotInitialized is returned by operations that require a prior
	// Initialize.
	ErrNotInitialized = errors.New("not initialized")

	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrTierNotFound is returned for unknown tier symbols.
	ErrTierNotFound = errors.New("tier not found")

	// ErrTierExists is returned when adding a tier with a taken symbol.
	ErrTierExists = errors.New("tier already exists")

	// ErrTierInactive is returned when purchasing from a deactivated tier.
	ErrTierInactive = errors.New("tier inactive")

	// ErrTierSoldOut is returned when purchasing from a tier at its
	// supply cap.
	ErrTierSoldOut = errors.New("tier sold out")

	// ErrSupplyExceeded is returned when a batch mint would pass the
	// supply cap.
	ErrSupplyExceeded = errors.New("supply exceeded")

	// ErrTicketNotFound is returned for unknown token ids.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrTicketInvalid is returned when operating on an already
	// invalidated ticket.
	ErrTicketInvalid = errors.New("ticket invalid")

	// ErrRefundWindowClosed is returned for refunds after the cutoff.
	ErrRefundWindowClosed = errors.New("refund window closed")
)
