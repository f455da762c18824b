package services

import "errors"

// Domain errors. Handlers translate these into the uniform apology
// response; anything not listed here is treated as internal and its
// message is suppressed from the client.
var (
	// ErrSymbolNotFound means the quote provider has no listing for the
	// requested symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInvalidShares rejects a non-positive share count before any
	// lookup or mutation happens.
	ErrInvalidShares = errors.New("shares must be a positive whole number")

	// ErrInsufficientFunds rejects a buy whose cost exceeds the user's
	// cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoSuchHolding rejects a sell of a symbol the user holds none of.
	ErrNoSuchHolding = errors.New("no shares held for that symbol")

	// ErrInsufficientShares rejects a sell larger than the current
	// position.
	ErrInsufficientShares = errors.New("insufficient shares to sell")

	// ErrUsernameTaken rejects registration or rename onto an existing
	// username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials covers unknown user and wrong password alike;
	// the message never reveals which it was.
	ErrInvalidCredentials = errors.New("invalid username and/or password")

	// ErrDuplicateRequest rejects a trade whose request id was already
	// claimed, so a double-submitted form executes at most once.
	ErrDuplicateRequest = errors.New("duplicate trade request")
)
