package auction

import "errors"

var (
	// ErrAuctionComplete matches every result that ends the call sequence
	ErrAuctionComplete = errors.New("auction complete")
	// ErrAtBoundary matches retreats that would move before the first player
	ErrAtBoundary = errors.New("auction at boundary")

	ErrNoPlayersLoaded  error = &resultError{kind: ErrAuctionComplete, message: "No players loaded"}
	ErrAllPlayersCalled error = &resultError{kind: ErrAuctionComplete, message: "All players have been called!"}
	ErrAtFirstPlayer    error = &resultError{kind: ErrAtBoundary, message: "Already at first player"}
)

// resultError is a non-fatal outcome of Advance or Retreat. Its message is
// what gets shown to observers.
type resultError struct {
	kind    error
	message string
}

func (e *resultError) Error() string {
	return e.message
}

func (e *resultError) Unwrap() error {
	return e.kind
}
