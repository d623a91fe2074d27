package discovery

import (
	"errors"
	"fmt"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrUnauthorized    = errors.New("unauthorized to perform this action")
	ErrPremiumRequired = errors.New("premium subscription required")
	ErrCannotSwipeSelf = errors.New("cannot swipe on yourself")
	ErrNothingToRewind = errors.New("no recent action to rewind")
	ErrSuperLikeLimit  = errors.New("daily super like limit reached")
	ErrInvalidItemType = errors.New("invalid item type")
)

// QuotaExceededError is returned when an unlock needs payment. It
// carries the unlock cost so the UI can render a paywall instead of a
// generic failure.
type QuotaExceededError struct {
	ItemType ItemType
	Cost     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: payment of %d required", e.ItemType, e.Cost)
}

// IsQuotaExceeded unwraps err into a QuotaExceededError if it is one.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
