package service

import (
	"fmt"
	"regexp"
	"time"

	"github.com/TML-4PM/Partner-Portal/internal/app/model"
)

var partnerIDPattern = regexp.MustCompile(`^[A-Za-z0-9-_]{4,32}$`)

// minEventTime rejects timestamps from before the platform existed, which
// are almost always client clock bugs.
var minEventTime = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxFutureSkew caps how far ahead of server time a client timestamp may
// run before it is treated as a clock bug rather than ordinary skew.
const maxFutureSkew = 5 * time.Minute

// ValidateEvent checks the structural validity of an incoming event. It
// performs no I/O and never mutates the event. All failures wrap
// ErrInvalidEvent.
func ValidateEvent(event *model.Event) error {
	if event == nil {
		return fmt.Errorf("%w: event is nil", ErrInvalidEvent)
	}
	if event.PartnerID == "" {
		return fmt.Errorf("%w: partnerId is required", ErrInvalidEvent)
	}
	if !partnerIDPattern.MatchString(event.PartnerID) {
		return fmt.Errorf("%w: partnerId %q is malformed", ErrInvalidEvent, event.PartnerID)
	}
	if event.EventType == "" {
		return fmt.Errorf("%w: eventType is required", ErrInvalidEvent)
	}
	if !event.EventType.Valid() {
		return fmt.Errorf("%w: unknown eventType %q", ErrInvalidEvent, event.EventType)
	}
	if event.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}
	if event.Timestamp.Before(minEventTime) {
		return fmt.Errorf("%w: timestamp %s predates the platform", ErrInvalidEvent, event.Timestamp.Format(time.RFC3339))
	}
	if event.Timestamp.After(time.Now().Add(maxFutureSkew)) {
		return fmt.Errorf("%w: timestamp %s is in the future", ErrInvalidEvent, event.Timestamp.Format(time.RFC3339))
	}
	if event.Metadata.Duration < 0 {
		return fmt.Errorf("%w: metadata.duration must not be negative", ErrInvalidEvent)
	}
	if event.Metadata.Value < 0 {
		return fmt.Errorf("%w: metadata.value must not be negative", ErrInvalidEvent)
	}
	return nil
}
