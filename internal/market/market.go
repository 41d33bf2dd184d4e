// Package market describes one live instance of the 15-minute Bitcoin market.
package market

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// MaxDuration is the longest market accepted as a 15-minute instance.
// Daily and longer markets can match the search on a title substring.
const MaxDuration = 30 * time.Minute

// Side is one outcome of a binary market.
type Side string

const (
	Yes Side = "YES"
	No  Side = "NO"
)

// Descriptor is an immutable view of a discovered market.
type Descriptor struct {
	Title       string
	YesTokenID  string
	NoTokenID   string
	StartTime   time.Time
	EndTime     time.Time
	ConditionID string
	// QuestionID is empty when the exchange omits it.
	QuestionID string
}

// Validate checks the invariants every descriptor handed to a session holds.
func (d Descriptor) Validate() error {
	if d.YesTokenID == "" || d.NoTokenID == "" {
		return errors.New("missing outcome token id")
	}
	if d.YesTokenID == d.NoTokenID {
		return fmt.Errorf("outcome tokens are identical: %s", d.YesTokenID)
	}
	if !d.EndTime.After(d.StartTime) {
		return fmt.Errorf("end %s is not after start %s", d.EndTime, d.StartTime)
	}
	if d.Duration() > MaxDuration {
		return fmt.Errorf("duration %s exceeds %s", d.Duration(), MaxDuration)
	}
	return nil
}

func (d Descriptor) Duration() time.Duration {
	return d.EndTime.Sub(d.StartTime)
}

// Live reports whether now falls within [StartTime, EndTime).
func (d Descriptor) Live(now time.Time) bool {
	return !now.Before(d.StartTime) && now.Before(d.EndTime)
}

// SideOf maps an asset id to the outcome it prices.
func (d Descriptor) SideOf(assetID string) (Side, bool) {
	switch assetID {
	case d.YesTokenID:
		return Yes, true
	case d.NoTokenID:
		return No, true
	default:
		return "", false
	}
}

// TokenIDs returns the outcome tokens in subscription order.
func (d Descriptor) TokenIDs() []string {
	return []string{d.YesTokenID, d.NoTokenID}
}

func (d Descriptor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("title", d.Title),
		slog.String("condition_id", d.ConditionID),
		slog.Time("end", d.EndTime),
	)
}
