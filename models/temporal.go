package models

import (
	"fmt"
	"time"
)

// DateValue is a calendar date with no time-of-day or zone, used by
// Birthday and Anniversary. Year-omitted --MMDD dates never become a
// DateValue: the codec skips them (spec.md's "free-form year-omitted
// birthdays" are a Non-goal).
type DateValue struct {
	Year  int
	Month time.Month
	Day   int
}

func (d DateValue) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TemporalClaimKind tags the three shapes a temporal claim can take.
type TemporalClaimKind string

const (
	TemporalInstant TemporalClaimKind = "instant"
	TemporalDate    TemporalClaimKind = "date"
	TemporalUnknown TemporalClaimKind = "unknown"
)

// TemporalClaim is a claim about when something became (or stopped being)
// true: an exact instant, a calendar date, or an opaque "we know it
// happened but not when" marker. Distinct from Fact.RecordedAt, which is
// assigned by the store and never a claim about the world.
type TemporalClaim struct {
	Kind    TemporalClaimKind
	Instant time.Time
	Date    DateValue
}

func InstantClaim(t time.Time) TemporalClaim {
	return TemporalClaim{Kind: TemporalInstant, Instant: t}
}

func DateClaim(d DateValue) TemporalClaim {
	return TemporalClaim{Kind: TemporalDate, Date: d}
}

func UnknownClaim() TemporalClaim {
	return TemporalClaim{Kind: TemporalUnknown}
}
