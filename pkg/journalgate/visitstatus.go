package journalgate

import "time"

// ResolveVisitStatus computes the display status of a place from its visit
// window. Pure and deterministic: today is injected so the precedence rules
// stay testable without wall-clock reads.
//
// Precedence, highest first:
//  1. An explicit Status written by new-schema records is authoritative.
//  2. A planned start without a visit date is a planned-but-not-visited place.
//  3. A visit date is compared to today by calendar day, inclusive.
//  4. Nothing set: unknown.
func ResolveVisitStatus(w VisitWindow, today time.Time) VisitStatus {
	if w.Status != "" {
		return w.Status
	}
	if w.PlannedStart != nil && w.DateVisited == nil {
		return VisitStatusToVisit
	}
	if w.DateVisited != nil {
		// Both timestamps are read in today's location so records carrying a
		// different zone land on the same calendar.
		if !dayOf(w.DateVisited.In(today.Location())).After(dayOf(today)) {
			return VisitStatusVisited
		}
		return VisitStatusToVisit
	}
	return VisitStatusUnknown
}

// dayOf strips time-of-day so two timestamps on the same calendar day
// compare equal regardless of hour.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
