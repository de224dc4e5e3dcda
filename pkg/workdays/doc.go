// Package workdays implements a business-time calendar: holidays, excluded
// weekdays and recurring intraday sessions, plus the day traversal, border
// search, business-time arithmetic and bulk masking built on top of them.
//
// A *Calendar is an immutable snapshot produced by Rebuild. Changing any of
// its inputs means building a new snapshot; the old one stays valid for
// readers that still hold it, so a Calendar is safe for concurrent use.
//
// Instants are interpreted by their wall clock. The location carried by a
// time.Time is never consulted for arithmetic; results are returned in the
// location of the instant passed in. Use StripOffsets and Zone.Attach to move
// offset-tagged inputs across this boundary.
package workdays
