package domain

import "context"

// LegacyCalendarEntry is a row from the pre-migration calendar store.
type LegacyCalendarEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// CalendarEntry converts a legacy row for calendar display.
func (l LegacyCalendarEntry) CalendarEntry() CalendarEntry {
	return CalendarEntry{
		ID:    l.ID,
		Title: l.Title,
		Start: l.Start,
		End:   l.End,
		ExtendedProps: CalendarEntryProps{
			IsPublic: true,
		},
	}
}

// LegacyCalendarRepository reads the legacy calendar kept alive during the
// migration. Implementations may be absent; callers treat a nil repository
// as an empty legacy feed.
type LegacyCalendarRepository interface {
	ListEntries(ctx context.Context) ([]LegacyCalendarEntry, error)
}
