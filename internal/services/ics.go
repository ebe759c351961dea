package services

import (
	"fmt"
	"strings"
	"time"

	"clubcalendar/internal/domain"
)

const icsTimeLayout = "20060102T150405Z"

// buildCalendarInvite renders an iCalendar REQUEST for the event, addressed
// to the invitee, suitable for attaching to the invitation email. Calendar
// clients key on UID to match later updates to the same event.
func buildCalendarInvite(event *domain.Event, inv *domain.Invitation, organizationName, fromEmail string) string {
	start, err := domain.ParseISODate(event.StartDate)
	if err != nil {
		return ""
	}
	end, err := domain.ParseISODate(event.EndDate)
	if err != nil {
		end = start
	}

	var b strings.Builder
	writeICSLine(&b, "BEGIN:VCALENDAR")
	writeICSLine(&b, "VERSION:2.0")
	writeICSLine(&b, fmt.Sprintf("PRODID:-//%s//Event Calendar//EN", organizationName))
	writeICSLine(&b, "METHOD:REQUEST")
	writeICSLine(&b, "BEGIN:VEVENT")
	writeICSLine(&b, fmt.Sprintf("UID:event-%d@clubcalendar", event.ID))
	writeICSLine(&b, "DTSTAMP:"+time.Now().UTC().Format(icsTimeLayout))
	writeICSLine(&b, "DTSTART:"+start.UTC().Format(icsTimeLayout))
	writeICSLine(&b, "DTEND:"+end.UTC().Format(icsTimeLayout))
	writeICSLine(&b, "SUMMARY:"+escapeICSText(event.Title))
	if event.Description != "" {
		writeICSLine(&b, "DESCRIPTION:"+escapeICSText(event.Description))
	}
	if event.Location != "" {
		writeICSLine(&b, "LOCATION:"+escapeICSText(event.Location))
	}
	writeICSLine(&b, fmt.Sprintf("ORGANIZER;CN=%s:mailto:%s", escapeICSText(organizationName), fromEmail))
	attendeeName := inv.InviteeName
	if attendeeName == "" {
		attendeeName = inv.InviteeEmail
	}
	writeICSLine(&b, fmt.Sprintf("ATTENDEE;CN=%s;RSVP=TRUE:mailto:%s", escapeICSText(attendeeName), inv.InviteeEmail))
	writeICSLine(&b, "STATUS:CONFIRMED")
	writeICSLine(&b, "END:VEVENT")
	writeICSLine(&b, "END:VCALENDAR")
	return b.String()
}

// writeICSLine appends one content line with CRLF termination per RFC 5545.
func writeICSLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}

func escapeICSText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
