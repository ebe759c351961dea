package domain

import "strings"

// InviteeKind discriminates the ways a caller may identify an invitee.
type InviteeKind int

const (
	// InviteeKindEmail is a bare email address.
	InviteeKindEmail InviteeKind = iota
	// InviteeKindStudentID is a roster id to resolve against the student directory.
	InviteeKindStudentID
	// InviteeKindRecord is an explicit email/name pair.
	InviteeKindRecord
)

// Invitee is a tagged union over the accepted invitee identifications.
// Construct via InviteeByEmail, InviteeByStudentID, or InviteeRecord.
type Invitee struct {
	Kind      InviteeKind
	Email     string
	StudentID string
	Name      string
}

// InviteeByEmail identifies an invitee by bare email address.
func InviteeByEmail(email string) Invitee {
	return Invitee{Kind: InviteeKindEmail, Email: email}
}

// InviteeByStudentID identifies an invitee by roster id.
func InviteeByStudentID(id string) Invitee {
	return Invitee{Kind: InviteeKindStudentID, StudentID: id}
}

// InviteeRecord identifies an invitee by an explicit email/name pair.
func InviteeRecord(email, name string) Invitee {
	return Invitee{Kind: InviteeKindRecord, Email: email, Name: name}
}

// ParseInvitee classifies a raw list entry: strings containing "@" are
// emails, everything else a student id.
func ParseInvitee(raw string) Invitee {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "@") {
		return InviteeByEmail(raw)
	}
	return InviteeByStudentID(raw)
}

// ResolvedInvitee is a confirmed email plus display name after directory
// resolution.
type ResolvedInvitee struct {
	Email string
	Name  string
}
