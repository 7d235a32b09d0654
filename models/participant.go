package models

import "strings"

// Role is the user role a participant holds in a conference
type Role string

// Roles known to the platform
const (
	RoleNone                 Role = "None"
	RoleJudge                Role = "Judge"
	RoleStaffMember          Role = "StaffMember"
	RoleIndividual           Role = "Individual"
	RoleRepresentative       Role = "Representative"
	RoleQuickLinkObserver    Role = "QuickLinkObserver"
	RoleQuickLinkParticipant Role = "QuickLinkParticipant"
	RoleJudicialOfficeHolder Role = "JudicialOfficeHolder"
)

// RoleVhOfficer is the claim role of a video hearings officer. It never appears on a participant.
const RoleVhOfficer = "VhOfficer"

// Hearing roles the consultation and call rules care about
const (
	HearingRoleWitness       = "Witness"
	HearingRoleInterpreter   = "Interpreter"
	HearingRoleExpertWitness = "Expert Witness"
)

// LinkType describes how two participants are linked
type LinkType string

// Link types
const (
	LinkTypeInterpreter     LinkType = "Interpreter"
	LinkTypeIntermediary    LinkType = "Intermediary"
	LinkTypeDefenceAdvocate LinkType = "DefenceAdvocate"
)

// LinkedParticipant is a relation from one participant to another
type LinkedParticipant struct {
	LinkedID string   `json:"linkedId" bson:"linkedId"`
	LinkType LinkType `json:"linkType" bson:"linkType"`
}

// Participant holds the structure for a conference participant
type Participant struct {
	ID                  string              `json:"id" bson:"id"`
	Username            string              `json:"username" bson:"username"`
	DisplayName         string              `json:"displayName" bson:"displayName"`
	Role                Role                `json:"role" bson:"role"`
	HearingRole         string              `json:"hearingRole" bson:"hearingRole"`
	ExternalReferenceID string              `json:"externalReferenceId" bson:"externalReferenceId"`
	LinkedParticipants  []LinkedParticipant `json:"linkedParticipants" bson:"linkedParticipants"`
	CurrentRoom         *ConsultationRoom   `json:"currentRoom,omitempty" bson:"currentRoom,omitempty"`
	ProtectedFrom       []string            `json:"protectedFrom" bson:"protectedFrom"`
	HandRaised          bool                `json:"handRaised" bson:"handRaised"`
}

// IsHost is true for judges and staff members
func (p Participant) IsHost() bool {
	return p.Role == RoleJudge || p.Role == RoleStaffMember
}

// IsJudicial is true for hosts and judicial office holders, who may invite without being in the room
func (p Participant) IsJudicial() bool {
	return p.IsHost() || p.Role == RoleJudicialOfficeHolder
}

// IsWitness is true when the hearing role is a witness of any kind
func (p Participant) IsWitness() bool {
	return strings.EqualFold(p.HearingRole, HearingRoleWitness) ||
		strings.EqualFold(p.HearingRole, HearingRoleExpertWitness)
}

// IsQuickLinkUser is true for quick link observers and participants
func (p Participant) IsQuickLinkUser() bool {
	return p.Role == RoleQuickLinkObserver || p.Role == RoleQuickLinkParticipant
}

// LinkedIDs returns the ids of every linked participant
func (p Participant) LinkedIDs() []string {
	ids := make([]string, 0, len(p.LinkedParticipants))
	for _, l := range p.LinkedParticipants {
		ids = append(ids, l.LinkedID)
	}
	return ids
}

// IsProtectedFrom reports whether ref is in the participant's screening list
func (p Participant) IsProtectedFrom(ref string) bool {
	return ref != "" && containsString(p.ProtectedFrom, ref)
}

func (p Participant) clone() Participant {
	p.LinkedParticipants = append([]LinkedParticipant(nil), p.LinkedParticipants...)
	p.ProtectedFrom = append([]string(nil), p.ProtectedFrom...)
	if p.CurrentRoom != nil {
		room := *p.CurrentRoom
		p.CurrentRoom = &room
	}
	return p
}

// Endpoint holds the structure for a video endpoint in a conference
type Endpoint struct {
	ID                         string            `json:"id" bson:"id"`
	DisplayName                string            `json:"displayName" bson:"displayName"`
	ExternalReferenceID        string            `json:"externalReferenceId" bson:"externalReferenceId"`
	LinkedParticipantUsernames []string          `json:"linkedParticipantUsernames" bson:"linkedParticipantUsernames"`
	ProtectedFrom              []string          `json:"protectedFrom" bson:"protectedFrom"`
	CurrentRoom                *ConsultationRoom `json:"currentRoom,omitempty" bson:"currentRoom,omitempty"`
}

// IsProtectedFrom reports whether ref is in the endpoint's screening list
func (e Endpoint) IsProtectedFrom(ref string) bool {
	return ref != "" && containsString(e.ProtectedFrom, ref)
}

func (e Endpoint) clone() Endpoint {
	e.LinkedParticipantUsernames = append([]string(nil), e.LinkedParticipantUsernames...)
	e.ProtectedFrom = append([]string(nil), e.ProtectedFrom...)
	if e.CurrentRoom != nil {
		room := *e.CurrentRoom
		e.CurrentRoom = &room
	}
	return e
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
