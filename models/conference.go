package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAmbiguousParticipant is a data integrity fault: one id matched several participants
var ErrAmbiguousParticipant = errors.New("participant id matches more than one participant")

// Conference holds the structure for the conferences collection in mongo.
// Rooms reference their members by id, participants reference their room by label.
type Conference struct {
	ID            string         `json:"_id" bson:"_id"`
	HearingID     string         `json:"hearingId" bson:"hearingId"`
	CaseName      string         `json:"caseName" bson:"caseName"`
	State         string         `json:"state" bson:"state"`
	HearingLayout string         `json:"hearingLayout" bson:"hearingLayout"`
	Participants  []Participant  `json:"participants" bson:"participants"`
	Endpoints     []Endpoint     `json:"endpoints" bson:"endpoints"`
	CivilianRooms []CivilianRoom `json:"civilianRooms" bson:"civilianRooms"`
}

// ConsultationRoom is the private room a participant or endpoint currently occupies
type ConsultationRoom struct {
	Label  string `json:"label" bson:"label"`
	Locked bool   `json:"locked" bson:"locked"`
}

// CivilianRoom is an interpreter/civilian staging room. Members are participant or endpoint ids.
type CivilianRoom struct {
	ID           string   `json:"id" bson:"id"`
	Label        string   `json:"label" bson:"label"`
	Participants []string `json:"participants" bson:"participants"`
	Locked       bool     `json:"locked" bson:"locked"`
}

// HasMember reports whether id is a member of the room
func (r CivilianRoom) HasMember(id string) bool {
	for _, m := range r.Participants {
		if m == id {
			return true
		}
	}
	return false
}

// FindParticipants returns every participant with the given id. More than one
// match means the conference document is corrupt.
func (c *Conference) FindParticipants(id string) []*Participant {
	var matches []*Participant
	for i := range c.Participants {
		if c.Participants[i].ID == id {
			matches = append(matches, &c.Participants[i])
		}
	}
	return matches
}

// Participant returns nil when id is absent and ErrAmbiguousParticipant when
// the conference holds it more than once. Callers must not pick one.
func (c *Conference) Participant(id string) (*Participant, error) {
	matches := c.FindParticipants(id)
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("%w: %s in conference %s", ErrAmbiguousParticipant, id, c.ID)
}

// FindParticipantByUsername returns the participants whose username matches, ignoring case
func (c *Conference) FindParticipantByUsername(username string) []*Participant {
	var matches []*Participant
	for i := range c.Participants {
		if strings.EqualFold(c.Participants[i].Username, username) {
			matches = append(matches, &c.Participants[i])
		}
	}
	return matches
}

// FindEndpoint returns the endpoint with the given id
func (c *Conference) FindEndpoint(id string) (*Endpoint, bool) {
	for i := range c.Endpoints {
		if c.Endpoints[i].ID == id {
			return &c.Endpoints[i], true
		}
	}
	return nil, false
}

// FindCivilianRoom returns the civilian room with the given id
func (c *Conference) FindCivilianRoom(id string) (*CivilianRoom, bool) {
	for i := range c.CivilianRooms {
		if c.CivilianRooms[i].ID == id {
			return &c.CivilianRooms[i], true
		}
	}
	return nil, false
}

// CivilianRoomFor returns the civilian room that holds the given member
func (c *Conference) CivilianRoomFor(memberID string) (*CivilianRoom, bool) {
	for i := range c.CivilianRooms {
		if c.CivilianRooms[i].HasMember(memberID) {
			return &c.CivilianRooms[i], true
		}
	}
	return nil, false
}

// ParticipantsInRoom returns the participants currently in the consultation room
func (c *Conference) ParticipantsInRoom(label string) []Participant {
	var res []Participant
	for _, p := range c.Participants {
		if p.CurrentRoom != nil && p.CurrentRoom.Label == label {
			res = append(res, p)
		}
	}
	return res
}

// EndpointsInRoom returns the endpoints currently in the consultation room
func (c *Conference) EndpointsInRoom(label string) []Endpoint {
	var res []Endpoint
	for _, e := range c.Endpoints {
		if e.CurrentRoom != nil && e.CurrentRoom.Label == label {
			res = append(res, e)
		}
	}
	return res
}

// Clone returns a deep copy so a request can reason about room moves without
// touching a snapshot shared with other requests.
func (c *Conference) Clone() *Conference {
	if c == nil {
		return nil
	}
	out := *c
	out.Participants = make([]Participant, len(c.Participants))
	for i, p := range c.Participants {
		out.Participants[i] = p.clone()
	}
	out.Endpoints = make([]Endpoint, len(c.Endpoints))
	for i, e := range c.Endpoints {
		out.Endpoints[i] = e.clone()
	}
	out.CivilianRooms = make([]CivilianRoom, len(c.CivilianRooms))
	for i, r := range c.CivilianRooms {
		r.Participants = append([]string(nil), r.Participants...)
		out.CivilianRooms[i] = r
	}
	return &out
}
