// Package notifier fans consultation and hearing events out to subscriber
// groups. A group is the lower-cased username of a participant, or the
// fixed admin group every video hearings officer listens on.
package notifier

import (
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/linesmerrill/video-hearings-api/models"
)

// AdminGroup receives every event
const AdminGroup = "VhOfficers"

// Event names as clients subscribe to them
const (
	EventRequestedConsultation = "RequestedConsultationMessage"
	EventAdminConsultation     = "AdminConsultationMessage"
	EventConsultationResponse  = "ConsultationRequestResponseMessage"
	EventRoomTransfer          = "RoomTransfer"
	EventRoomUpdate            = "RoomUpdate"
	EventHandRaise             = "ParticipantHandRaiseMessage"
)

// Publisher delivers one event to one group. Delivery is fire and forget.
type Publisher interface {
	Publish(group, event string, payload interface{})
}

// ConsultationRequestMessage tells the invitees someone wants them in a room
type ConsultationRequestMessage struct {
	ConferenceID   string `json:"conferenceId"`
	InvitationID   string `json:"invitationId"`
	RoomLabel      string `json:"roomLabel"`
	RequestedByID  string `json:"requestedBy"`
	RequestedForID string `json:"requestedFor"`
}

// ConsultationResponseMessage carries an answer, including the synthetic Transferring state
type ConsultationResponseMessage struct {
	ConferenceID   string                    `json:"conferenceId"`
	InvitationID   string                    `json:"invitationId"`
	RoomLabel      string                    `json:"roomLabel"`
	RequestedForID string                    `json:"requestedFor"`
	Answer         models.ConsultationAnswer `json:"answer"`
}

// RoomTransferMessage announces a participant or endpoint moving into a room
type RoomTransferMessage struct {
	ConferenceID  string `json:"conferenceId"`
	ParticipantID string `json:"participantId"`
	ToRoom        string `json:"toRoom"`
}

// RoomUpdateMessage announces a lock change
type RoomUpdateMessage struct {
	ConferenceID string `json:"conferenceId"`
	RoomLabel    string `json:"label"`
	Locked       bool   `json:"locked"`
}

// HandRaiseMessage announces a hand being raised or lowered
type HandRaiseMessage struct {
	ConferenceID  string `json:"conferenceId"`
	ParticipantID string `json:"participantId"`
	HasHandRaised bool   `json:"hasHandRaised"`
}

// Notifier turns domain events into group publishes
type Notifier struct {
	publisher Publisher
}

// New creates a Notifier publishing through p
func New(p Publisher) *Notifier {
	return &Notifier{publisher: p}
}

// NotifyConsultationRequest tells every invitee about a pending invitation
func (n *Notifier) NotifyConsultationRequest(conf *models.Conference, invitationID, roomLabel, requestedByID, requestedForID string, recipients []string) {
	n.publish(groupsFor(conf, recipients), EventRequestedConsultation, ConsultationRequestMessage{
		ConferenceID:   conf.ID,
		InvitationID:   invitationID,
		RoomLabel:      roomLabel,
		RequestedByID:  requestedByID,
		RequestedForID: requestedForID,
	})
}

// NotifyAdminConsultationRequest is the variant used when a video hearings officer invites
func (n *Notifier) NotifyAdminConsultationRequest(conf *models.Conference, invitationID, roomLabel, requestedForID string, recipients []string) {
	n.publish(groupsFor(conf, recipients), EventAdminConsultation, ConsultationRequestMessage{
		ConferenceID:   conf.ID,
		InvitationID:   invitationID,
		RoomLabel:      roomLabel,
		RequestedForID: requestedForID,
	})
}

// NotifyConsultationResponse tells every party how the invitation stands
func (n *Notifier) NotifyConsultationResponse(conf *models.Conference, invitationID, roomLabel, requestedForID string, answer models.ConsultationAnswer, recipients []string) {
	n.publish(groupsFor(conf, recipients), EventConsultationResponse, ConsultationResponseMessage{
		ConferenceID:   conf.ID,
		InvitationID:   invitationID,
		RoomLabel:      roomLabel,
		RequestedForID: requestedForID,
		Answer:         answer,
	})
}

// NotifyParticipantTransferring announces a move into roomLabel. For an
// endpoint the linked participants are told instead, it has no username.
func (n *Notifier) NotifyParticipantTransferring(conf *models.Conference, participantID, roomLabel string) {
	var groups []string
	if ep, ok := conf.FindEndpoint(participantID); ok {
		groups = lo.Map(ep.LinkedParticipantUsernames, func(u string, _ int) string { return strings.ToLower(u) })
		groups = append(groups, AdminGroup)
	} else {
		groups = groupsFor(conf, []string{participantID})
	}
	n.publish(lo.Uniq(groups), EventRoomTransfer, RoomTransferMessage{
		ConferenceID:  conf.ID,
		ParticipantID: participantID,
		ToRoom:        roomLabel,
	})
}

// NotifyRoomUpdate tells the room occupants about a lock change
func (n *Notifier) NotifyRoomUpdate(conf *models.Conference, roomLabel string, locked bool) {
	occupants := lo.Map(conf.ParticipantsInRoom(roomLabel), func(p models.Participant, _ int) string { return p.ID })
	n.publish(groupsFor(conf, occupants), EventRoomUpdate, RoomUpdateMessage{
		ConferenceID: conf.ID,
		RoomLabel:    roomLabel,
		Locked:       locked,
	})
}

// NotifyHandStatus tells the whole conference about a hand change
func (n *Notifier) NotifyHandStatus(conf *models.Conference, participantID string, raised bool) {
	everyone := lo.Map(conf.Participants, func(p models.Participant, _ int) string { return p.ID })
	n.publish(groupsFor(conf, everyone), EventHandRaise, HandRaiseMessage{
		ConferenceID:  conf.ID,
		ParticipantID: participantID,
		HasHandRaised: raised,
	})
}

func (n *Notifier) publish(groups []string, event string, payload interface{}) {
	for _, g := range groups {
		n.publisher.Publish(g, event, payload)
	}
	zap.S().Debugw("published event",
		"event", event,
		"groups", groups)
}

// groupsFor maps participant ids to their groups plus the admin group. Ids
// that are not participants, such as endpoints, are skipped.
func groupsFor(conf *models.Conference, ids []string) []string {
	groups := lo.FilterMap(lo.Uniq(ids), func(id string, _ int) (string, bool) {
		matches := conf.FindParticipants(id)
		if len(matches) == 0 || matches[0].Username == "" {
			return "", false
		}
		return strings.ToLower(matches[0].Username), true
	})
	return lo.Uniq(append(groups, AdminGroup))
}
