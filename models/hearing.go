package models

import "time"

// CallRequest asks the bridge to bring a participant into the hearing room
type CallRequest struct {
	ConferenceID  string `json:"conferenceId" validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
}

// DismissRequest takes a participant, endpoint or civilian room out of the hearing room
type DismissRequest struct {
	ConferenceID  string `json:"conferenceId" validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
}

// StartHearingRequest starts or resumes the hearing. MuteGuests defaults to true.
type StartHearingRequest struct {
	Layout     string `json:"layout"`
	MuteGuests *bool  `json:"muteGuests"`
}

// VideoControlStatus holds the host controlled media flags for one participant
type VideoControlStatus struct {
	ParticipantID     string `json:"participantId" validate:"required"`
	IsSpotlighted     bool   `json:"isSpotlighted"`
	IsLocalAudioMuted bool   `json:"isLocalAudioMuted"`
	IsLocalVideoMuted bool   `json:"isLocalVideoMuted"`
}

// SetVideoControlStatusesRequest replaces every status held for a conference
type SetVideoControlStatusesRequest struct {
	Statuses []VideoControlStatus `json:"statuses" validate:"dive"`
}

// AlertTask holds the structure for the tasks collection in mongo
type AlertTask struct {
	ID           string    `json:"_id" bson:"_id"`
	ConferenceID string    `json:"conferenceId" bson:"conferenceId"`
	OriginID     string    `json:"originId" bson:"originId"`
	Body         string    `json:"body" bson:"body"`
	Type         string    `json:"type" bson:"type"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	CreatedBy    string    `json:"createdBy" bson:"createdBy"`
}

// AlertTypeParticipant marks alerts raised about a participant
const AlertTypeParticipant = "Participant"

// HandRaiseRequest raises or lowers a participant's hand
type HandRaiseRequest struct {
	Raised bool `json:"raised"`
}

// CallStateResponse reports where the host protocol last left a participant
type CallStateResponse struct {
	ConferenceID  string `json:"conferenceId"`
	ParticipantID string `json:"participantId"`
	State         string `json:"state"`
}
