package models

// ConsultationAnswer is a participant's answer to a consultation invitation
type ConsultationAnswer string

// Consultation answers. Transferring is never recorded, it is only published
// so clients can show the move while the bridge performs it.
const (
	AnswerNone         ConsultationAnswer = "None"
	AnswerAccepted     ConsultationAnswer = "Accepted"
	AnswerRejected     ConsultationAnswer = "Rejected"
	AnswerFailed       ConsultationAnswer = "Failed"
	AnswerCancelled    ConsultationAnswer = "Cancelled"
	AnswerTransferring ConsultationAnswer = "Transferring"
)

// IsNegative is true for answers that end an invitation without a transfer
func (a ConsultationAnswer) IsNegative() bool {
	return a == AnswerRejected || a == AnswerCancelled || a == AnswerFailed
}

// TransferType is the direction of a hearing room transfer
type TransferType string

// Transfer types
const (
	TransferCall    TransferType = "Call"
	TransferDismiss TransferType = "Dismiss"
)

// ConsultationRequest is used both to request a consultation and to answer one
type ConsultationRequest struct {
	ConferenceID   string             `json:"conferenceId" validate:"required"`
	RequestedByID  string             `json:"requestedById"`
	RequestedForID string             `json:"requestedForId" validate:"required"`
	RoomLabel      string             `json:"roomLabel" validate:"required"`
	InvitationID   string             `json:"invitationId"`
	Answer         ConsultationAnswer `json:"answer" validate:"omitempty,oneof=Accepted Rejected Cancelled Failed"`
}

// InviteToConsultationRequest invites a single participant into a room
type InviteToConsultationRequest struct {
	ConferenceID  string `json:"conferenceId" validate:"required"`
	RoomLabel     string `json:"roomLabel" validate:"required"`
	RequestedByID string `json:"requestedById"`
	ParticipantID string `json:"participantId" validate:"required"`
}

// PrivateConsultationRequest lets a participant move themselves into a room
type PrivateConsultationRequest struct {
	ConferenceID  string `json:"conferenceId" validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
	RoomLabel     string `json:"roomLabel" validate:"required"`
}

// LeaveConsultationRequest takes a participant out of their consultation room
type LeaveConsultationRequest struct {
	ConferenceID  string `json:"conferenceId" validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
}

// LockRoomRequest toggles the lock on a consultation room
type LockRoomRequest struct {
	ConferenceID string `json:"conferenceId" validate:"required"`
	RoomLabel    string `json:"roomLabel" validate:"required"`
	Lock         bool   `json:"lock"`
}

// EndpointConsultationRequest brings a video endpoint into a consultation room
type EndpointConsultationRequest struct {
	ConferenceID  string `json:"conferenceId" validate:"required"`
	EndpointID    string `json:"endpointId" validate:"required"`
	RoomLabel     string `json:"roomLabel" validate:"required"`
	RequestedByID string `json:"requestedById"`
}
