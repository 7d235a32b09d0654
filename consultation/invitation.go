package consultation

import (
	"time"

	"github.com/samber/lo"

	"github.com/linesmerrill/video-hearings-api/models"
)

// Invitation tracks who must answer before a consultation transfer may happen.
// Required is the invitee plus any linked participants, such as an interpreter.
type Invitation struct {
	ID             string
	ConferenceID   string
	RoomLabel      string
	RequestedByID  string
	RequestedForID string
	Required       []string
	Answers        map[string]models.ConsultationAnswer
	CreatedAt      time.Time
	Resolved       bool
}

// AllResponded is true when every required participant has answered
func (i Invitation) AllResponded() bool {
	return lo.EveryBy(i.Required, func(id string) bool {
		a, ok := i.Answers[id]
		return ok && a != models.AnswerNone
	})
}

// AllAccepted is true when every required participant answered Accepted.
// A single missing or negative answer keeps the whole group where it is.
func (i Invitation) AllAccepted() bool {
	return len(i.Required) > 0 && lo.EveryBy(i.Required, func(id string) bool {
		return i.Answers[id] == models.AnswerAccepted
	})
}

// Parties is everyone who hears about the invitation's outcome
func (i Invitation) Parties() []string {
	parties := append([]string{}, i.Required...)
	if i.RequestedByID != "" {
		parties = append([]string{i.RequestedByID}, parties...)
	}
	return lo.Uniq(parties)
}

func (i Invitation) clone() Invitation {
	i.Required = append([]string(nil), i.Required...)
	answers := make(map[string]models.ConsultationAnswer, len(i.Answers))
	for k, v := range i.Answers {
		answers[k] = v
	}
	i.Answers = answers
	return i
}
