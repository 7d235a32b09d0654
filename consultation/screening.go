package consultation

import (
	"github.com/samber/lo"

	"github.com/linesmerrill/video-hearings-api/models"
)

// party is anything that can occupy a room and be screened: a participant or an endpoint
type party struct {
	id              string
	ref             string
	isProtectedFrom func(ref string) bool
}

func participantParty(p models.Participant) party {
	return party{id: p.ID, ref: p.ExternalReferenceID, isProtectedFrom: p.IsProtectedFrom}
}

func endpointParty(e models.Endpoint) party {
	return party{id: e.ID, ref: e.ExternalReferenceID, isProtectedFrom: e.IsProtectedFrom}
}

// screens is true when either side is protected from the other
func (p party) screens(o party) bool {
	return p.isProtectedFrom(o.ref) || o.isProtectedFrom(p.ref)
}

func occupants(conf *models.Conference, roomLabel string) []party {
	res := lo.Map(conf.ParticipantsInRoom(roomLabel), func(p models.Participant, _ int) party { return participantParty(p) })
	return append(res, lo.Map(conf.EndpointsInRoom(roomLabel), func(e models.Endpoint, _ int) party { return endpointParty(e) })...)
}

// screenedFromRoom reports whether any joiner would share roomLabel with
// someone it is screened from. Joiners are not checked against each other.
func screenedFromRoom(conf *models.Conference, roomLabel string, joiners []party) bool {
	joining := lo.SliceToMap(joiners, func(p party) (string, struct{}) { return p.id, struct{}{} })
	for _, occ := range occupants(conf, roomLabel) {
		if _, ok := joining[occ.id]; ok {
			continue
		}
		for _, j := range joiners {
			if j.screens(occ) {
				return true
			}
		}
	}
	return false
}

// participantParties resolves ids to parties, skipping anything that is not a participant
func participantParties(conf *models.Conference, ids []string) []party {
	return lo.FilterMap(ids, func(id string, _ int) (party, bool) {
		matches := conf.FindParticipants(id)
		if len(matches) == 0 {
			return party{}, false
		}
		return participantParty(*matches[0]), true
	})
}
