package api

import (
	"net/http"

	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/rpupo63/fieldlens-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type teamHandler struct {
	responder Responder
	logger    zerolog.Logger
	team      *services.TeamService
}

func newTeamHandler(team *services.TeamService) teamHandler {
	logger := log.With().Str("handlerName", "teamHandler").Logger()

	return teamHandler{
		responder: NewResponder(logger),
		logger:    logger,
		team:      team,
	}
}

func (h teamHandler) getAllMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := h.team.GetAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, TeamMemberCollection{Members: members, Total: len(members)})
	}
}

func (h teamHandler) getMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := parseID(r, "memberID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		member, err := h.team.GetByID(r.Context(), memberID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, member)
	}
}

// inviteMember creates a team member and sends the invitation e-mail when configured
func (h teamHandler) inviteMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var member models.TeamMember
		if err := decodeBody(h.logger, r, &member, "team member"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		created, err := h.team.Create(r.Context(), member)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, created)
	}
}

func (h teamHandler) updateMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := parseID(r, "memberID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var patch models.TeamMemberPatch
		if err := decodeBody(h.logger, r, &patch, "team member"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		updated, err := h.team.Update(r.Context(), memberID, patch)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, updated)
	}
}

func (h teamHandler) removeMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID, err := parseID(r, "memberID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.team.Delete(r.Context(), memberID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, StatusResponse{
			Status:  "success",
			Message: "team member removed successfully",
		})
	}
}
