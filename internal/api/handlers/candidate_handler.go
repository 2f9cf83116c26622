package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/voting-be/internal/api/respond"
	"github.com/isdelr/voting-be/internal/auth"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/isdelr/voting-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TallyNotifier is told when the tally may have changed.
type TallyNotifier interface {
	Notify()
}

// CandidateHandler handles HTTP requests for candidates and voting.
type CandidateHandler struct {
	service services.CandidateServiceProvider
	events  services.EventServiceProvider
	live    TallyNotifier
}

// NewCandidateHandler creates a new CandidateHandler. events and live may be nil.
func NewCandidateHandler(service services.CandidateServiceProvider, events services.EventServiceProvider, live TallyNotifier) *CandidateHandler {
	return &CandidateHandler{service: service, events: events, live: live}
}

// Create handles adding a new candidate.
func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.CandidatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	candidate, err := h.service.CreateCandidate(r.Context(), payload)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Failed to create candidate")
		respond.InternalError(w)
		return
	}

	log.Info().Str("candidate_id", candidate.ID).Msg("Candidate created")
	recordEvent(r.Context(), h.events, models.EventCandidateCreated, models.LevelInfo,
		fmt.Sprintf("Candidate %s (%s) created", candidate.Name, candidate.Party), &candidate.ID)
	h.notifyTally()
	respond.JSON(w, http.StatusOK, map[string]interface{}{"response": candidate})
}

// List handles the public listing of candidates.
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.ListCandidates(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list candidates")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, candidates)
}

// Get handles retrieving a single candidate by its ID.
func (h *CandidateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "candidateID")
	candidate, err := h.service.GetCandidateByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, id, "Failed to get candidate")
		return
	}
	respond.JSON(w, http.StatusOK, candidate)
}

// Update handles a partial update of an existing candidate.
func (h *CandidateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "candidateID")
	var patch models.CandidatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	candidate, err := h.service.UpdateCandidate(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeLookupError(w, err, id, "Failed to update candidate")
		return
	}

	log.Info().Str("candidate_id", id).Msg("Candidate updated")
	recordEvent(r.Context(), h.events, models.EventCandidateUpdated, models.LevelInfo,
		fmt.Sprintf("Candidate %s (%s) updated", candidate.Name, candidate.Party), &candidate.ID)
	h.notifyTally()
	respond.JSON(w, http.StatusOK, candidate)
}

// Delete handles removing a candidate. The deleted record is echoed back.
func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "candidateID")
	candidate, err := h.service.DeleteCandidate(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, id, "Failed to delete candidate")
		return
	}

	log.Info().Str("candidate_id", id).Msg("Candidate deleted")
	recordEvent(r.Context(), h.events, models.EventCandidateDeleted, models.LevelInfo,
		fmt.Sprintf("Candidate %s (%s) deleted with %d votes", candidate.Name, candidate.Party, candidate.VoteCount), &candidate.ID)
	h.notifyTally()
	respond.JSON(w, http.StatusOK, map[string]interface{}{"response": candidate})
}

// Vote handles casting the authenticated user's vote for a candidate.
func (h *CandidateHandler) Vote(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respond.InternalError(w)
		return
	}
	candidateID := chi.URLParam(r, "candidateID")

	err := h.service.CastVote(r.Context(), candidateID, claims.UserID)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrCandidateNotFound):
		respond.Message(w, http.StatusNotFound, "Candidate not found")
		return
	case errors.Is(err, models.ErrUserNotFound):
		respond.Message(w, http.StatusNotFound, "user not found")
		return
	case errors.Is(err, models.ErrAdminCannotVote):
		respond.Message(w, http.StatusForbidden, "admin is not allowed")
		return
	case errors.Is(err, models.ErrAlreadyVoted):
		respond.Message(w, http.StatusBadRequest, "You have already voted")
		return
	default:
		log.Error().Err(err).Str("candidate_id", candidateID).Str("user_id", claims.UserID).Msg("Failed to record vote")
		respond.InternalError(w)
		return
	}

	recordEvent(r.Context(), h.events, models.EventVoteCast, models.LevelInfo, "Vote recorded", &candidateID)
	h.notifyTally()
	respond.Message(w, http.StatusOK, "Vote recorded successfully")
}

// Count handles the public vote count report.
func (h *CandidateHandler) Count(w http.ResponseWriter, r *http.Request) {
	tally, err := h.service.GetTally(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute vote count")
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, tally)
}

func (h *CandidateHandler) writeLookupError(w http.ResponseWriter, err error, id, msg string) {
	if errors.Is(err, models.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "Candidate not found")
		return
	}
	log.Error().Err(err).Str("candidate_id", id).Msg(msg)
	respond.InternalError(w)
}

// notifyTally tells live subscribers to refresh after a committed change.
func (h *CandidateHandler) notifyTally() {
	if h.live != nil {
		h.live.Notify()
	}
}
