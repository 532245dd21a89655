package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/platform/metrics"
)

// RelationshipHandler は当事者間関係リソースの HTTP ハンドラです。
type RelationshipHandler struct {
	svc     relationship.UseCase
	metrics *metrics.Metrics
}

// NewRelationshipHandler は RelationshipHandler を生成します。
func NewRelationshipHandler(svc relationship.UseCase, m *metrics.Metrics) *RelationshipHandler {
	return &RelationshipHandler{svc: svc, metrics: m}
}

// Register は関係ルートを登録します。
func (h *RelationshipHandler) Register(r chi.Router) {
	r.Post("/relationships", h.handleCreateRelationship)
	r.Get("/relationships/{relationshipID}", h.handleGetRelationship)
	r.Post("/relationships/{relationshipID}/expire", h.handleExpireRelationship)
	r.Delete("/relationships/{relationshipID}", h.handleDeleteRelationship)
	r.Get("/parties/{partyID}/relationships", h.handleListRelationshipsForParty)
}

type createRelationshipRequest struct {
	FromPartyID string `json:"from_party_id"`
	ToPartyID   string `json:"to_party_id"`
	Type        string `json:"type"`
	FromDate    string `json:"from_date"`
	ThruDate    string `json:"thru_date"`
	Comment     string `json:"comment"`
}

func (h *RelationshipHandler) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req createRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	fromPartyID, err := uuid.Parse(req.FromPartyID)
	if err != nil {
		writeError(w, relationship.ErrInvalidFromParty)
		return
	}
	toPartyID, err := uuid.Parse(req.ToPartyID)
	if err != nil {
		writeError(w, relationship.ErrInvalidToParty)
		return
	}

	from, err := parseDatePtr(req.FromDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from_date"})
		return
	}
	thru, err := parseDatePtr(req.ThruDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid thru_date"})
		return
	}

	created, err := h.svc.CreateRelationship(r.Context(), relationship.CreateInput{
		FromPartyID: fromPartyID,
		ToPartyID:   toPartyID,
		Type:        req.Type,
		From:        from,
		Thru:        thru,
		Comment:     req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.RelationshipsCreated.Inc()
	writeJSON(w, http.StatusCreated, toRelationshipDTO(created))
}

func (h *RelationshipHandler) handleGetRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "relationshipID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid relationship id"})
		return
	}

	found, err := h.svc.GetRelationship(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRelationshipDTO(found))
}

type expireRelationshipRequest struct {
	ThruDate string `json:"thru_date"`
}

func (h *RelationshipHandler) handleExpireRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "relationshipID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid relationship id"})
		return
	}

	var req expireRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	thru, err := parseDatePtr(req.ThruDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid thru_date"})
		return
	}

	expired, err := h.svc.ExpireRelationship(r.Context(), relationship.ExpireInput{
		ID:   id,
		Thru: thru,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRelationshipDTO(expired))
}

func (h *RelationshipHandler) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "relationshipID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid relationship id"})
		return
	}

	if err := h.svc.DeleteRelationship(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

type listRelationshipsResponse struct {
	Relationships []*relationshipDTO `json:"relationships"`
}

func (h *RelationshipHandler) handleListRelationshipsForParty(w http.ResponseWriter, r *http.Request) {
	partyID, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	relationships, err := h.svc.ListRelationshipsForParty(r.Context(), relationship.ListInput{
		PartyID:    partyID,
		ActiveOnly: r.URL.Query().Get("active") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]*relationshipDTO, 0, len(relationships))
	for _, rel := range relationships {
		dtos = append(dtos, toRelationshipDTO(rel))
	}

	writeJSON(w, http.StatusOK, listRelationshipsResponse{Relationships: dtos})
}
