package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/platform/metrics"
)

// PartyHandler は当事者リソースの HTTP ハンドラです。
type PartyHandler struct {
	svc     party.UseCase
	metrics *metrics.Metrics
}

// NewPartyHandler は PartyHandler を生成します。
func NewPartyHandler(svc party.UseCase, m *metrics.Metrics) *PartyHandler {
	return &PartyHandler{svc: svc, metrics: m}
}

// Register は当事者ルートを登録します。
func (h *PartyHandler) Register(r chi.Router) {
	r.Post("/parties/persons", h.handleCreatePerson)
	r.Post("/parties/organizations", h.handleCreateOrganization)
	r.Get("/parties", h.handleListParties)
	r.Get("/parties/search", h.handleSearchParties)
	r.Get("/parties/{partyID}", h.handleGetParty)
	r.Patch("/parties/{partyID}/comment", h.handleUpdateComment)
	r.Delete("/parties/{partyID}", h.handleDeleteParty)
	r.Post("/parties/{partyID}/roles", h.handleAddRole)
	r.Delete("/parties/{partyID}/roles/{roleType}", h.handleRemoveRole)
	r.Post("/parties/{partyID}/names", h.handleAddName)
	r.Post("/parties/{partyID}/identifications", h.handleAddIdentification)
	r.Post("/parties/{partyID}/classifications", h.handleAddClassification)
}

type createPersonRequest struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Title      string `json:"title"`
	Suffix     string `json:"suffix"`
	BirthDate  string `json:"birth_date"`
	Gender     string `json:"gender"`
	Comment    string `json:"comment"`
}

func (h *PartyHandler) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	birthDate, err := parseDatePtr(req.BirthDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid birth_date"})
		return
	}

	var gender *party.GenderType
	if req.Gender != "" {
		g := party.GenderType(req.Gender)
		gender = &g
	}

	created, err := h.svc.CreatePerson(r.Context(), party.CreatePersonInput{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Title:      req.Title,
		Suffix:     req.Suffix,
		BirthDate:  birthDate,
		Gender:     gender,
		Comment:    req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.PartiesCreated.Inc()
	writeJSON(w, http.StatusCreated, toPartyDTO(created))
}

type createOrganizationRequest struct {
	Name               string `json:"name"`
	TradingName        string `json:"trading_name"`
	RegistrationNumber string `json:"registration_number"`
	EstablishedDate    string `json:"established_date"`
	TaxIDNumber        string `json:"tax_id_number"`
	NumberOfEmployees  *int   `json:"number_of_employees"`
	Industry           string `json:"industry"`
	OrganizationType   string `json:"organization_type"`
	Comment            string `json:"comment"`
}

func (h *PartyHandler) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	establishedDate, err := parseDatePtr(req.EstablishedDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid established_date"})
		return
	}

	created, err := h.svc.CreateOrganization(r.Context(), party.CreateOrganizationInput{
		Name:               req.Name,
		TradingName:        req.TradingName,
		RegistrationNumber: req.RegistrationNumber,
		EstablishedDate:    establishedDate,
		TaxIDNumber:        req.TaxIDNumber,
		NumberOfEmployees:  req.NumberOfEmployees,
		Industry:           req.Industry,
		OrganizationType:   req.OrganizationType,
		Comment:            req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.PartiesCreated.Inc()
	writeJSON(w, http.StatusCreated, toPartyDTO(created))
}

func (h *PartyHandler) handleGetParty(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	found, err := h.svc.GetParty(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPartyDTO(found))
}

type updateCommentRequest struct {
	Comment string `json:"comment"`
}

func (h *PartyHandler) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	updated, err := h.svc.UpdatePartyComment(r.Context(), party.UpdateCommentInput{
		PartyID: id,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPartyDTO(updated))
}

func (h *PartyHandler) handleDeleteParty(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	if err := h.svc.DeleteParty(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

type addRoleRequest struct {
	RoleType string `json:"role_type"`
	FromDate string `json:"from_date"`
}

func (h *PartyHandler) handleAddRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	var req addRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	from, err := parseDatePtr(req.FromDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from_date"})
		return
	}

	result, err := h.svc.AddRoleToParty(r.Context(), party.AddRoleInput{
		PartyID:  id,
		RoleType: req.RoleType,
		From:     from,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Appended {
		h.metrics.RolesAssigned.Inc()
	}
	writeJSON(w, http.StatusOK, toPartyDTO(result.Party))
}

func (h *PartyHandler) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	result, err := h.svc.RemoveRoleFromParty(r.Context(), party.RemoveRoleInput{
		PartyID:  id,
		RoleType: chi.URLParam(r, "roleType"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Expired {
		h.metrics.RolesExpired.Inc()
	}
	writeJSON(w, http.StatusOK, toPartyDTO(result.Party))
}

type addNameRequest struct {
	Name     string `json:"name"`
	NameType string `json:"name_type"`
	FromDate string `json:"from_date"`
}

func (h *PartyHandler) handleAddName(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	var req addNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	from, err := parseDatePtr(req.FromDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from_date"})
		return
	}

	updated, err := h.svc.AddNameToParty(r.Context(), party.AddNameInput{
		PartyID:  id,
		Name:     req.Name,
		NameType: req.NameType,
		From:     from,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPartyDTO(updated))
}

type addIdentificationRequest struct {
	Identifier         string `json:"identifier"`
	IdentificationType string `json:"identification_type"`
	FromDate           string `json:"from_date"`
}

func (h *PartyHandler) handleAddIdentification(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	var req addIdentificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	from, err := parseDatePtr(req.FromDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from_date"})
		return
	}

	updated, err := h.svc.AddIdentificationToParty(r.Context(), party.AddIdentificationInput{
		PartyID:            id,
		Identifier:         req.Identifier,
		IdentificationType: req.IdentificationType,
		From:               from,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPartyDTO(updated))
}

type addClassificationRequest struct {
	Value              string `json:"value"`
	ClassificationType string `json:"classification_type"`
	FromDate           string `json:"from_date"`
}

func (h *PartyHandler) handleAddClassification(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "partyID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid party id"})
		return
	}

	var req addClassificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	from, err := parseDatePtr(req.FromDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid from_date"})
		return
	}

	updated, err := h.svc.AddClassificationToParty(r.Context(), party.AddClassificationInput{
		PartyID:            id,
		Value:              req.Value,
		ClassificationType: req.ClassificationType,
		From:               from,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPartyDTO(updated))
}

type listPartiesResponse struct {
	Parties       []*partyDTO `json:"parties"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

func (h *PartyHandler) handleListParties(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var kind *party.Kind
	if value := query.Get("kind"); value != "" {
		k := party.Kind(value)
		if !party.IsValidKind(k) {
			writeError(w, party.ErrInvalidKind)
			return
		}
		kind = &k
	}

	pageSize := 0
	if value := query.Get("page_size"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			writeError(w, party.ErrInvalidPageSize)
			return
		}
		pageSize = parsed
	}

	result, err := h.svc.ListParties(r.Context(), party.ListPartiesInput{
		Kind:      kind,
		PageSize:  pageSize,
		PageToken: query.Get("page_token"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listPartiesResponse{
		Parties:       toPartyDTOs(result.Parties),
		NextPageToken: result.NextPageToken,
	})
}

type searchPartiesResponse struct {
	Parties []*partyDTO `json:"parties"`
}

// handleSearchParties はクエリパラメータに応じた検索を振り分けます。
// role / name / last_name / organization_name のいずれか一つを取ります。
func (h *PartyHandler) handleSearchParties(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		parties []*party.Party
		err     error
	)
	switch {
	case query.Get("role") != "":
		parties, err = h.svc.FindPartiesByRole(r.Context(), query.Get("role"))
	case query.Get("last_name") != "":
		parties, err = h.svc.SearchPersonsByLastName(r.Context(), query.Get("last_name"))
	case query.Get("organization_name") != "":
		parties, err = h.svc.SearchOrganizationsByName(r.Context(), query.Get("organization_name"))
	case query.Get("name") != "":
		parties, err = h.svc.SearchPartiesByName(r.Context(), query.Get("name"))
	default:
		writeError(w, party.ErrInvalidSearchTerm)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchPartiesResponse{Parties: toPartyDTOs(parties)})
}
