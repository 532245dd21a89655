package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erp-microservices/people-and-organizations/internal/core/contact"
)

// ContactHandler は連絡手段リソースの HTTP ハンドラです。
type ContactHandler struct {
	svc contact.UseCase
}

// NewContactHandler は ContactHandler を生成します。
func NewContactHandler(svc contact.UseCase) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// Register は連絡手段ルートを登録します。
func (h *ContactHandler) Register(r chi.Router) {
	r.Post("/contact-mechanisms/emails", h.handleCreateEmail)
	r.Post("/contact-mechanisms/postal-addresses", h.handleCreatePostalAddress)
	r.Post("/contact-mechanisms/telecom-numbers", h.handleCreateTelecomNumber)
	r.Get("/contact-mechanisms", h.handleListMechanisms)
	r.Get("/contact-mechanisms/{mechanismID}", h.handleGetMechanism)
	r.Delete("/contact-mechanisms/{mechanismID}", h.handleDeleteMechanism)
}

type createEmailRequest struct {
	EmailAddress string `json:"email_address"`
	Comment      string `json:"comment"`
}

func (h *ContactHandler) handleCreateEmail(w http.ResponseWriter, r *http.Request) {
	var req createEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.svc.CreateEmail(r.Context(), contact.CreateEmailInput{
		EmailAddress: req.EmailAddress,
		Comment:      req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContactMechanismDTO(created))
}

type createPostalAddressRequest struct {
	Address1            string `json:"address1"`
	Address2            string `json:"address2"`
	City                string `json:"city"`
	StateProvince       string `json:"state_province"`
	PostalCode          string `json:"postal_code"`
	PostalCodeExtension string `json:"postal_code_extension"`
	Country             string `json:"country"`
	Comment             string `json:"comment"`
}

func (h *ContactHandler) handleCreatePostalAddress(w http.ResponseWriter, r *http.Request) {
	var req createPostalAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.svc.CreatePostalAddress(r.Context(), contact.CreatePostalInput{
		Address1:            req.Address1,
		Address2:            req.Address2,
		City:                req.City,
		StateProvince:       req.StateProvince,
		PostalCode:          req.PostalCode,
		PostalCodeExtension: req.PostalCodeExtension,
		Country:             req.Country,
		Comment:             req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContactMechanismDTO(created))
}

type createTelecomNumberRequest struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	PhoneNumber string `json:"phone_number"`
	Extension   string `json:"extension"`
	Comment     string `json:"comment"`
}

func (h *ContactHandler) handleCreateTelecomNumber(w http.ResponseWriter, r *http.Request) {
	var req createTelecomNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.svc.CreateTelecomNumber(r.Context(), contact.CreateTelecomInput{
		CountryCode: req.CountryCode,
		AreaCode:    req.AreaCode,
		PhoneNumber: req.PhoneNumber,
		Extension:   req.Extension,
		Comment:     req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContactMechanismDTO(created))
}

func (h *ContactHandler) handleGetMechanism(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "mechanismID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid mechanism id"})
		return
	}

	found, err := h.svc.GetMechanism(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContactMechanismDTO(found))
}

type listMechanismsResponse struct {
	Mechanisms []*contactMechanismDTO `json:"mechanisms"`
}

func (h *ContactHandler) handleListMechanisms(w http.ResponseWriter, r *http.Request) {
	var kind *contact.Kind
	if value := r.URL.Query().Get("kind"); value != "" {
		k := contact.Kind(value)
		if !contact.IsValidKind(k) {
			writeError(w, contact.ErrInvalidKind)
			return
		}
		kind = &k
	}

	mechanisms, err := h.svc.ListMechanisms(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]*contactMechanismDTO, 0, len(mechanisms))
	for _, m := range mechanisms {
		dtos = append(dtos, toContactMechanismDTO(m))
	}

	writeJSON(w, http.StatusOK, listMechanismsResponse{Mechanisms: dtos})
}

func (h *ContactHandler) handleDeleteMechanism(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "mechanismID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid mechanism id"})
		return
	}

	if err := h.svc.DeleteMechanism(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
