package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/erp-microservices/people-and-organizations/internal/core/contact"
	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
)

type errorResponse struct {
	Error string `json:"error"`
}

func toHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, party.ErrInvalidID),
		errors.Is(err, party.ErrInvalidKind),
		errors.Is(err, party.ErrInvalidLastName),
		errors.Is(err, party.ErrInvalidGender),
		errors.Is(err, party.ErrInvalidOrganizationName),
		errors.Is(err, party.ErrInvalidEmployeeCount),
		errors.Is(err, party.ErrInvalidRoleType),
		errors.Is(err, party.ErrInvalidName),
		errors.Is(err, party.ErrInvalidNameType),
		errors.Is(err, party.ErrInvalidIdentifier),
		errors.Is(err, party.ErrInvalidClassification),
		errors.Is(err, party.ErrInvalidSearchTerm),
		errors.Is(err, party.ErrInvalidPageSize),
		errors.Is(err, party.ErrInvalidPageToken),
		errors.Is(err, relationship.ErrInvalidID),
		errors.Is(err, relationship.ErrInvalidFromParty),
		errors.Is(err, relationship.ErrInvalidToParty),
		errors.Is(err, relationship.ErrInvalidType),
		errors.Is(err, contact.ErrInvalidKind),
		errors.Is(err, contact.ErrInvalidEmailAddress),
		errors.Is(err, contact.ErrInvalidPostalAddress),
		errors.Is(err, contact.ErrInvalidTelecomNumber),
		errors.Is(err, taxonomy.ErrInvalidKind),
		errors.Is(err, taxonomy.ErrInvalidDescription),
		errors.Is(err, validity.ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, party.ErrPartyNotFound),
		errors.Is(err, party.ErrRoleTypeNotFound),
		errors.Is(err, party.ErrIdentificationTypeNotFound),
		errors.Is(err, party.ErrClassificationTypeNotFound),
		errors.Is(err, relationship.ErrRelationshipNotFound),
		errors.Is(err, relationship.ErrTypeNotFound),
		errors.Is(err, relationship.ErrPartyNotFound),
		errors.Is(err, contact.ErrMechanismNotFound),
		errors.Is(err, taxonomy.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, party.ErrRoleConflict),
		errors.Is(err, taxonomy.ErrDuplicateNode):
		return http.StatusConflict
	case errors.Is(err, party.ErrPartyTypeNotConfigured):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, toHTTPStatus(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
