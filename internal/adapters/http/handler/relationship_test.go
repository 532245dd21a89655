package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
)

type stubRelationshipUseCase struct {
	relationship.UseCase

	createInput relationship.CreateInput
	createOut   *relationship.Relationship
	createErr   error

	expireInput relationship.ExpireInput
	expireOut   *relationship.Relationship
	expireErr   error

	listInput relationship.ListInput
	listOut   []*relationship.Relationship
	listErr   error
}

func (s *stubRelationshipUseCase) CreateRelationship(_ context.Context, in relationship.CreateInput) (*relationship.Relationship, error) {
	s.createInput = in
	return s.createOut, s.createErr
}

func (s *stubRelationshipUseCase) ExpireRelationship(_ context.Context, in relationship.ExpireInput) (*relationship.Relationship, error) {
	s.expireInput = in
	return s.expireOut, s.expireErr
}

func (s *stubRelationshipUseCase) ListRelationshipsForParty(_ context.Context, in relationship.ListInput) ([]*relationship.Relationship, error) {
	s.listInput = in
	return s.listOut, s.listErr
}

func newRelationshipRouter(stub *stubRelationshipUseCase) chi.Router {
	r := chi.NewRouter()
	NewRelationshipHandler(stub, newTestMetrics()).Register(r)
	return r
}

func sampleRelationship() *relationship.Relationship {
	relType := &taxonomy.Node{
		ID:           uuid.New(),
		Kind:         taxonomy.KindRelationshipType,
		Description:  "Employment",
		FromRoleType: "Employee",
		ToRoleType:   "Employer",
	}
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rel := relationship.New(uuid.New(), uuid.New(), relType, validity.NewWindow(from))
	rel.CreatedAt = time.Now().UTC()
	rel.UpdatedAt = rel.CreatedAt
	return rel
}

func TestRelationshipHandler_Create(t *testing.T) {
	t.Parallel()

	rel := sampleRelationship()
	stub := &stubRelationshipUseCase{createOut: rel}
	router := newRelationshipRouter(stub)

	body := `{"from_party_id":"` + rel.FromPartyID.String() + `","to_party_id":"` + rel.ToPartyID.String() + `","type":"Employment","from_date":"2024-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/relationships", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.createInput.Type != "Employment" {
		t.Errorf("expected type passed through, got %s", stub.createInput.Type)
	}
	if stub.createInput.From == nil || stub.createInput.From.Format(dateLayout) != "2024-01-01" {
		t.Errorf("expected parsed from date, got %v", stub.createInput.From)
	}

	var resp relationshipDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Type != "Employment" || resp.FromRoleType != "Employee" || resp.ToRoleType != "Employer" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !resp.Active {
		t.Errorf("expected open ended relationship to be active")
	}
}

func TestRelationshipHandler_Create_InvalidFromParty(t *testing.T) {
	t.Parallel()

	router := newRelationshipRouter(&stubRelationshipUseCase{})

	body := `{"from_party_id":"not-a-uuid","to_party_id":"` + uuid.NewString() + `","type":"Employment"}`
	req := httptest.NewRequest(http.MethodPost, "/relationships", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRelationshipHandler_Create_UnknownType(t *testing.T) {
	t.Parallel()

	stub := &stubRelationshipUseCase{createErr: relationship.ErrTypeNotFound}
	router := newRelationshipRouter(stub)

	body := `{"from_party_id":"` + uuid.NewString() + `","to_party_id":"` + uuid.NewString() + `","type":"Unknown"}`
	req := httptest.NewRequest(http.MethodPost, "/relationships", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRelationshipHandler_Expire(t *testing.T) {
	t.Parallel()

	rel := sampleRelationship()
	thru := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	rel.SetThruDate(&thru)

	stub := &stubRelationshipUseCase{expireOut: rel}
	router := newRelationshipRouter(stub)

	req := httptest.NewRequest(
		http.MethodPost,
		"/relationships/"+rel.ID.String()+"/expire",
		strings.NewReader(`{"thru_date":"2024-06-30"}`),
	)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.expireInput.Thru == nil || stub.expireInput.Thru.Format(dateLayout) != "2024-06-30" {
		t.Errorf("expected parsed thru date, got %v", stub.expireInput.Thru)
	}

	var resp relationshipDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ThruDate == nil || *resp.ThruDate != "2024-06-30" {
		t.Fatalf("expected thru date in response, got %+v", resp.ThruDate)
	}
}

func TestRelationshipHandler_ListForParty_ActiveOnly(t *testing.T) {
	t.Parallel()

	stub := &stubRelationshipUseCase{listOut: []*relationship.Relationship{sampleRelationship()}}
	router := newRelationshipRouter(stub)

	partyID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/parties/"+partyID.String()+"/relationships?active=true", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.listInput.PartyID != partyID || !stub.listInput.ActiveOnly {
		t.Errorf("unexpected list input %+v", stub.listInput)
	}

	var resp listRelationshipsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Relationships) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(resp.Relationships))
	}
}
