package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/erp-microservices/people-and-organizations/internal/core/contact"
	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/platform/metrics"
)

// NewRouter は API ルーターを構築します。
func NewRouter(
	partySvc party.UseCase,
	relationshipSvc relationship.UseCase,
	contactSvc contact.UseCase,
	m *metrics.Metrics,
) chi.Router {
	r := chi.NewRouter()
	NewPartyHandler(partySvc, m).Register(r)
	NewRelationshipHandler(relationshipSvc, m).Register(r)
	NewContactHandler(contactSvc).Register(r)
	return r
}
