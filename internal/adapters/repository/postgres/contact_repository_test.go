package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/erp-microservices/people-and-organizations/internal/core/contact"
)

var contactColumns = []string{
	"id", "kind", "comment", "created_at", "updated_at",
	"email_address",
	"address1", "address2", "city", "state_province", "postal_code", "postal_code_extension", "country",
	"country_code", "area_code", "phone_number", "extension",
}

func TestContactRepository_Create_Email(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewContactRepository(mock)

	m := contact.NewEmail(contact.EmailDetails{EmailAddress: "info@example.com"})
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO contact_mechanism").
		WithArgs(m.ID.String(), "EMAIL", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	mock.ExpectExec("INSERT INTO email_address").
		WithArgs(m.ID.String(), "info@example.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := repo.Create(context.Background(), m)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be populated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestContactRepository_List_FilterByKind(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewContactRepository(mock)

	id := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows(contactColumns).
		AddRow(id.String(), "TELECOM_NUMBER", "", now, now,
			nil,
			nil, nil, nil, nil, nil, nil, nil,
			"81", "3", "1234-5678", "")

	kind := contact.KindTelecom
	mock.ExpectQuery("WHERE m.kind = ").
		WithArgs(string(kind)).
		WillReturnRows(rows)

	mechanisms, err := repo.List(context.Background(), &kind)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(mechanisms) != 1 {
		t.Fatalf("expected 1 mechanism, got %d", len(mechanisms))
	}
	m := mechanisms[0]
	if m.Kind != contact.KindTelecom || m.Telecom == nil {
		t.Fatalf("unexpected mechanism %+v", m)
	}
	if m.Telecom.PhoneNumber != "1234-5678" || m.Telecom.CountryCode != "81" {
		t.Fatalf("unexpected telecom details %+v", m.Telecom)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestContactRepository_FindByID_Postal(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewContactRepository(mock)

	id := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows(contactColumns).
		AddRow(id.String(), "POSTAL_ADDRESS", "head office", now, now,
			nil,
			"1-1-1 Chiyoda", "", "Tokyo", "Tokyo", "100-0001", "", "JP",
			nil, nil, nil, nil)

	mock.ExpectQuery("FROM contact_mechanism m").
		WithArgs(id.String()).
		WillReturnRows(rows)

	m, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}

	if m.Kind != contact.KindPostal || m.Postal == nil {
		t.Fatalf("unexpected mechanism %+v", m)
	}
	if m.Postal.City != "Tokyo" || m.Postal.Country != "JP" {
		t.Fatalf("unexpected postal details %+v", m.Postal)
	}
	if m.Comment != "head office" {
		t.Fatalf("unexpected comment %q", m.Comment)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestContactRepository_Delete_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewContactRepository(mock)

	mock.ExpectExec("DELETE FROM contact_mechanism").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), uuid.New()); !errors.Is(err, contact.ErrMechanismNotFound) {
		t.Fatalf("expected ErrMechanismNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
