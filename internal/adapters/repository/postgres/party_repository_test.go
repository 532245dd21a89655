package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
)

var partyColumns = []string{
	"id", "kind", "comment", "created_at", "updated_at",
	"type_id", "type_kind", "type_description", "type_parent_id",
	"first_name", "middle_name", "last_name", "title", "suffix", "birth_date", "gender",
	"org_name", "trading_name", "registration_number", "established_date", "tax_id_number", "number_of_employees", "industry",
}

func addPersonRow(rows *pgxmock.Rows, id, typeID uuid.UUID, lastName string, now time.Time) *pgxmock.Rows {
	return rows.AddRow(
		id.String(), "PERSON", "", now, now,
		typeID.String(), "PARTY_TYPE", "Person", nil,
		"Taro", "", lastName, "", "", nil, "MALE",
		nil, nil, nil, nil, nil, nil, nil,
	)
}

func expectEmptyCollections(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery("FROM party_role r").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}))
	mock.ExpectQuery("FROM party_name n").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "name", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}))
	mock.ExpectQuery("FROM party_identification i").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "identifier", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}))
	mock.ExpectQuery("FROM party_classification c").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "value", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}))
}

func TestPartyRepository_Save_PersonWithRole(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPartyRepository(mock)

	personType := &taxonomy.Node{ID: uuid.New(), Kind: taxonomy.KindPartyType, Description: "Person"}
	customerRole := &taxonomy.Node{ID: uuid.New(), Kind: taxonomy.KindRoleType, Description: "Customer"}

	p := party.NewPerson(personType, party.PersonDetails{FirstName: "Hanako", LastName: "Suzuki"})
	p.AddRole(party.Role{ID: uuid.New(), Type: customerRole, Window: validity.NewWindow(time.Time{})})

	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO party").
		WithArgs(p.ID.String(), "PERSON", personType.ID.String(), "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	mock.ExpectExec("INSERT INTO person").
		WithArgs(p.ID.String(), "Hanako", "", "Suzuki", "", "", nil, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec("INSERT INTO party_role").
		WithArgs(p.Roles[0].ID.String(), p.ID.String(), customerRole.ID.String(), pgxmock.AnyArg(), nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := repo.Save(context.Background(), p)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be populated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPartyRepository_Save_ConcurrentRoleConflict(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPartyRepository(mock)

	personType := &taxonomy.Node{ID: uuid.New(), Kind: taxonomy.KindPartyType, Description: "Person"}
	customerRole := &taxonomy.Node{ID: uuid.New(), Kind: taxonomy.KindRoleType, Description: "Customer"}

	p := party.NewPerson(personType, party.PersonDetails{LastName: "Sato"})
	p.AddRole(party.Role{ID: uuid.New(), Type: customerRole, Window: validity.NewWindow(time.Time{})})

	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO party").
		WithArgs(p.ID.String(), "PERSON", personType.ID.String(), "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	mock.ExpectExec("INSERT INTO person").
		WithArgs(p.ID.String(), "", "", "Sato", "", "", nil, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectExec("INSERT INTO party_role").
		WithArgs(p.Roles[0].ID.String(), p.ID.String(), customerRole.ID.String(), pgxmock.AnyArg(), nil).
		WillReturnError(&pgconn.PgError{Code: partyUniqueViolationCode, ConstraintName: activeRoleConstraintName})

	if _, err := repo.Save(context.Background(), p); !errors.Is(err, party.ErrRoleConflict) {
		t.Fatalf("expected ErrRoleConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPartyRepository_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPartyRepository(mock)

	mock.ExpectQuery("FROM party p").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(partyColumns))

	if _, err := repo.FindByID(context.Background(), uuid.New()); !errors.Is(err, party.ErrPartyNotFound) {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPartyRepository_FindByActiveRole_LoadsCollections(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPartyRepository(mock)

	partyID := uuid.New()
	typeID := uuid.New()
	roleID := uuid.New()
	roleTypeID := uuid.New()
	now := time.Now().UTC()
	fromDate := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("pr.thru_date IS NULL").
		WithArgs("Customer").
		WillReturnRows(addPersonRow(pgxmock.NewRows(partyColumns), partyID, typeID, "Yamada", now))

	mock.ExpectQuery("FROM party_role r").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}).
			AddRow(roleID.String(), partyID.String(), fromDate, nil, roleTypeID.String(), "PARTY_ROLE_TYPE", "Customer", nil))
	mock.ExpectQuery("FROM party_name n").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "name", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}))
	mock.ExpectQuery("FROM party_identification i").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "identifier", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}))
	mock.ExpectQuery("FROM party_classification c").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "party_id", "value", "from_date", "thru_date", "t_id", "t_kind", "t_description", "t_parent_id"}))

	parties, err := repo.FindByActiveRole(context.Background(), "Customer")
	if err != nil {
		t.Fatalf("FindByActiveRole returned error: %v", err)
	}

	if len(parties) != 1 {
		t.Fatalf("expected 1 party, got %d", len(parties))
	}
	p := parties[0]
	if p.Kind != party.KindPerson || p.Person == nil || p.Person.LastName != "Yamada" {
		t.Fatalf("unexpected party %+v", p)
	}
	if len(p.Roles) != 1 || p.Roles[0].Type.Description != "Customer" {
		t.Fatalf("expected loaded customer role, got %+v", p.Roles)
	}
	if !p.Roles[0].Window.IsOpenEnded() {
		t.Fatalf("expected open ended role window")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPartyRepository_List_WithNextToken(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPartyRepository(mock)

	typeID := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows(partyColumns)
	addPersonRow(rows, uuid.New(), typeID, "One", now)
	addPersonRow(rows, uuid.New(), typeID, "Two", now)
	addPersonRow(rows, uuid.New(), typeID, "Three", now)

	kind := party.KindPerson
	mock.ExpectQuery("ORDER BY p.created_at DESC, p.id DESC").
		WithArgs(string(kind), 3, 0).
		WillReturnRows(rows)
	expectEmptyCollections(mock)

	parties, nextToken, err := repo.List(context.Background(), party.ListPartiesFilter{Kind: &kind, Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(parties) != 2 {
		t.Fatalf("expected 2 parties, got %d", len(parties))
	}
	if nextToken != "2" {
		t.Fatalf("expected next token '2', got %s", nextToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPartyRepository_List_InvalidArguments(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPartyRepository(mock)

	if _, _, err := repo.List(context.Background(), party.ListPartiesFilter{Limit: 0}); !errors.Is(err, party.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, _, err := repo.List(context.Background(), party.ListPartiesFilter{Limit: 1, Offset: -1}); !errors.Is(err, party.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestTranslatePartyPgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translatePartyPgError(pgx.ErrNoRows), party.ErrPartyNotFound) {
		t.Fatalf("expected not found mapping")
	}
	if !errors.Is(translatePartyPgError(&pgconn.PgError{Code: partySerializationFailure}), party.ErrRoleConflict) {
		t.Fatalf("expected serialization failure mapping")
	}
	if !errors.Is(translatePartyPgError(&pgconn.PgError{Code: partyCheckViolationCode}), validity.ErrInvalidDateRange) {
		t.Fatalf("expected date range mapping")
	}
	if !errors.Is(translatePartyPgError(&pgconn.PgError{Code: partyForeignKeyViolationCode, ConstraintName: "party_role_role_type_id_fkey"}), party.ErrRoleTypeNotFound) {
		t.Fatalf("expected role type mapping")
	}

	unique := &pgconn.PgError{Code: partyUniqueViolationCode, ConstraintName: "party_pkey"}
	if translatePartyPgError(unique) != unique {
		t.Fatalf("unexpected translation for unrelated unique violation")
	}
}
