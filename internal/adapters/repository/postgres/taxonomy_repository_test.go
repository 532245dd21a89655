package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
)

var taxonomyColumns = []string{"id", "kind", "description", "parent_id", "from_role_type", "to_role_type"}

func TestTaxonomyRepository_FindByDescription_ResolvesParentChain(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewTaxonomyRepository(mock)

	childID := uuid.New()
	parentID := uuid.New()

	rows := pgxmock.NewRows(taxonomyColumns).
		AddRow(childID.String(), "PARTY_TYPE", "Corporation", parentID.String(), nil, nil).
		AddRow(parentID.String(), "PARTY_TYPE", "Organization", nil, nil, nil)

	mock.ExpectQuery("WITH RECURSIVE chain").
		WithArgs(string(taxonomy.KindPartyType), "Corporation", taxonomyChainDepth).
		WillReturnRows(rows)

	node, err := repo.FindByDescription(context.Background(), taxonomy.KindPartyType, "Corporation")
	if err != nil {
		t.Fatalf("FindByDescription returned error: %v", err)
	}

	if node.Description != "Corporation" {
		t.Fatalf("unexpected node %+v", node)
	}
	if node.Parent == nil || node.Parent.Description != "Organization" {
		t.Fatalf("parent chain not resolved: %+v", node.Parent)
	}
	if !node.IsOrganization() {
		t.Fatalf("expected Corporation to descend from Organization")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaxonomyRepository_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewTaxonomyRepository(mock)

	mock.ExpectQuery("WITH RECURSIVE chain").
		WithArgs(pgxmock.AnyArg(), taxonomyChainDepth).
		WillReturnRows(pgxmock.NewRows(taxonomyColumns))

	if _, err := repo.FindByID(context.Background(), uuid.New()); !errors.Is(err, taxonomy.ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaxonomyRepository_FindOrCreate_InsertsThenSelects(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewTaxonomyRepository(mock)

	nodeID := uuid.New()

	mock.ExpectExec("INSERT INTO taxonomy_node").
		WithArgs(pgxmock.AnyArg(), string(taxonomy.KindNameType), "Nickname").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	mock.ExpectQuery("WITH RECURSIVE chain").
		WithArgs(string(taxonomy.KindNameType), "Nickname", taxonomyChainDepth).
		WillReturnRows(pgxmock.NewRows(taxonomyColumns).
			AddRow(nodeID.String(), "NAME_TYPE", "Nickname", nil, nil, nil))

	node, err := repo.FindOrCreate(context.Background(), taxonomy.KindNameType, "Nickname")
	if err != nil {
		t.Fatalf("FindOrCreate returned error: %v", err)
	}

	if node.ID != nodeID || node.Description != "Nickname" {
		t.Fatalf("unexpected node %+v", node)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaxonomyRepository_ListByKind_StitchesParents(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewTaxonomyRepository(mock)

	rootID := uuid.New()
	childID := uuid.New()

	rows := pgxmock.NewRows(taxonomyColumns).
		AddRow(childID.String(), "PARTY_ROLE_TYPE", "Customer", rootID.String(), nil, nil).
		AddRow(rootID.String(), "PARTY_ROLE_TYPE", "Role", nil, nil, nil)

	mock.ExpectQuery("FROM taxonomy_node").
		WithArgs(string(taxonomy.KindRoleType)).
		WillReturnRows(rows)

	nodes, err := repo.ListByKind(context.Background(), taxonomy.KindRoleType)
	if err != nil {
		t.Fatalf("ListByKind returned error: %v", err)
	}

	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].Parent == nil || nodes[0].Parent.ID != rootID {
		t.Fatalf("expected parent stitched within result set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranslateTaxonomyPgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateTaxonomyPgError(&pgconn.PgError{Code: taxonomyUniqueViolationCode}), taxonomy.ErrDuplicateNode) {
		t.Fatalf("expected duplicate node mapping")
	}
	if !errors.Is(translateTaxonomyPgError(&pgconn.PgError{Code: taxonomyForeignKeyViolationCode}), taxonomy.ErrParentNotFound) {
		t.Fatalf("expected parent not found mapping")
	}
	if !errors.Is(translateTaxonomyPgError(pgx.ErrNoRows), taxonomy.ErrNodeNotFound) {
		t.Fatalf("expected node not found mapping")
	}

	otherErr := errors.New("random")
	if translateTaxonomyPgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
}
