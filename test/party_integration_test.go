//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	repo "github.com/erp-microservices/people-and-organizations/internal/adapters/repository/postgres"
	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/platform/config"
	pg "github.com/erp-microservices/people-and-organizations/internal/platform/db/postgres"
)

const migrationsDir = "assets/migrations"

func TestPartyLifecycleIntegration(t *testing.T) {
	cfg, err := config.Load(configPathFromEnv())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	taxonomyRepo := repo.NewTaxonomyRepository(pool)
	seedReferenceData(t, ctx, taxonomyRepo)

	partyRepo := repo.NewPartyRepository(pool)
	relationshipRepo := repo.NewRelationshipRepository(pool)
	txManager := pg.NewTransactionManager(pool)

	partySvc := party.NewService(partyRepo, taxonomyRepo, nil, txManager)
	relationshipSvc := relationship.NewService(relationshipRepo, taxonomyRepo, partyRepo, nil, txManager)

	person, err := partySvc.CreatePerson(ctx, party.CreatePersonInput{
		FirstName: "Hanako",
		LastName:  "Yamada",
	})
	if err != nil {
		t.Fatalf("CreatePerson error: %v", err)
	}

	org, err := partySvc.CreateOrganization(ctx, party.CreateOrganizationInput{
		Name: "Acme Corporation",
	})
	if err != nil {
		t.Fatalf("CreateOrganization error: %v", err)
	}

	added, err := partySvc.AddRoleToParty(ctx, party.AddRoleInput{PartyID: person.ID, RoleType: "Employee"})
	if err != nil {
		t.Fatalf("AddRoleToParty(Employee) error: %v", err)
	}
	if !added.Appended {
		t.Fatalf("expected first role add to append")
	}
	if _, err := partySvc.AddRoleToParty(ctx, party.AddRoleInput{PartyID: org.ID, RoleType: "Employer"}); err != nil {
		t.Fatalf("AddRoleToParty(Employer) error: %v", err)
	}

	// 既に有効なロールの再付与は冪等で、ロールは増えない。
	duplicate, err := partySvc.AddRoleToParty(ctx, party.AddRoleInput{PartyID: person.ID, RoleType: "Employee"})
	if err != nil {
		t.Fatalf("duplicate AddRoleToParty error: %v", err)
	}
	if duplicate.Appended {
		t.Fatalf("expected duplicate role add to be a no-op")
	}
	if got := len(duplicate.Party.ActiveRoles()); got != 1 {
		t.Fatalf("expected exactly one active role after duplicate add, got %d", got)
	}

	employees, err := partySvc.FindPartiesByRole(ctx, "Employee")
	if err != nil {
		t.Fatalf("FindPartiesByRole error: %v", err)
	}
	if len(employees) != 1 || employees[0].ID != person.ID {
		t.Fatalf("expected the person as the only employee, got %d parties", len(employees))
	}

	rel, err := relationshipSvc.CreateRelationship(ctx, relationship.CreateInput{
		FromPartyID: person.ID,
		ToPartyID:   org.ID,
		Type:        "Employment",
	})
	if err != nil {
		t.Fatalf("CreateRelationship error: %v", err)
	}
	if !rel.IsActive() {
		t.Fatalf("expected new relationship to be active")
	}

	active, err := relationshipSvc.ListRelationshipsForParty(ctx, relationship.ListInput{PartyID: person.ID, ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListRelationshipsForParty error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected one active relationship, got %d", len(active))
	}

	expired, err := relationshipSvc.ExpireRelationship(ctx, relationship.ExpireInput{ID: rel.ID})
	if err != nil {
		t.Fatalf("ExpireRelationship error: %v", err)
	}
	if expired.Window.ThruDate == nil {
		t.Fatalf("expected thru date to be set after expiry")
	}

	removed, err := partySvc.RemoveRoleFromParty(ctx, party.RemoveRoleInput{PartyID: person.ID, RoleType: "Employee"})
	if err != nil {
		t.Fatalf("RemoveRoleFromParty error: %v", err)
	}
	if !removed.Expired {
		t.Fatalf("expected the active role to be expired")
	}

	if err := relationshipSvc.DeleteRelationship(ctx, rel.ID); err != nil {
		t.Fatalf("DeleteRelationship error: %v", err)
	}
	if err := partySvc.DeleteParty(ctx, person.ID); err != nil {
		t.Fatalf("DeleteParty error: %v", err)
	}
	if _, err := partySvc.GetParty(ctx, person.ID); !errors.Is(err, party.ErrPartyNotFound) {
		t.Fatalf("expected ErrPartyNotFound, got %v", err)
	}
}

func seedReferenceData(t *testing.T, ctx context.Context, types taxonomy.Repository) {
	t.Helper()

	for _, description := range []string{"Person", "Organization"} {
		if _, err := types.FindOrCreate(ctx, taxonomy.KindPartyType, description); err != nil {
			t.Fatalf("seed party type %q: %v", description, err)
		}
	}
	for _, description := range []string{"Employee", "Employer"} {
		if _, err := types.FindOrCreate(ctx, taxonomy.KindRoleType, description); err != nil {
			t.Fatalf("seed role type %q: %v", description, err)
		}
	}
	if _, err := types.Create(ctx, &taxonomy.Node{
		Kind:         taxonomy.KindRelationshipType,
		Description:  "Employment",
		FromRoleType: "Employee",
		ToRoleType:   "Employer",
	}); err != nil && !errors.Is(err, taxonomy.ErrDuplicateNode) {
		t.Fatalf("seed relationship type: %v", err)
	}
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "assets/local.yaml"
}
