package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeMechanismRepo struct {
	mechanisms map[uuid.UUID]*Mechanism
}

func newFakeMechanismRepo() *fakeMechanismRepo {
	return &fakeMechanismRepo{mechanisms: make(map[uuid.UUID]*Mechanism)}
}

func (f *fakeMechanismRepo) Create(_ context.Context, m *Mechanism) (*Mechanism, error) {
	clone := *m
	f.mechanisms[m.ID] = &clone
	return &clone, nil
}

func (f *fakeMechanismRepo) Update(_ context.Context, m *Mechanism) (*Mechanism, error) {
	if _, ok := f.mechanisms[m.ID]; !ok {
		return nil, ErrMechanismNotFound
	}
	clone := *m
	f.mechanisms[m.ID] = &clone
	return &clone, nil
}

func (f *fakeMechanismRepo) FindByID(_ context.Context, id uuid.UUID) (*Mechanism, error) {
	m, ok := f.mechanisms[id]
	if !ok {
		return nil, ErrMechanismNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMechanismRepo) List(_ context.Context, kind *Kind) ([]*Mechanism, error) {
	var result []*Mechanism
	for _, m := range f.mechanisms {
		if kind == nil || m.Kind == *kind {
			clone := *m
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (f *fakeMechanismRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.mechanisms[id]; !ok {
		return ErrMechanismNotFound
	}
	delete(f.mechanisms, id)
	return nil
}

func newTestService(repo *fakeMechanismRepo) *Service {
	return NewService(repo, &stubClock{now: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}, nil)
}

func TestCreateEmail_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeMechanismRepo())

	created, err := svc.CreateEmail(context.Background(), CreateEmailInput{EmailAddress: "john@example.com"})
	if err != nil {
		t.Fatalf("CreateEmail returned error: %v", err)
	}
	if created.Kind != KindEmail || created.Email == nil {
		t.Fatalf("unexpected mechanism: %+v", created)
	}

	_, err = svc.CreateEmail(context.Background(), CreateEmailInput{EmailAddress: "not-an-email"})
	if !errors.Is(err, ErrInvalidEmailAddress) {
		t.Fatalf("expected ErrInvalidEmailAddress, got %v", err)
	}
}

func TestCreatePostalAddress_RequiresCoreFields(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeMechanismRepo())

	_, err := svc.CreatePostalAddress(context.Background(), CreatePostalInput{
		Address1: "123 Main St",
		City:     "Springfield",
		// state, postal code and country missing
	})
	if !errors.Is(err, ErrInvalidPostalAddress) {
		t.Fatalf("expected ErrInvalidPostalAddress, got %v", err)
	}

	created, err := svc.CreatePostalAddress(context.Background(), CreatePostalInput{
		Address1:      "123 Main St",
		City:          "Springfield",
		StateProvince: "IL",
		PostalCode:    "62704",
		Country:       "US",
	})
	if err != nil {
		t.Fatalf("CreatePostalAddress returned error: %v", err)
	}
	if created.Kind != KindPostal || created.Postal == nil {
		t.Fatalf("unexpected mechanism: %+v", created)
	}
}

func TestCreateTelecomNumber_RequiresPhoneNumber(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeMechanismRepo())

	_, err := svc.CreateTelecomNumber(context.Background(), CreateTelecomInput{CountryCode: "1"})
	if !errors.Is(err, ErrInvalidTelecomNumber) {
		t.Fatalf("expected ErrInvalidTelecomNumber, got %v", err)
	}
}

func TestListMechanisms_FilterByKind(t *testing.T) {
	t.Parallel()

	repo := newFakeMechanismRepo()
	svc := newTestService(repo)

	if _, err := svc.CreateEmail(context.Background(), CreateEmailInput{EmailAddress: "a@example.com"}); err != nil {
		t.Fatalf("CreateEmail returned error: %v", err)
	}
	if _, err := svc.CreateTelecomNumber(context.Background(), CreateTelecomInput{PhoneNumber: "555-0100"}); err != nil {
		t.Fatalf("CreateTelecomNumber returned error: %v", err)
	}

	kind := KindEmail
	emails, err := svc.ListMechanisms(context.Background(), &kind)
	if err != nil {
		t.Fatalf("ListMechanisms returned error: %v", err)
	}
	if len(emails) != 1 || emails[0].Kind != KindEmail {
		t.Fatalf("expected one email mechanism, got %+v", emails)
	}

	all, err := svc.ListMechanisms(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListMechanisms returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two mechanisms, got %d", len(all))
	}
}
