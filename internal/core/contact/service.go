package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// UseCase は連絡手段ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmail(ctx context.Context, in CreateEmailInput) (*Mechanism, error)
	CreatePostalAddress(ctx context.Context, in CreatePostalInput) (*Mechanism, error)
	CreateTelecomNumber(ctx context.Context, in CreateTelecomInput) (*Mechanism, error)
	GetMechanism(ctx context.Context, id uuid.UUID) (*Mechanism, error)
	ListMechanisms(ctx context.Context, kind *Kind) ([]*Mechanism, error)
	DeleteMechanism(ctx context.Context, id uuid.UUID) error
}

// Service は連絡手段のユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateEmailInput はメールアドレス作成の入力です。
type CreateEmailInput struct {
	EmailAddress string
	Comment      string
}

// CreatePostalInput は郵送先住所作成の入力です。
type CreatePostalInput struct {
	Address1            string
	Address2            string
	City                string
	StateProvince       string
	PostalCode          string
	PostalCodeExtension string
	Country             string
	Comment             string
}

// CreateTelecomInput は電話番号作成の入力です。
type CreateTelecomInput struct {
	CountryCode string
	AreaCode    string
	PhoneNumber string
	Extension   string
	Comment     string
}

// CreateEmail はメールアドレスの連絡手段を作成します。
func (s *Service) CreateEmail(ctx context.Context, in CreateEmailInput) (*Mechanism, error) {
	m := NewEmail(EmailDetails{EmailAddress: in.EmailAddress})
	m.Comment = in.Comment
	return s.create(ctx, m)
}

// CreatePostalAddress は郵送先住所の連絡手段を作成します。
func (s *Service) CreatePostalAddress(ctx context.Context, in CreatePostalInput) (*Mechanism, error) {
	m := NewPostal(PostalDetails{
		Address1:            in.Address1,
		Address2:            in.Address2,
		City:                in.City,
		StateProvince:       in.StateProvince,
		PostalCode:          in.PostalCode,
		PostalCodeExtension: in.PostalCodeExtension,
		Country:             in.Country,
	})
	m.Comment = in.Comment
	return s.create(ctx, m)
}

// CreateTelecomNumber は電話番号の連絡手段を作成します。
func (s *Service) CreateTelecomNumber(ctx context.Context, in CreateTelecomInput) (*Mechanism, error) {
	m := NewTelecom(TelecomDetails{
		CountryCode: in.CountryCode,
		AreaCode:    in.AreaCode,
		PhoneNumber: in.PhoneNumber,
		Extension:   in.Extension,
	})
	m.Comment = in.Comment
	return s.create(ctx, m)
}

func (s *Service) create(ctx context.Context, m *Mechanism) (*Mechanism, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var created *Mechanism
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		m.CreatedAt = now
		m.UpdatedAt = now

		result, err := s.repo.Create(txCtx, m)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}
	return created, nil
}

// GetMechanism は連絡手段を取得します。
func (s *Service) GetMechanism(ctx context.Context, id uuid.UUID) (*Mechanism, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidID
	}

	var result *Mechanism
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ListMechanisms は連絡手段を一覧します。kind 指定時は絞り込みます。
func (s *Service) ListMechanisms(ctx context.Context, kind *Kind) ([]*Mechanism, error) {
	if kind != nil && !IsValidKind(*kind) {
		return nil, ErrInvalidKind
	}

	var result []*Mechanism
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		mechanisms, err := s.repo.List(txCtx, kind)
		if err != nil {
			return err
		}
		result = mechanisms
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteMechanism は連絡手段を削除します。
func (s *Service) DeleteMechanism(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}
