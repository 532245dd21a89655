package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
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

// PartyChecker は当事者の存在確認のみを要求する最小の依存です。
type PartyChecker interface {
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
}

// UseCase は関係ユースケースの公開インターフェースです。
type UseCase interface {
	CreateRelationship(ctx context.Context, in CreateInput) (*Relationship, error)
	GetRelationship(ctx context.Context, id uuid.UUID) (*Relationship, error)
	ExpireRelationship(ctx context.Context, in ExpireInput) (*Relationship, error)
	ListRelationshipsForParty(ctx context.Context, in ListInput) ([]*Relationship, error)
	DeleteRelationship(ctx context.Context, id uuid.UUID) error
}

// Service は当事者間関係のユースケースをまとめます。
type Service struct {
	repo    Repository
	types   taxonomy.Repository
	parties PartyChecker
	clock   Clock
	tx      TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, types taxonomy.Repository, parties PartyChecker, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, types: types, parties: parties, clock: clock, tx: tx}
}

// CreateInput は関係作成時の入力です。From 未指定時は本日からです。
type CreateInput struct {
	FromPartyID uuid.UUID
	ToPartyID   uuid.UUID
	Type        string
	From        *time.Time
	Thru        *time.Time
	Comment     string
}

// ExpireInput は関係の終了日設定の入力です。Thru 未指定時は本日です。
type ExpireInput struct {
	ID   uuid.UUID
	Thru *time.Time
}

// ListInput は当事者ごとの関係一覧取得の入力です。
type ListInput struct {
	PartyID    uuid.UUID
	ActiveOnly bool
}

// CreateRelationship は両当事者の存在と期間の妥当性を検証した上で
// 関係を作成します。
func (s *Service) CreateRelationship(ctx context.Context, in CreateInput) (*Relationship, error) {
	if in.FromPartyID == uuid.Nil {
		return nil, ErrInvalidFromParty
	}
	if in.ToPartyID == uuid.Nil {
		return nil, ErrInvalidToParty
	}
	typeLabel := strings.TrimSpace(in.Type)
	if typeLabel == "" {
		return nil, ErrInvalidType
	}

	var created *Relationship
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		for _, partyID := range []uuid.UUID{in.FromPartyID, in.ToPartyID} {
			exists, err := s.parties.ExistsByID(txCtx, partyID)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: %s", ErrPartyNotFound, partyID)
			}
		}

		relType, err := s.types.FindByDescription(txCtx, taxonomy.KindRelationshipType, typeLabel)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNodeNotFound) {
				return fmt.Errorf("%w: %q", ErrTypeNotFound, typeLabel)
			}
			return err
		}

		now := s.clock.Now()
		window := validity.NewWindow(now)
		if in.From != nil {
			window = validity.NewWindow(*in.From)
		}
		if in.Thru != nil {
			t := validity.TruncateToDate(*in.Thru)
			window.ThruDate = &t
		}
		if err := window.Validate(); err != nil {
			return err
		}

		r := New(in.FromPartyID, in.ToPartyID, relType, window)
		r.Comment = in.Comment
		r.CreatedAt = now
		r.UpdatedAt = now

		result, err := s.repo.Create(txCtx, r)
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

// GetRelationship は関係を取得します。
func (s *Service) GetRelationship(ctx context.Context, id uuid.UUID) (*Relationship, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidID
	}

	var result *Relationship
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

// ExpireRelationship は終了日を設定します。呼び出し側の指定日が
// そのまま設定され、過去方向への短縮ガードはありません。
func (s *Service) ExpireRelationship(ctx context.Context, in ExpireInput) (*Relationship, error) {
	if in.ID == uuid.Nil {
		return nil, ErrInvalidID
	}

	var updated *Relationship
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		r, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		thru := s.clock.Now()
		if in.Thru != nil {
			thru = *in.Thru
		}
		r.SetThruDate(&thru)
		r.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, r)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

// ListRelationshipsForParty は当事者が関与する関係を返します。
func (s *Service) ListRelationshipsForParty(ctx context.Context, in ListInput) ([]*Relationship, error) {
	if in.PartyID == uuid.Nil {
		return nil, ErrInvalidID
	}

	var result []*Relationship
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var (
			relationships []*Relationship
			err           error
		)
		if in.ActiveOnly {
			relationships, err = s.repo.FindActiveByParty(txCtx, in.PartyID)
		} else {
			relationships, err = s.repo.FindByParty(txCtx, in.PartyID)
		}
		if err != nil {
			return err
		}
		result = relationships
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteRelationship は関係を物理削除します。
func (s *Service) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}
