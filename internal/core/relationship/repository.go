package relationship

import (
	"context"

	"github.com/google/uuid"
)

// Repository は当事者間関係の永続化抽象です。
type Repository interface {
	Create(ctx context.Context, r *Relationship) (*Relationship, error)
	Update(ctx context.Context, r *Relationship) (*Relationship, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Relationship, error)
	// FindByParty は from / to どちらかに当事者が現れる関係を返します。
	FindByParty(ctx context.Context, partyID uuid.UUID) ([]*Relationship, error)
	// FindActiveByParty は呼び出し時点で有効 (終了日排他) な関係のみ返します。
	FindActiveByParty(ctx context.Context, partyID uuid.UUID) ([]*Relationship, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
