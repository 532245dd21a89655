package contact

import (
	"context"

	"github.com/google/uuid"
)

// Repository は連絡手段永続化の抽象です。基底レコードとバリアント
// 拡張レコードは常に一体で保存・復元されます。
type Repository interface {
	Create(ctx context.Context, m *Mechanism) (*Mechanism, error)
	Update(ctx context.Context, m *Mechanism) (*Mechanism, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Mechanism, error)
	List(ctx context.Context, kind *Kind) ([]*Mechanism, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
