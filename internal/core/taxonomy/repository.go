package taxonomy

import (
	"context"

	"github.com/google/uuid"
)

// Repository は分類ノード永続化の抽象です。返されるノードの Parent
// チェーンは深さ上限まで解決済みであることが保証されます。
type Repository interface {
	Create(ctx context.Context, node *Node) (*Node, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Node, error)
	FindByDescription(ctx context.Context, kind Kind, description string) (*Node, error)
	// FindOrCreate は description で検索し、存在しなければ作成します。
	// 並行呼び出しでも重複ノードを生みません。
	FindOrCreate(ctx context.Context, kind Kind, description string) (*Node, error)
	ListByKind(ctx context.Context, kind Kind) ([]*Node, error)
}
