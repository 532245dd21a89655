package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	pgdb "github.com/erp-microservices/people-and-organizations/internal/platform/db/postgres"
)

const (
	taxonomyUniqueViolationCode     = "23505"
	taxonomyForeignKeyViolationCode = "23503"
)

// taxonomyChainDepth は親チェーンを解決する再帰クエリの深さ上限です。
const taxonomyChainDepth = 64

// TaxonomyRepository は PostgreSQL を利用した分類ノード永続化の実装です。
type TaxonomyRepository struct {
	pool pgdb.Queryer
}

// NewTaxonomyRepository は TaxonomyRepository を生成します。
func NewTaxonomyRepository(pool pgdb.Queryer) *TaxonomyRepository {
	return &TaxonomyRepository{pool: pool}
}

// Create はノードを新規作成し、親チェーンを解決した結果を返します。
func (r *TaxonomyRepository) Create(ctx context.Context, node *taxonomy.Node) (*taxonomy.Node, error) {
	id := node.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO taxonomy_node (id, kind, description, parent_id, from_role_type, to_role_type)
        VALUES ($1, $2, $3, $4, $5, $6)
    `,
		id.String(),
		string(node.Kind),
		node.Description,
		nullableUUID(node.ParentID),
		nullableText(node.FromRoleType),
		nullableText(node.ToRoleType),
	)
	if err != nil {
		return nil, translateTaxonomyPgError(err)
	}

	return r.FindByID(ctx, id)
}

// FindByID は ID でノードを取得します。親チェーンは深さ上限まで解決されます。
func (r *TaxonomyRepository) FindByID(ctx context.Context, id uuid.UUID) (*taxonomy.Node, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        WITH RECURSIVE chain AS (
            SELECT n.id, n.kind, n.description, n.parent_id, n.from_role_type, n.to_role_type, 0 AS depth
              FROM taxonomy_node n
             WHERE n.id = $1
            UNION ALL
            SELECT p.id, p.kind, p.description, p.parent_id, p.from_role_type, p.to_role_type, c.depth + 1
              FROM taxonomy_node p
              JOIN chain c ON p.id = c.parent_id
             WHERE c.depth < $2
        )
        SELECT id, kind, description, parent_id, from_role_type, to_role_type
          FROM chain
         ORDER BY depth
    `, id.String(), taxonomyChainDepth)
	if err != nil {
		return nil, translateTaxonomyPgError(err)
	}
	defer rows.Close()

	return collectTaxonomyChain(rows)
}

// FindByDescription は種別と説明でノードを取得します。
func (r *TaxonomyRepository) FindByDescription(ctx context.Context, kind taxonomy.Kind, description string) (*taxonomy.Node, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        WITH RECURSIVE chain AS (
            SELECT n.id, n.kind, n.description, n.parent_id, n.from_role_type, n.to_role_type, 0 AS depth
              FROM taxonomy_node n
             WHERE n.kind = $1 AND n.description = $2
            UNION ALL
            SELECT p.id, p.kind, p.description, p.parent_id, p.from_role_type, p.to_role_type, c.depth + 1
              FROM taxonomy_node p
              JOIN chain c ON p.id = c.parent_id
             WHERE c.depth < $3
        )
        SELECT id, kind, description, parent_id, from_role_type, to_role_type
          FROM chain
         ORDER BY depth
    `, string(kind), description, taxonomyChainDepth)
	if err != nil {
		return nil, translateTaxonomyPgError(err)
	}
	defer rows.Close()

	return collectTaxonomyChain(rows)
}

// FindOrCreate は description で検索し、存在しなければ作成します。
// 同時挿入は部分一意制約で片方が吸収され、どちらの呼び出しも同じ
// ノードを受け取ります。
func (r *TaxonomyRepository) FindOrCreate(ctx context.Context, kind taxonomy.Kind, description string) (*taxonomy.Node, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO taxonomy_node (id, kind, description)
        VALUES ($1, $2, $3)
        ON CONFLICT (kind, description) DO NOTHING
    `, uuid.New().String(), string(kind), description)
	if err != nil {
		return nil, translateTaxonomyPgError(err)
	}

	return r.FindByDescription(ctx, kind, description)
}

// ListByKind は種別ごとのノード一覧を説明の昇順で返します。
// 親チェーンは結果集合の範囲内で解決されます。
func (r *TaxonomyRepository) ListByKind(ctx context.Context, kind taxonomy.Kind) ([]*taxonomy.Node, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, kind, description, parent_id, from_role_type, to_role_type
          FROM taxonomy_node
         WHERE kind = $1
         ORDER BY description
    `, string(kind))
	if err != nil {
		return nil, translateTaxonomyPgError(err)
	}
	defer rows.Close()

	nodes := make([]*taxonomy.Node, 0, 16)
	byID := make(map[uuid.UUID]*taxonomy.Node)
	for rows.Next() {
		node, err := scanTaxonomyNode(rows)
		if err != nil {
			return nil, translateTaxonomyPgError(err)
		}
		nodes = append(nodes, node)
		byID[node.ID] = node
	}
	if err := rows.Err(); err != nil {
		return nil, translateTaxonomyPgError(err)
	}

	for _, node := range nodes {
		if node.ParentID != nil {
			node.Parent = byID[*node.ParentID]
		}
	}

	return nodes, nil
}

func collectTaxonomyChain(rows pgx.Rows) (*taxonomy.Node, error) {
	chain := make([]*taxonomy.Node, 0, 4)
	for rows.Next() {
		node, err := scanTaxonomyNode(rows)
		if err != nil {
			return nil, translateTaxonomyPgError(err)
		}
		chain = append(chain, node)
	}
	if err := rows.Err(); err != nil {
		return nil, translateTaxonomyPgError(err)
	}
	if len(chain) == 0 {
		return nil, taxonomy.ErrNodeNotFound
	}

	for i := 0; i+1 < len(chain); i++ {
		if chain[i].ParentID != nil && *chain[i].ParentID == chain[i+1].ID {
			chain[i].Parent = chain[i+1]
		}
	}

	return chain[0], nil
}

func scanTaxonomyNode(row pgx.Row) (*taxonomy.Node, error) {
	var (
		id          string
		kind        string
		description string
		parentID    sql.NullString
		fromRole    sql.NullString
		toRole      sql.NullString
	)

	if err := row.Scan(&id, &kind, &description, &parentID, &fromRole, &toRole); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	node := &taxonomy.Node{
		ID:          parsed,
		Kind:        taxonomy.Kind(kind),
		Description: description,
	}
	if parentID.Valid {
		parent, err := uuid.Parse(parentID.String)
		if err != nil {
			return nil, err
		}
		node.ParentID = &parent
	}
	if fromRole.Valid {
		node.FromRoleType = fromRole.String
	}
	if toRole.Valid {
		node.ToRoleType = toRole.String
	}

	return node, nil
}

func translateTaxonomyPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return taxonomy.ErrNodeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case taxonomyUniqueViolationCode:
			return taxonomy.ErrDuplicateNode
		case taxonomyForeignKeyViolationCode:
			return taxonomy.ErrParentNotFound
		}
	}

	return err
}

func nullableUUID(value *uuid.UUID) any {
	if value == nil {
		return nil
	}
	return value.String()
}

func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}
