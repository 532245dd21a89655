package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
	pgdb "github.com/erp-microservices/people-and-organizations/internal/platform/db/postgres"
)

const relationshipSelect = `
        SELECT r.id,
               r.from_party_id,
               r.to_party_id,
               r.comment,
               r.from_date,
               r.thru_date,
               r.created_at,
               r.updated_at,
               t.id,
               t.kind,
               t.description,
               t.parent_id,
               t.from_role_type,
               t.to_role_type
          FROM party_relationship r
          JOIN taxonomy_node t ON t.id = r.relationship_type_id`

// RelationshipRepository は PostgreSQL を利用した当事者間関係永続化の実装です。
type RelationshipRepository struct {
	pool pgdb.Queryer
}

// NewRelationshipRepository は RelationshipRepository を生成します。
func NewRelationshipRepository(pool pgdb.Queryer) *RelationshipRepository {
	return &RelationshipRepository{pool: pool}
}

// Create は関係を新規作成します。
func (r *RelationshipRepository) Create(ctx context.Context, rel *relationship.Relationship) (*relationship.Relationship, error) {
	if rel.Type == nil {
		return nil, relationship.ErrInvalidType
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO party_relationship (id, from_party_id, to_party_id, relationship_type_id, comment, from_date, thru_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at
    `,
		rel.ID.String(),
		rel.FromPartyID.String(),
		rel.ToPartyID.String(),
		rel.Type.ID.String(),
		rel.Comment,
		rel.Window.FromDate,
		nullableDate(rel.Window.ThruDate),
	)
	if err := row.Scan(&rel.CreatedAt, &rel.UpdatedAt); err != nil {
		return nil, translateRelationshipPgError(err)
	}

	return rel, nil
}

// Update は関係の終了日とコメントを更新します。
func (r *RelationshipRepository) Update(ctx context.Context, rel *relationship.Relationship) (*relationship.Relationship, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE party_relationship
           SET comment = $1,
               thru_date = $2,
               updated_at = NOW()
         WHERE id = $3
        RETURNING created_at, updated_at
    `,
		rel.Comment,
		nullableDate(rel.Window.ThruDate),
		rel.ID.String(),
	)
	if err := row.Scan(&rel.CreatedAt, &rel.UpdatedAt); err != nil {
		return nil, translateRelationshipPgError(err)
	}

	return rel, nil
}

// FindByID は ID で関係を取得します。
func (r *RelationshipRepository) FindByID(ctx context.Context, id uuid.UUID) (*relationship.Relationship, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, relationshipSelect+`
         WHERE r.id = $1
         LIMIT 1
    `, id.String())

	found, err := scanRelationship(row)
	if err != nil {
		return nil, translateRelationshipPgError(err)
	}
	return found, nil
}

// FindByParty は from / to どちらかに当事者が現れる関係を返します。
func (r *RelationshipRepository) FindByParty(ctx context.Context, partyID uuid.UUID) ([]*relationship.Relationship, error) {
	return r.queryRelationships(ctx, relationshipSelect+`
         WHERE r.from_party_id = $1 OR r.to_party_id = $1
         ORDER BY r.from_date, r.id
    `, partyID.String())
}

// FindActiveByParty は本日時点で有効 (終了日排他) な関係のみ返します。
func (r *RelationshipRepository) FindActiveByParty(ctx context.Context, partyID uuid.UUID) ([]*relationship.Relationship, error) {
	return r.queryRelationships(ctx, relationshipSelect+`
         WHERE (r.from_party_id = $1 OR r.to_party_id = $1)
           AND r.from_date <= CURRENT_DATE
           AND (r.thru_date IS NULL OR r.thru_date > CURRENT_DATE)
         ORDER BY r.from_date, r.id
    `, partyID.String())
}

// Delete は関係を削除します。
func (r *RelationshipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM party_relationship WHERE id = $1`, id.String())
	if err != nil {
		return translateRelationshipPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return relationship.ErrRelationshipNotFound
	}
	return nil
}

func (r *RelationshipRepository) queryRelationships(ctx context.Context, query string, args ...any) ([]*relationship.Relationship, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateRelationshipPgError(err)
	}
	defer rows.Close()

	relationships := make([]*relationship.Relationship, 0, 8)
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, translateRelationshipPgError(err)
		}
		relationships = append(relationships, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, translateRelationshipPgError(err)
	}

	return relationships, nil
}

func scanRelationship(row pgx.Row) (*relationship.Relationship, error) {
	var (
		id          string
		fromPartyID string
		toPartyID   string
		comment     string
		fromDate    time.Time
		thruDate    sql.NullTime
		createdAt   time.Time
		updatedAt   time.Time
		typeRef     typeRefColumns
		fromRole    sql.NullString
		toRole      sql.NullString
	)

	if err := row.Scan(
		&id,
		&fromPartyID,
		&toPartyID,
		&comment,
		&fromDate,
		&thruDate,
		&createdAt,
		&updatedAt,
		&typeRef.id,
		&typeRef.kind,
		&typeRef.description,
		&typeRef.parentID,
		&fromRole,
		&toRole,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, relationship.ErrRelationshipNotFound
		}
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	parsedFrom, err := uuid.Parse(fromPartyID)
	if err != nil {
		return nil, err
	}
	parsedTo, err := uuid.Parse(toPartyID)
	if err != nil {
		return nil, err
	}
	node, err := typeRef.toNode()
	if err != nil {
		return nil, err
	}
	if fromRole.Valid {
		node.FromRoleType = fromRole.String
	}
	if toRole.Valid {
		node.ToRoleType = toRole.String
	}

	return &relationship.Relationship{
		ID:          parsedID,
		FromPartyID: parsedFrom,
		ToPartyID:   parsedTo,
		Type:        node,
		Window:      scanWindow(fromDate, thruDate),
		Comment:     comment,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func translateRelationshipPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return relationship.ErrRelationshipNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case partyForeignKeyViolationCode:
			if strings.Contains(pgErr.ConstraintName, "party_id") {
				return relationship.ErrPartyNotFound
			}
			if strings.Contains(pgErr.ConstraintName, "relationship_type") {
				return relationship.ErrTypeNotFound
			}
			return err
		case partyCheckViolationCode:
			return validity.ErrInvalidDateRange
		}
	}

	return err
}
