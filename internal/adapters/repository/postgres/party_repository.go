package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
	pgdb "github.com/erp-microservices/people-and-organizations/internal/platform/db/postgres"
)

const (
	partyUniqueViolationCode     = "23505"
	partyForeignKeyViolationCode = "23503"
	partyCheckViolationCode      = "23514"
	partySerializationFailure    = "40001"
)

// activeRoleConstraintName は同種別の有効ロールを一件に制限する部分一意
// インデックスの名前です。コミット時の重複検出をこの名前で識別します。
const activeRoleConstraintName = "uq_party_role_active"

const partySelect = `
        SELECT p.id,
               p.kind,
               p.comment,
               p.created_at,
               p.updated_at,
               t.id,
               t.kind,
               t.description,
               t.parent_id,
               per.first_name,
               per.middle_name,
               per.last_name,
               per.title,
               per.suffix,
               per.birth_date,
               per.gender,
               org.name,
               org.trading_name,
               org.registration_number,
               org.established_date,
               org.tax_id_number,
               org.number_of_employees,
               org.industry
          FROM party p
          JOIN taxonomy_node t ON t.id = p.party_type_id
          LEFT JOIN person per ON per.party_id = p.id
          LEFT JOIN organization org ON org.party_id = p.id`

// PartyRepository は PostgreSQL を利用した当事者集約永続化の実装です。
// 基底テーブルとバリアント拡張テーブルを結合し、ディスクリミネータに
// 従って具象バリアントを復元します。
type PartyRepository struct {
	pool pgdb.Queryer
}

// NewPartyRepository は PartyRepository を生成します。
func NewPartyRepository(pool pgdb.Queryer) *PartyRepository {
	return &PartyRepository{pool: pool}
}

// Save は基底レコード・バリアント拡張・全コレクションをまとめて upsert
// します。コレクションの行は失効しても削除されないため、差分削除は
// 行いません。
func (r *PartyRepository) Save(ctx context.Context, p *party.Party) (*party.Party, error) {
	if p.ID == uuid.Nil {
		return nil, party.ErrInvalidID
	}
	if p.Type == nil {
		return nil, party.ErrPartyTypeNotConfigured
	}
	p.EnsureCollections()

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	row := exec.QueryRow(ctx, `
        INSERT INTO party (id, kind, party_type_id, comment)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
            SET party_type_id = EXCLUDED.party_type_id,
                comment = EXCLUDED.comment,
                updated_at = NOW()
        RETURNING created_at, updated_at
    `, p.ID.String(), string(p.Kind), p.Type.ID.String(), p.Comment)
	if err := row.Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, translatePartyPgError(err)
	}

	if err := r.saveVariant(ctx, exec, p); err != nil {
		return nil, err
	}
	if err := r.saveCollections(ctx, exec, p); err != nil {
		return nil, err
	}

	return p, nil
}

// SaveAll は複数の当事者を順に保存します。
func (r *PartyRepository) SaveAll(ctx context.Context, parties []*party.Party) ([]*party.Party, error) {
	saved := make([]*party.Party, 0, len(parties))
	for _, p := range parties {
		s, err := r.Save(ctx, p)
		if err != nil {
			return nil, err
		}
		saved = append(saved, s)
	}
	return saved, nil
}

func (r *PartyRepository) saveVariant(ctx context.Context, exec pgdb.Queryer, p *party.Party) error {
	switch p.Kind {
	case party.KindPerson:
		if p.Person == nil {
			return party.ErrInvalidKind
		}
		d := p.Person
		_, err := exec.Exec(ctx, `
            INSERT INTO person (party_id, first_name, middle_name, last_name, title, suffix, birth_date, gender)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (party_id) DO UPDATE
                SET first_name = EXCLUDED.first_name,
                    middle_name = EXCLUDED.middle_name,
                    last_name = EXCLUDED.last_name,
                    title = EXCLUDED.title,
                    suffix = EXCLUDED.suffix,
                    birth_date = EXCLUDED.birth_date,
                    gender = EXCLUDED.gender
        `,
			p.ID.String(),
			d.FirstName,
			d.MiddleName,
			d.LastName,
			d.Title,
			d.Suffix,
			nullableDate(d.BirthDate),
			nullableGender(d.Gender),
		)
		if err != nil {
			return translatePartyPgError(err)
		}
	case party.KindOrganization:
		if p.Organization == nil {
			return party.ErrInvalidKind
		}
		d := p.Organization
		_, err := exec.Exec(ctx, `
            INSERT INTO organization (party_id, name, trading_name, registration_number, established_date, tax_id_number, number_of_employees, industry)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (party_id) DO UPDATE
                SET name = EXCLUDED.name,
                    trading_name = EXCLUDED.trading_name,
                    registration_number = EXCLUDED.registration_number,
                    established_date = EXCLUDED.established_date,
                    tax_id_number = EXCLUDED.tax_id_number,
                    number_of_employees = EXCLUDED.number_of_employees,
                    industry = EXCLUDED.industry
        `,
			p.ID.String(),
			d.Name,
			d.TradingName,
			d.RegistrationNumber,
			nullableDate(d.EstablishedDate),
			d.TaxIDNumber,
			nullableInt(d.NumberOfEmployees),
			d.Industry,
		)
		if err != nil {
			return translatePartyPgError(err)
		}
	default:
		return party.ErrInvalidKind
	}
	return nil
}

func (r *PartyRepository) saveCollections(ctx context.Context, exec pgdb.Queryer, p *party.Party) error {
	for _, role := range p.Roles {
		if role.Type == nil {
			return party.ErrInvalidRoleType
		}
		_, err := exec.Exec(ctx, `
            INSERT INTO party_role (id, party_id, role_type_id, from_date, thru_date)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (id) DO UPDATE
                SET thru_date = EXCLUDED.thru_date
        `,
			role.ID.String(),
			p.ID.String(),
			role.Type.ID.String(),
			role.Window.FromDate,
			nullableDate(role.Window.ThruDate),
		)
		if err != nil {
			return translatePartyPgError(err)
		}
	}

	for position, name := range p.Names {
		if name.Type == nil {
			return party.ErrInvalidNameType
		}
		_, err := exec.Exec(ctx, `
            INSERT INTO party_name (id, party_id, name, name_type_id, from_date, thru_date, position)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (id) DO UPDATE
                SET thru_date = EXCLUDED.thru_date,
                    position = EXCLUDED.position
        `,
			name.ID.String(),
			p.ID.String(),
			name.Name,
			name.Type.ID.String(),
			name.Window.FromDate,
			nullableDate(name.Window.ThruDate),
			position,
		)
		if err != nil {
			return translatePartyPgError(err)
		}
	}

	for _, ident := range p.Identifications {
		if ident.Type == nil {
			return party.ErrInvalidIdentifier
		}
		_, err := exec.Exec(ctx, `
            INSERT INTO party_identification (id, party_id, identifier, identification_type_id, from_date, thru_date)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (id) DO UPDATE
                SET thru_date = EXCLUDED.thru_date
        `,
			ident.ID.String(),
			p.ID.String(),
			ident.Identifier,
			ident.Type.ID.String(),
			ident.Window.FromDate,
			nullableDate(ident.Window.ThruDate),
		)
		if err != nil {
			return translatePartyPgError(err)
		}
	}

	for _, classification := range p.Classifications {
		if classification.Type == nil {
			return party.ErrInvalidClassification
		}
		_, err := exec.Exec(ctx, `
            INSERT INTO party_classification (id, party_id, value, classification_type_id, from_date, thru_date)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (id) DO UPDATE
                SET thru_date = EXCLUDED.thru_date
        `,
			classification.ID.String(),
			p.ID.String(),
			classification.Value,
			classification.Type.ID.String(),
			classification.Window.FromDate,
			nullableDate(classification.Window.ThruDate),
		)
		if err != nil {
			return translatePartyPgError(err)
		}
	}

	return nil
}

// FindByID はディスクリミネータに従い具象バリアントを復元します。
func (r *PartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	parties, err := r.queryParties(ctx, partySelect+`
         WHERE p.id = $1
         LIMIT 1
    `, id.String())
	if err != nil {
		return nil, err
	}
	if len(parties) == 0 {
		return nil, party.ErrPartyNotFound
	}
	return parties[0], nil
}

// FindByType は当事者種別が typeLabel と一致するか、その子孫種別である
// 当事者を返します。
func (r *PartyRepository) FindByType(ctx context.Context, typeLabel string) ([]*party.Party, error) {
	return r.queryParties(ctx, `
        WITH RECURSIVE matched AS (
            SELECT n.id
              FROM taxonomy_node n
             WHERE n.kind = 'PARTY_TYPE' AND n.description = $1
            UNION ALL
            SELECT c.id
              FROM taxonomy_node c
              JOIN matched m ON c.parent_id = m.id
        )`+partySelect+`
         WHERE p.party_type_id IN (SELECT id FROM matched)
         ORDER BY p.created_at, p.id
    `, typeLabel)
}

// FindByActiveRole は役割種別が一致し、かつ thru_date が未設定の役割を
// 持つ当事者を返します。日付比較は意図的に行いません。
func (r *PartyRepository) FindByActiveRole(ctx context.Context, roleLabel string) ([]*party.Party, error) {
	return r.queryParties(ctx, partySelect+`
         WHERE p.id IN (
                   SELECT pr.party_id
                     FROM party_role pr
                     JOIN taxonomy_node rt ON rt.id = pr.role_type_id
                    WHERE rt.description = $1 AND pr.thru_date IS NULL
               )
         ORDER BY p.created_at, p.id
    `, roleLabel)
}

// FindByNameContaining は有効な名前に対する大文字小文字を区別しない
// 部分一致検索です。
func (r *PartyRepository) FindByNameContaining(ctx context.Context, substring string) ([]*party.Party, error) {
	return r.queryParties(ctx, partySelect+`
         WHERE p.id IN (
                   SELECT pn.party_id
                     FROM party_name pn
                    WHERE pn.name ILIKE '%' || $1 || '%'
                      AND pn.from_date <= CURRENT_DATE
                      AND (pn.thru_date IS NULL OR pn.thru_date >= CURRENT_DATE)
               )
         ORDER BY p.created_at, p.id
    `, substring)
}

// FindPersonsByLastName は姓の完全一致 (大文字小文字は区別しない) で
// Person を検索します。
func (r *PartyRepository) FindPersonsByLastName(ctx context.Context, lastName string) ([]*party.Party, error) {
	return r.queryParties(ctx, partySelect+`
         WHERE p.kind = 'PERSON' AND LOWER(per.last_name) = LOWER($1)
         ORDER BY p.created_at, p.id
    `, lastName)
}

// FindOrganizationsByName は組織名・商号に対する部分一致検索です。
func (r *PartyRepository) FindOrganizationsByName(ctx context.Context, substring string) ([]*party.Party, error) {
	return r.queryParties(ctx, partySelect+`
         WHERE p.kind = 'ORGANIZATION'
           AND (org.name ILIKE '%' || $1 || '%' OR org.trading_name ILIKE '%' || $1 || '%')
         ORDER BY p.created_at, p.id
    `, substring)
}

// FindByIdentification は有効な識別子の完全一致で単一の当事者を返します。
func (r *PartyRepository) FindByIdentification(ctx context.Context, identifier, typeLabel string) (*party.Party, error) {
	parties, err := r.queryParties(ctx, partySelect+`
         WHERE p.id IN (
                   SELECT pi.party_id
                     FROM party_identification pi
                     JOIN taxonomy_node it ON it.id = pi.identification_type_id
                    WHERE pi.identifier = $1
                      AND it.description = $2
                      AND pi.from_date <= CURRENT_DATE
                      AND (pi.thru_date IS NULL OR pi.thru_date >= CURRENT_DATE)
               )
         LIMIT 1
    `, identifier, typeLabel)
	if err != nil {
		return nil, err
	}
	if len(parties) == 0 {
		return nil, party.ErrPartyNotFound
	}
	return parties[0], nil
}

// FindByClassification は有効な分類値で当事者を検索します。
func (r *PartyRepository) FindByClassification(ctx context.Context, typeLabel, value string) ([]*party.Party, error) {
	return r.queryParties(ctx, partySelect+`
         WHERE p.id IN (
                   SELECT pc.party_id
                     FROM party_classification pc
                     JOIN taxonomy_node ct ON ct.id = pc.classification_type_id
                    WHERE ct.description = $1
                      AND pc.value = $2
                      AND pc.from_date <= CURRENT_DATE
                      AND (pc.thru_date IS NULL OR pc.thru_date >= CURRENT_DATE)
               )
         ORDER BY p.created_at, p.id
    `, typeLabel, value)
}

// DeleteByID は当事者と所有コレクションを削除します。
func (r *PartyRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM party WHERE id = $1`, id.String())
	if err != nil {
		return translatePartyPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return party.ErrPartyNotFound
	}
	return nil
}

// ExistsByID は当事者の存在を確認します。
func (r *PartyRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM party WHERE id = $1)`, id.String())

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, translatePartyPgError(err)
	}
	return exists, nil
}

// Count は当事者の総数を返します。
func (r *PartyRepository) Count(ctx context.Context) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT COUNT(*) FROM party`)

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, translatePartyPgError(err)
	}
	return count, nil
}

// CountByType は種別一致 (子孫を含む) の当事者数を返します。
func (r *PartyRepository) CountByType(ctx context.Context, typeLabel string) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH RECURSIVE matched AS (
            SELECT n.id
              FROM taxonomy_node n
             WHERE n.kind = 'PARTY_TYPE' AND n.description = $1
            UNION ALL
            SELECT c.id
              FROM taxonomy_node c
              JOIN matched m ON c.parent_id = m.id
        )
        SELECT COUNT(*)
          FROM party p
         WHERE p.party_type_id IN (SELECT id FROM matched)
    `, typeLabel)

	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, translatePartyPgError(err)
	}
	return count, nil
}

// FindAll は全当事者を作成順で返します。
func (r *PartyRepository) FindAll(ctx context.Context) ([]*party.Party, error) {
	return r.queryParties(ctx, partySelect+`
         ORDER BY p.created_at, p.id
    `)
}

// List はページング付きの一覧を返します。
func (r *PartyRepository) List(ctx context.Context, filter party.ListPartiesFilter) ([]*party.Party, string, error) {
	if filter.Limit <= 0 {
		return nil, "", party.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", party.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		whereClause = "\n         WHERE p.kind = $" + strconv.Itoa(len(args))
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := partySelect + whereClause + `
         ORDER BY p.created_at DESC, p.id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	parties, err := r.queryParties(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}

	var nextToken string
	if len(parties) == limitWithBuffer {
		parties = parties[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return parties, nextToken, nil
}

func (r *PartyRepository) queryParties(ctx context.Context, query string, args ...any) ([]*party.Party, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePartyPgError(err)
	}
	defer rows.Close()

	parties := make([]*party.Party, 0, 8)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, translatePartyPgError(err)
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePartyPgError(err)
	}

	if err := r.loadCollections(ctx, parties); err != nil {
		return nil, err
	}

	return parties, nil
}

// loadCollections は対象当事者すべてのコレクションを四つの一括クエリで
// 読み込み、所有者へ振り分けます。
func (r *PartyRepository) loadCollections(ctx context.Context, parties []*party.Party) error {
	if len(parties) == 0 {
		return nil
	}

	ids := make([]string, 0, len(parties))
	byID := make(map[uuid.UUID]*party.Party, len(parties))
	for _, p := range parties {
		ids = append(ids, p.ID.String())
		byID[p.ID] = p
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	rows, err := exec.Query(ctx, `
        SELECT r.id, r.party_id, r.from_date, r.thru_date,
               t.id, t.kind, t.description, t.parent_id
          FROM party_role r
          JOIN taxonomy_node t ON t.id = r.role_type_id
         WHERE r.party_id = ANY($1::uuid[])
         ORDER BY r.from_date, r.id
    `, ids)
	if err != nil {
		return translatePartyPgError(err)
	}
	if err := collectRows(rows, func(row pgx.Rows) error {
		var (
			id       string
			partyID  string
			fromDate time.Time
			thruDate sql.NullTime
			typeRef  typeRefColumns
		)
		if err := row.Scan(&id, &partyID, &fromDate, &thruDate, &typeRef.id, &typeRef.kind, &typeRef.description, &typeRef.parentID); err != nil {
			return err
		}
		roleID, ownerID, node, err := resolveChildRefs(id, partyID, typeRef)
		if err != nil {
			return err
		}
		if owner, ok := byID[ownerID]; ok {
			owner.Roles = append(owner.Roles, party.Role{
				ID:      roleID,
				PartyID: ownerID,
				Type:    node,
				Window:  scanWindow(fromDate, thruDate),
			})
		}
		return nil
	}); err != nil {
		return translatePartyPgError(err)
	}

	rows, err = exec.Query(ctx, `
        SELECT n.id, n.party_id, n.name, n.from_date, n.thru_date,
               t.id, t.kind, t.description, t.parent_id
          FROM party_name n
          JOIN taxonomy_node t ON t.id = n.name_type_id
         WHERE n.party_id = ANY($1::uuid[])
         ORDER BY n.position, n.id
    `, ids)
	if err != nil {
		return translatePartyPgError(err)
	}
	if err := collectRows(rows, func(row pgx.Rows) error {
		var (
			id       string
			partyID  string
			name     string
			fromDate time.Time
			thruDate sql.NullTime
			typeRef  typeRefColumns
		)
		if err := row.Scan(&id, &partyID, &name, &fromDate, &thruDate, &typeRef.id, &typeRef.kind, &typeRef.description, &typeRef.parentID); err != nil {
			return err
		}
		nameID, ownerID, node, err := resolveChildRefs(id, partyID, typeRef)
		if err != nil {
			return err
		}
		if owner, ok := byID[ownerID]; ok {
			owner.Names = append(owner.Names, party.Name{
				ID:      nameID,
				PartyID: ownerID,
				Name:    name,
				Type:    node,
				Window:  scanWindow(fromDate, thruDate),
			})
		}
		return nil
	}); err != nil {
		return translatePartyPgError(err)
	}

	rows, err = exec.Query(ctx, `
        SELECT i.id, i.party_id, i.identifier, i.from_date, i.thru_date,
               t.id, t.kind, t.description, t.parent_id
          FROM party_identification i
          JOIN taxonomy_node t ON t.id = i.identification_type_id
         WHERE i.party_id = ANY($1::uuid[])
         ORDER BY i.from_date, i.id
    `, ids)
	if err != nil {
		return translatePartyPgError(err)
	}
	if err := collectRows(rows, func(row pgx.Rows) error {
		var (
			id         string
			partyID    string
			identifier string
			fromDate   time.Time
			thruDate   sql.NullTime
			typeRef    typeRefColumns
		)
		if err := row.Scan(&id, &partyID, &identifier, &fromDate, &thruDate, &typeRef.id, &typeRef.kind, &typeRef.description, &typeRef.parentID); err != nil {
			return err
		}
		identID, ownerID, node, err := resolveChildRefs(id, partyID, typeRef)
		if err != nil {
			return err
		}
		if owner, ok := byID[ownerID]; ok {
			owner.Identifications = append(owner.Identifications, party.Identification{
				ID:         identID,
				PartyID:    ownerID,
				Identifier: identifier,
				Type:       node,
				Window:     scanWindow(fromDate, thruDate),
			})
		}
		return nil
	}); err != nil {
		return translatePartyPgError(err)
	}

	rows, err = exec.Query(ctx, `
        SELECT c.id, c.party_id, c.value, c.from_date, c.thru_date,
               t.id, t.kind, t.description, t.parent_id
          FROM party_classification c
          JOIN taxonomy_node t ON t.id = c.classification_type_id
         WHERE c.party_id = ANY($1::uuid[])
         ORDER BY c.from_date, c.id
    `, ids)
	if err != nil {
		return translatePartyPgError(err)
	}
	if err := collectRows(rows, func(row pgx.Rows) error {
		var (
			id       string
			partyID  string
			value    string
			fromDate time.Time
			thruDate sql.NullTime
			typeRef  typeRefColumns
		)
		if err := row.Scan(&id, &partyID, &value, &fromDate, &thruDate, &typeRef.id, &typeRef.kind, &typeRef.description, &typeRef.parentID); err != nil {
			return err
		}
		classID, ownerID, node, err := resolveChildRefs(id, partyID, typeRef)
		if err != nil {
			return err
		}
		if owner, ok := byID[ownerID]; ok {
			owner.Classifications = append(owner.Classifications, party.Classification{
				ID:      classID,
				PartyID: ownerID,
				Value:   value,
				Type:    node,
				Window:  scanWindow(fromDate, thruDate),
			})
		}
		return nil
	}); err != nil {
		return translatePartyPgError(err)
	}

	for _, p := range parties {
		p.EnsureCollections()
	}

	return nil
}

func scanParty(row pgx.Row) (*party.Party, error) {
	var (
		id        string
		kind      string
		comment   string
		createdAt time.Time
		updatedAt time.Time
		typeRef   typeRefColumns

		firstName  sql.NullString
		middleName sql.NullString
		lastName   sql.NullString
		title      sql.NullString
		suffix     sql.NullString
		birthDate  sql.NullTime
		gender     sql.NullString

		orgName            sql.NullString
		tradingName        sql.NullString
		registrationNumber sql.NullString
		establishedDate    sql.NullTime
		taxIDNumber        sql.NullString
		numberOfEmployees  sql.NullInt64
		industry           sql.NullString
	)

	if err := row.Scan(
		&id,
		&kind,
		&comment,
		&createdAt,
		&updatedAt,
		&typeRef.id,
		&typeRef.kind,
		&typeRef.description,
		&typeRef.parentID,
		&firstName,
		&middleName,
		&lastName,
		&title,
		&suffix,
		&birthDate,
		&gender,
		&orgName,
		&tradingName,
		&registrationNumber,
		&establishedDate,
		&taxIDNumber,
		&numberOfEmployees,
		&industry,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, party.ErrPartyNotFound
		}
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	node, err := typeRef.toNode()
	if err != nil {
		return nil, err
	}

	p := &party.Party{
		ID:        parsedID,
		Kind:      party.Kind(kind),
		Type:      node,
		Comment:   comment,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	p.EnsureCollections()

	switch p.Kind {
	case party.KindPerson:
		details := &party.PersonDetails{
			FirstName:  firstName.String,
			MiddleName: middleName.String,
			LastName:   lastName.String,
			Title:      title.String,
			Suffix:     suffix.String,
			BirthDate:  datePtr(birthDate),
		}
		if gender.Valid {
			g := party.GenderType(gender.String)
			details.Gender = &g
		}
		p.Person = details
	case party.KindOrganization:
		details := &party.OrganizationDetails{
			Name:               orgName.String,
			TradingName:        tradingName.String,
			RegistrationNumber: registrationNumber.String,
			EstablishedDate:    datePtr(establishedDate),
			TaxIDNumber:        taxIDNumber.String,
			Industry:           industry.String,
		}
		if numberOfEmployees.Valid {
			n := int(numberOfEmployees.Int64)
			details.NumberOfEmployees = &n
		}
		p.Organization = details
	}

	return p, nil
}

// typeRefColumns は結合先の分類ノード列をまとめたスキャン用の器です。
type typeRefColumns struct {
	id          string
	kind        string
	description string
	parentID    sql.NullString
}

func (c typeRefColumns) toNode() (*taxonomy.Node, error) {
	id, err := uuid.Parse(c.id)
	if err != nil {
		return nil, err
	}
	node := &taxonomy.Node{
		ID:          id,
		Kind:        taxonomy.Kind(c.kind),
		Description: c.description,
	}
	if c.parentID.Valid {
		parent, err := uuid.Parse(c.parentID.String)
		if err != nil {
			return nil, err
		}
		node.ParentID = &parent
	}
	return node, nil
}

func resolveChildRefs(id, partyID string, typeRef typeRefColumns) (uuid.UUID, uuid.UUID, *taxonomy.Node, error) {
	childID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	ownerID, err := uuid.Parse(partyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	node, err := typeRef.toNode()
	if err != nil {
		return uuid.Nil, uuid.Nil, nil, err
	}
	return childID, ownerID, node, nil
}

func collectRows(rows pgx.Rows, scan func(pgx.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func scanWindow(fromDate time.Time, thruDate sql.NullTime) validity.Window {
	w := validity.Window{FromDate: validity.TruncateToDate(fromDate.UTC())}
	if thruDate.Valid {
		t := validity.TruncateToDate(thruDate.Time.UTC())
		w.ThruDate = &t
	}
	return w
}

func datePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := validity.TruncateToDate(value.Time.UTC())
	return &t
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return validity.TruncateToDate(*value)
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableGender(value *party.GenderType) any {
	if value == nil {
		return nil
	}
	return string(*value)
}

func translatePartyPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return party.ErrPartyNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case partyUniqueViolationCode:
			if pgErr.ConstraintName == activeRoleConstraintName {
				return party.ErrRoleConflict
			}
			return err
		case partyForeignKeyViolationCode:
			if strings.Contains(pgErr.ConstraintName, "role_type") {
				return party.ErrRoleTypeNotFound
			}
			if strings.Contains(pgErr.ConstraintName, "party_id") {
				return party.ErrPartyNotFound
			}
			return err
		case partyCheckViolationCode:
			return validity.ErrInvalidDateRange
		case partySerializationFailure:
			return party.ErrRoleConflict
		}
	}

	return err
}
