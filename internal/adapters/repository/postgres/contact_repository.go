package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/erp-microservices/people-and-organizations/internal/core/contact"
	pgdb "github.com/erp-microservices/people-and-organizations/internal/platform/db/postgres"
)

const contactSelect = `
        SELECT m.id,
               m.kind,
               m.comment,
               m.created_at,
               m.updated_at,
               e.email_address,
               p.address1,
               p.address2,
               p.city,
               p.state_province,
               p.postal_code,
               p.postal_code_extension,
               p.country,
               tn.country_code,
               tn.area_code,
               tn.phone_number,
               tn.extension
          FROM contact_mechanism m
          LEFT JOIN email_address e ON e.contact_mechanism_id = m.id
          LEFT JOIN postal_address p ON p.contact_mechanism_id = m.id
          LEFT JOIN telecom_number tn ON tn.contact_mechanism_id = m.id`

// ContactRepository は PostgreSQL を利用した連絡手段永続化の実装です。
type ContactRepository struct {
	pool pgdb.Queryer
}

// NewContactRepository は ContactRepository を生成します。
func NewContactRepository(pool pgdb.Queryer) *ContactRepository {
	return &ContactRepository{pool: pool}
}

// Create は連絡手段を新規作成します。
func (r *ContactRepository) Create(ctx context.Context, m *contact.Mechanism) (*contact.Mechanism, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO contact_mechanism (id, kind, comment)
        VALUES ($1, $2, $3)
        RETURNING created_at, updated_at
    `, m.ID.String(), string(m.Kind), m.Comment)
	if err := row.Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, translateContactPgError(err)
	}

	if err := r.saveVariant(ctx, exec, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Update は連絡手段を更新します。
func (r *ContactRepository) Update(ctx context.Context, m *contact.Mechanism) (*contact.Mechanism, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE contact_mechanism
           SET comment = $1,
               updated_at = NOW()
         WHERE id = $2
        RETURNING created_at, updated_at
    `, m.Comment, m.ID.String())
	if err := row.Scan(&m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, translateContactPgError(err)
	}

	if err := r.saveVariant(ctx, exec, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (r *ContactRepository) saveVariant(ctx context.Context, exec pgdb.Queryer, m *contact.Mechanism) error {
	switch m.Kind {
	case contact.KindEmail:
		if m.Email == nil {
			return contact.ErrInvalidEmailAddress
		}
		_, err := exec.Exec(ctx, `
            INSERT INTO email_address (contact_mechanism_id, email_address)
            VALUES ($1, $2)
            ON CONFLICT (contact_mechanism_id) DO UPDATE
                SET email_address = EXCLUDED.email_address
        `, m.ID.String(), m.Email.EmailAddress)
		if err != nil {
			return translateContactPgError(err)
		}
	case contact.KindPostal:
		if m.Postal == nil {
			return contact.ErrInvalidPostalAddress
		}
		d := m.Postal
		_, err := exec.Exec(ctx, `
            INSERT INTO postal_address (contact_mechanism_id, address1, address2, city, state_province, postal_code, postal_code_extension, country)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (contact_mechanism_id) DO UPDATE
                SET address1 = EXCLUDED.address1,
                    address2 = EXCLUDED.address2,
                    city = EXCLUDED.city,
                    state_province = EXCLUDED.state_province,
                    postal_code = EXCLUDED.postal_code,
                    postal_code_extension = EXCLUDED.postal_code_extension,
                    country = EXCLUDED.country
        `, m.ID.String(), d.Address1, d.Address2, d.City, d.StateProvince, d.PostalCode, d.PostalCodeExtension, d.Country)
		if err != nil {
			return translateContactPgError(err)
		}
	case contact.KindTelecom:
		if m.Telecom == nil {
			return contact.ErrInvalidTelecomNumber
		}
		d := m.Telecom
		_, err := exec.Exec(ctx, `
            INSERT INTO telecom_number (contact_mechanism_id, country_code, area_code, phone_number, extension)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (contact_mechanism_id) DO UPDATE
                SET country_code = EXCLUDED.country_code,
                    area_code = EXCLUDED.area_code,
                    phone_number = EXCLUDED.phone_number,
                    extension = EXCLUDED.extension
        `, m.ID.String(), d.CountryCode, d.AreaCode, d.PhoneNumber, d.Extension)
		if err != nil {
			return translateContactPgError(err)
		}
	default:
		return contact.ErrInvalidKind
	}
	return nil
}

// FindByID は ID で連絡手段を取得します。
func (r *ContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*contact.Mechanism, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, contactSelect+`
         WHERE m.id = $1
         LIMIT 1
    `, id.String())

	found, err := scanContactMechanism(row)
	if err != nil {
		return nil, translateContactPgError(err)
	}
	return found, nil
}

// List は連絡手段の一覧を返します。kind 指定で絞り込みます。
func (r *ContactRepository) List(ctx context.Context, kind *contact.Kind) ([]*contact.Mechanism, error) {
	query := contactSelect + `
         ORDER BY m.created_at, m.id
    `
	args := make([]any, 0, 1)
	if kind != nil {
		query = contactSelect + `
         WHERE m.kind = $1
         ORDER BY m.created_at, m.id
    `
		args = append(args, string(*kind))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateContactPgError(err)
	}
	defer rows.Close()

	mechanisms := make([]*contact.Mechanism, 0, 8)
	for rows.Next() {
		m, err := scanContactMechanism(rows)
		if err != nil {
			return nil, translateContactPgError(err)
		}
		mechanisms = append(mechanisms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, translateContactPgError(err)
	}

	return mechanisms, nil
}

// Delete は連絡手段を削除します。
func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM contact_mechanism WHERE id = $1`, id.String())
	if err != nil {
		return translateContactPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return contact.ErrMechanismNotFound
	}
	return nil
}

func scanContactMechanism(row pgx.Row) (*contact.Mechanism, error) {
	var (
		id        string
		kind      string
		comment   string
		createdAt time.Time
		updatedAt time.Time

		emailAddress sql.NullString

		address1            sql.NullString
		address2            sql.NullString
		city                sql.NullString
		stateProvince       sql.NullString
		postalCode          sql.NullString
		postalCodeExtension sql.NullString
		country             sql.NullString

		countryCode sql.NullString
		areaCode    sql.NullString
		phoneNumber sql.NullString
		extension   sql.NullString
	)

	if err := row.Scan(
		&id,
		&kind,
		&comment,
		&createdAt,
		&updatedAt,
		&emailAddress,
		&address1,
		&address2,
		&city,
		&stateProvince,
		&postalCode,
		&postalCodeExtension,
		&country,
		&countryCode,
		&areaCode,
		&phoneNumber,
		&extension,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contact.ErrMechanismNotFound
		}
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	m := &contact.Mechanism{
		ID:        parsedID,
		Kind:      contact.Kind(kind),
		Comment:   comment,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	switch m.Kind {
	case contact.KindEmail:
		m.Email = &contact.EmailDetails{EmailAddress: emailAddress.String}
	case contact.KindPostal:
		m.Postal = &contact.PostalDetails{
			Address1:            address1.String,
			Address2:            address2.String,
			City:                city.String,
			StateProvince:       stateProvince.String,
			PostalCode:          postalCode.String,
			PostalCodeExtension: postalCodeExtension.String,
			Country:             country.String,
		}
	case contact.KindTelecom:
		m.Telecom = &contact.TelecomDetails{
			CountryCode: countryCode.String,
			AreaCode:    areaCode.String,
			PhoneNumber: phoneNumber.String,
			Extension:   extension.String,
		}
	}

	return m, nil
}

func translateContactPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return contact.ErrMechanismNotFound
	}
	return err
}
