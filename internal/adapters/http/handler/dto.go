package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/erp-microservices/people-and-organizations/internal/core/contact"
	"github.com/erp-microservices/people-and-organizations/internal/core/party"
	"github.com/erp-microservices/people-and-organizations/internal/core/relationship"
	"github.com/erp-microservices/people-and-organizations/internal/core/taxonomy"
	"github.com/erp-microservices/people-and-organizations/internal/core/validity"
)

// dateLayout は API で日付を表す書式です。時刻成分は持ちません。
const dateLayout = "2006-01-02"

type partyDTO struct {
	ID              string              `json:"id"`
	Kind            string              `json:"kind"`
	Type            string              `json:"type"`
	Comment         string              `json:"comment,omitempty"`
	Person          *personDTO          `json:"person,omitempty"`
	Organization    *organizationDTO    `json:"organization,omitempty"`
	Roles           []roleDTO           `json:"roles"`
	Names           []nameDTO           `json:"names"`
	Identifications []identificationDTO `json:"identifications"`
	Classifications []classificationDTO `json:"classifications"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type personDTO struct {
	FirstName  string  `json:"first_name,omitempty"`
	MiddleName string  `json:"middle_name,omitempty"`
	LastName   string  `json:"last_name"`
	Title      string  `json:"title,omitempty"`
	Suffix     string  `json:"suffix,omitempty"`
	FullName   string  `json:"full_name"`
	BirthDate  *string `json:"birth_date,omitempty"`
	Gender     *string `json:"gender,omitempty"`
}

type organizationDTO struct {
	Name               string  `json:"name"`
	TradingName        string  `json:"trading_name,omitempty"`
	RegistrationNumber string  `json:"registration_number,omitempty"`
	EstablishedDate    *string `json:"established_date,omitempty"`
	TaxIDNumber        string  `json:"tax_id_number,omitempty"`
	NumberOfEmployees  *int    `json:"number_of_employees,omitempty"`
	Industry           string  `json:"industry,omitempty"`
}

type roleDTO struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	FromDate string  `json:"from_date"`
	ThruDate *string `json:"thru_date,omitempty"`
}

type nameDTO struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	FromDate string  `json:"from_date"`
	ThruDate *string `json:"thru_date,omitempty"`
}

type identificationDTO struct {
	ID         string  `json:"id"`
	Identifier string  `json:"identifier"`
	Type       string  `json:"type"`
	FromDate   string  `json:"from_date"`
	ThruDate   *string `json:"thru_date,omitempty"`
}

type classificationDTO struct {
	ID       string  `json:"id"`
	Value    string  `json:"value"`
	Type     string  `json:"type"`
	FromDate string  `json:"from_date"`
	ThruDate *string `json:"thru_date,omitempty"`
}

type relationshipDTO struct {
	ID           string    `json:"id"`
	FromPartyID  string    `json:"from_party_id"`
	ToPartyID    string    `json:"to_party_id"`
	Type         string    `json:"type"`
	FromRoleType string    `json:"from_role_type,omitempty"`
	ToRoleType   string    `json:"to_role_type,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	FromDate     string    `json:"from_date"`
	ThruDate     *string   `json:"thru_date,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type contactMechanismDTO struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	Comment   string              `json:"comment,omitempty"`
	Email     *emailDTO           `json:"email,omitempty"`
	Postal    *postalAddressDTO   `json:"postal_address,omitempty"`
	Telecom   *telecomNumberDTO   `json:"telecom_number,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type emailDTO struct {
	EmailAddress string `json:"email_address"`
}

type postalAddressDTO struct {
	Address1            string `json:"address1"`
	Address2            string `json:"address2,omitempty"`
	City                string `json:"city"`
	StateProvince       string `json:"state_province"`
	PostalCode          string `json:"postal_code"`
	PostalCodeExtension string `json:"postal_code_extension,omitempty"`
	Country             string `json:"country"`
}

type telecomNumberDTO struct {
	CountryCode string `json:"country_code,omitempty"`
	AreaCode    string `json:"area_code,omitempty"`
	PhoneNumber string `json:"phone_number"`
	Extension   string `json:"extension,omitempty"`
}

func toPartyDTO(p *party.Party) *partyDTO {
	if p == nil {
		return nil
	}

	dto := &partyDTO{
		ID:              p.ID.String(),
		Kind:            string(p.Kind),
		Comment:         p.Comment,
		Roles:           make([]roleDTO, 0, len(p.Roles)),
		Names:           make([]nameDTO, 0, len(p.Names)),
		Identifications: make([]identificationDTO, 0, len(p.Identifications)),
		Classifications: make([]classificationDTO, 0, len(p.Classifications)),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Type != nil {
		dto.Type = p.Type.Description
	}

	if p.Person != nil {
		d := p.Person
		person := &personDTO{
			FirstName:  d.FirstName,
			MiddleName: d.MiddleName,
			LastName:   d.LastName,
			Title:      d.Title,
			Suffix:     d.Suffix,
			FullName:   d.FullName(),
			BirthDate:  formatDatePtr(d.BirthDate),
		}
		if d.Gender != nil {
			g := string(*d.Gender)
			person.Gender = &g
		}
		dto.Person = person
	}
	if p.Organization != nil {
		d := p.Organization
		dto.Organization = &organizationDTO{
			Name:               d.Name,
			TradingName:        d.TradingName,
			RegistrationNumber: d.RegistrationNumber,
			EstablishedDate:    formatDatePtr(d.EstablishedDate),
			TaxIDNumber:        d.TaxIDNumber,
			NumberOfEmployees:  d.NumberOfEmployees,
			Industry:           d.Industry,
		}
	}

	for _, role := range p.Roles {
		dto.Roles = append(dto.Roles, roleDTO{
			ID:       role.ID.String(),
			Type:     nodeDescription(role.Type),
			FromDate: role.Window.FromDate.Format(dateLayout),
			ThruDate: formatDatePtr(role.Window.ThruDate),
		})
	}
	for _, name := range p.Names {
		dto.Names = append(dto.Names, nameDTO{
			ID:       name.ID.String(),
			Name:     name.Name,
			Type:     nodeDescription(name.Type),
			FromDate: name.Window.FromDate.Format(dateLayout),
			ThruDate: formatDatePtr(name.Window.ThruDate),
		})
	}
	for _, ident := range p.Identifications {
		dto.Identifications = append(dto.Identifications, identificationDTO{
			ID:         ident.ID.String(),
			Identifier: ident.Identifier,
			Type:       nodeDescription(ident.Type),
			FromDate:   ident.Window.FromDate.Format(dateLayout),
			ThruDate:   formatDatePtr(ident.Window.ThruDate),
		})
	}
	for _, classification := range p.Classifications {
		dto.Classifications = append(dto.Classifications, classificationDTO{
			ID:       classification.ID.String(),
			Value:    classification.Value,
			Type:     nodeDescription(classification.Type),
			FromDate: classification.Window.FromDate.Format(dateLayout),
			ThruDate: formatDatePtr(classification.Window.ThruDate),
		})
	}

	return dto
}

func toPartyDTOs(parties []*party.Party) []*partyDTO {
	dtos := make([]*partyDTO, 0, len(parties))
	for _, p := range parties {
		dtos = append(dtos, toPartyDTO(p))
	}
	return dtos
}

func toRelationshipDTO(rel *relationship.Relationship) *relationshipDTO {
	if rel == nil {
		return nil
	}

	dto := &relationshipDTO{
		ID:          rel.ID.String(),
		FromPartyID: rel.FromPartyID.String(),
		ToPartyID:   rel.ToPartyID.String(),
		Comment:     rel.Comment,
		FromDate:    rel.Window.FromDate.Format(dateLayout),
		ThruDate:    formatDatePtr(rel.Window.ThruDate),
		Active:      rel.IsActive(),
		CreatedAt:   rel.CreatedAt,
		UpdatedAt:   rel.UpdatedAt,
	}
	if rel.Type != nil {
		dto.Type = rel.Type.Description
		dto.FromRoleType = rel.Type.FromRoleType
		dto.ToRoleType = rel.Type.ToRoleType
	}
	return dto
}

func toContactMechanismDTO(m *contact.Mechanism) *contactMechanismDTO {
	if m == nil {
		return nil
	}

	dto := &contactMechanismDTO{
		ID:        m.ID.String(),
		Kind:      string(m.Kind),
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Email != nil {
		dto.Email = &emailDTO{EmailAddress: m.Email.EmailAddress}
	}
	if m.Postal != nil {
		dto.Postal = &postalAddressDTO{
			Address1:            m.Postal.Address1,
			Address2:            m.Postal.Address2,
			City:                m.Postal.City,
			StateProvince:       m.Postal.StateProvince,
			PostalCode:          m.Postal.PostalCode,
			PostalCodeExtension: m.Postal.PostalCodeExtension,
			Country:             m.Postal.Country,
		}
	}
	if m.Telecom != nil {
		dto.Telecom = &telecomNumberDTO{
			CountryCode: m.Telecom.CountryCode,
			AreaCode:    m.Telecom.AreaCode,
			PhoneNumber: m.Telecom.PhoneNumber,
			Extension:   m.Telecom.Extension,
		}
	}
	return dto
}

func nodeDescription(node *taxonomy.Node) string {
	if node == nil {
		return ""
	}
	return node.Description
}

func formatDatePtr(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format(dateLayout)
	return &formatted
}

func parseDatePtr(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	normalized := validity.TruncateToDate(parsed)
	return &normalized, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}
