package party

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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
// WithinSerializable はロール追加の重複検査をストア層で直列化する
// 場合に使われます。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	WithinSerializable(ctx context.Context, fn func(context.Context) error) error
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

func (noopTransactionManager) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200

	basePersonTypeDescription       = "Person"
	baseOrganizationTypeDescription = "Organization"
)

// UseCase は当事者ユースケースの公開インターフェースです。
type UseCase interface {
	CreatePerson(ctx context.Context, in CreatePersonInput) (*Party, error)
	CreateOrganization(ctx context.Context, in CreateOrganizationInput) (*Party, error)
	GetParty(ctx context.Context, id uuid.UUID) (*Party, error)
	UpdatePartyComment(ctx context.Context, in UpdateCommentInput) (*Party, error)
	DeleteParty(ctx context.Context, id uuid.UUID) error
	AddRoleToParty(ctx context.Context, in AddRoleInput) (*AddRoleResult, error)
	RemoveRoleFromParty(ctx context.Context, in RemoveRoleInput) (*RemoveRoleResult, error)
	AddNameToParty(ctx context.Context, in AddNameInput) (*Party, error)
	AddIdentificationToParty(ctx context.Context, in AddIdentificationInput) (*Party, error)
	AddClassificationToParty(ctx context.Context, in AddClassificationInput) (*Party, error)
	FindPartiesByRole(ctx context.Context, roleLabel string) ([]*Party, error)
	SearchPartiesByName(ctx context.Context, term string) ([]*Party, error)
	SearchPersonsByLastName(ctx context.Context, lastName string) ([]*Party, error)
	SearchOrganizationsByName(ctx context.Context, term string) ([]*Party, error)
	ListParties(ctx context.Context, in ListPartiesInput) (*ListPartiesResult, error)
}

// Service は当事者に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	types taxonomy.Repository
	clock Clock
	tx    TransactionManager
}

// NewService は Service を生成します。
func NewService(repo Repository, types taxonomy.Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, types: types, clock: clock, tx: tx}
}

// CreatePersonInput は Person 作成時の入力です。
type CreatePersonInput struct {
	FirstName  string
	MiddleName string
	LastName   string
	Title      string
	Suffix     string
	BirthDate  *time.Time
	Gender     *GenderType
	Comment    string
}

// CreateOrganizationInput は Organization 作成時の入力です。
// OrganizationType が指定された場合はその種別ノードを優先し、
// 見つからなければ基底の "Organization" へフォールバックします。
type CreateOrganizationInput struct {
	Name               string
	TradingName        string
	RegistrationNumber string
	EstablishedDate    *time.Time
	TaxIDNumber        string
	NumberOfEmployees  *int
	Industry           string
	OrganizationType   string
	Comment            string
}

// UpdateCommentInput は当事者コメント更新の入力です。
type UpdateCommentInput struct {
	PartyID uuid.UUID
	Comment string
}

// AddRoleInput はロール付与の入力です。From 未指定時は本日からです。
type AddRoleInput struct {
	PartyID  uuid.UUID
	RoleType string
	From     *time.Time
}

// RemoveRoleInput はロール失効の入力です。
type RemoveRoleInput struct {
	PartyID  uuid.UUID
	RoleType string
}

// AddRoleResult はロール付与の結果です。同種別の有効ロールが既に
// あった場合は Appended が false になります。
type AddRoleResult struct {
	Party    *Party
	Appended bool
}

// RemoveRoleResult はロール失効の結果です。失効対象の有効ロールが
// 無かった場合は Expired が false になります。
type RemoveRoleResult struct {
	Party   *Party
	Expired bool
}

// AddNameInput は名前追加の入力です。
type AddNameInput struct {
	PartyID  uuid.UUID
	Name     string
	NameType string
	From     *time.Time
}

// AddIdentificationInput は識別子追加の入力です。
type AddIdentificationInput struct {
	PartyID            uuid.UUID
	Identifier         string
	IdentificationType string
	From               *time.Time
}

// AddClassificationInput は分類追加の入力です。
type AddClassificationInput struct {
	PartyID            uuid.UUID
	Value              string
	ClassificationType string
	From               *time.Time
}

// ListPartiesInput は一覧取得時の入力です。
type ListPartiesInput struct {
	Kind      *Kind
	PageSize  int
	PageToken string
}

// ListPartiesResult は一覧取得結果を表します。
type ListPartiesResult struct {
	Parties       []*Party
	NextPageToken string
}

// CreatePerson は新しい Person を作成します。基底の "Person" 種別
// ノードが存在しない場合は設定不備として即時に失敗します。
func (s *Service) CreatePerson(ctx context.Context, in CreatePersonInput) (*Party, error) {
	if strings.TrimSpace(in.LastName) == "" {
		return nil, ErrInvalidLastName
	}
	if in.Gender != nil && !IsValidGender(*in.Gender) {
		return nil, ErrInvalidGender
	}

	var created *Party
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		personType, err := s.types.FindByDescription(txCtx, taxonomy.KindPartyType, basePersonTypeDescription)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNodeNotFound) {
				return fmt.Errorf("%w: %q", ErrPartyTypeNotConfigured, basePersonTypeDescription)
			}
			return err
		}

		now := s.clock.Now()
		p := NewPerson(personType, PersonDetails{
			FirstName:  strings.TrimSpace(in.FirstName),
			MiddleName: strings.TrimSpace(in.MiddleName),
			LastName:   strings.TrimSpace(in.LastName),
			Title:      strings.TrimSpace(in.Title),
			Suffix:     strings.TrimSpace(in.Suffix),
			BirthDate:  normalizeDate(in.BirthDate),
			Gender:     in.Gender,
		})
		p.Comment = in.Comment
		p.CreatedAt = now
		p.UpdatedAt = now

		result, err := s.repo.Save(txCtx, p)
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

// CreateOrganization は新しい Organization を作成します。
func (s *Service) CreateOrganization(ctx context.Context, in CreateOrganizationInput) (*Party, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrInvalidOrganizationName
	}
	if in.NumberOfEmployees != nil && *in.NumberOfEmployees < 0 {
		return nil, ErrInvalidEmployeeCount
	}

	var created *Party
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		orgType, err := s.resolveOrganizationType(txCtx, in.OrganizationType)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		p := NewOrganization(orgType, OrganizationDetails{
			Name:               strings.TrimSpace(in.Name),
			TradingName:        strings.TrimSpace(in.TradingName),
			RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
			EstablishedDate:    normalizeDate(in.EstablishedDate),
			TaxIDNumber:        strings.TrimSpace(in.TaxIDNumber),
			NumberOfEmployees:  in.NumberOfEmployees,
			Industry:           strings.TrimSpace(in.Industry),
		})
		p.Comment = in.Comment
		p.CreatedAt = now
		p.UpdatedAt = now

		result, err := s.repo.Save(txCtx, p)
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

func (s *Service) resolveOrganizationType(ctx context.Context, label string) (*taxonomy.Node, error) {
	label = strings.TrimSpace(label)
	if label != "" {
		node, err := s.types.FindByDescription(ctx, taxonomy.KindPartyType, label)
		if err == nil {
			return node, nil
		}
		if !errors.Is(err, taxonomy.ErrNodeNotFound) {
			return nil, err
		}
	}

	node, err := s.types.FindByDescription(ctx, taxonomy.KindPartyType, baseOrganizationTypeDescription)
	if err != nil {
		if errors.Is(err, taxonomy.ErrNodeNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrPartyTypeNotConfigured, baseOrganizationTypeDescription)
		}
		return nil, err
	}
	return node, nil
}

// GetParty は当事者を取得します。
func (s *Service) GetParty(ctx context.Context, id uuid.UUID) (*Party, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidID
	}

	var result *Party
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

// UpdatePartyComment は当事者のコメントを更新します。
func (s *Service) UpdatePartyComment(ctx context.Context, in UpdateCommentInput) (*Party, error) {
	if in.PartyID == uuid.Nil {
		return nil, ErrInvalidID
	}

	var updated *Party
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, in.PartyID)
		if err != nil {
			return err
		}
		p.Comment = in.Comment
		p.UpdatedAt = s.clock.Now()

		result, err := s.repo.Save(txCtx, p)
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

// DeleteParty は当事者を物理削除します。存在しない場合は失敗します。
func (s *Service) DeleteParty(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		exists, err := s.repo.ExistsByID(txCtx, id)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrPartyNotFound, id)
		}
		return s.repo.DeleteByID(txCtx, id)
	})
}

// AddRoleToParty はロールを冪等に付与します。同種別の有効ロールが
// 既にあれば何も追加せず当事者をそのまま返します。ストア層の一意
// 制約で並行重複が検出された場合は一度だけ透過的に再試行します。
func (s *Service) AddRoleToParty(ctx context.Context, in AddRoleInput) (*AddRoleResult, error) {
	if in.PartyID == uuid.Nil {
		return nil, ErrInvalidID
	}
	roleLabel := strings.TrimSpace(in.RoleType)
	if roleLabel == "" {
		return nil, ErrInvalidRoleType
	}

	result, err := s.addRoleOnce(ctx, in.PartyID, roleLabel, in.From)
	if errors.Is(err, ErrRoleConflict) {
		result, err = s.addRoleOnce(ctx, in.PartyID, roleLabel, in.From)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) addRoleOnce(ctx context.Context, partyID uuid.UUID, roleLabel string, from *time.Time) (*AddRoleResult, error) {
	var result *AddRoleResult
	if err := s.tx.WithinSerializable(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, partyID)
		if err != nil {
			return err
		}

		roleType, err := s.types.FindByDescription(txCtx, taxonomy.KindRoleType, roleLabel)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNodeNotFound) {
				return fmt.Errorf("%w: %q", ErrRoleTypeNotFound, roleLabel)
			}
			return err
		}

		now := s.clock.Now()
		window := validity.NewWindow(now)
		if from != nil {
			window = validity.NewWindow(*from)
		}

		if !p.AddRoleOn(Role{ID: uuid.New(), Type: roleType, Window: window}, now) {
			result = &AddRoleResult{Party: p}
			return nil
		}

		p.UpdatedAt = now
		saved, err := s.repo.Save(txCtx, p)
		if err != nil {
			return err
		}
		result = &AddRoleResult{Party: saved, Appended: true}
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveRoleFromParty は指定種別の有効ロールを本日付で失効させます。
// 失効対象が無ければ何も保存せず当事者をそのまま返します。
func (s *Service) RemoveRoleFromParty(ctx context.Context, in RemoveRoleInput) (*RemoveRoleResult, error) {
	if in.PartyID == uuid.Nil {
		return nil, ErrInvalidID
	}
	roleLabel := strings.TrimSpace(in.RoleType)
	if roleLabel == "" {
		return nil, ErrInvalidRoleType
	}

	var result *RemoveRoleResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, in.PartyID)
		if err != nil {
			return err
		}

		roleType, err := s.types.FindByDescription(txCtx, taxonomy.KindRoleType, roleLabel)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNodeNotFound) {
				return fmt.Errorf("%w: %q", ErrRoleTypeNotFound, roleLabel)
			}
			return err
		}

		now := s.clock.Now()
		if !p.RemoveRoleOn(roleType, now) {
			result = &RemoveRoleResult{Party: p}
			return nil
		}
		p.UpdatedAt = now

		saved, err := s.repo.Save(txCtx, p)
		if err != nil {
			return err
		}
		result = &RemoveRoleResult{Party: saved, Expired: true}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// AddNameToParty は名前を追加します。名前種別は description による
// find-or-create で解決され、呼び出しごとに重複ノードを作りません。
func (s *Service) AddNameToParty(ctx context.Context, in AddNameInput) (*Party, error) {
	if in.PartyID == uuid.Nil {
		return nil, ErrInvalidID
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	typeLabel := strings.TrimSpace(in.NameType)
	if typeLabel == "" {
		return nil, ErrInvalidNameType
	}

	var result *Party
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, in.PartyID)
		if err != nil {
			return err
		}

		nameType, err := s.types.FindOrCreate(txCtx, taxonomy.KindNameType, typeLabel)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		window := validity.NewWindow(now)
		if in.From != nil {
			window = validity.NewWindow(*in.From)
		}

		p.AddName(Name{ID: uuid.New(), Name: name, Type: nameType, Window: window})
		p.UpdatedAt = now

		saved, err := s.repo.Save(txCtx, p)
		if err != nil {
			return err
		}
		result = saved
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// AddIdentificationToParty は識別子を追加します。識別子種別は既存の
// シードノードでなければならず、自動作成はされません。
func (s *Service) AddIdentificationToParty(ctx context.Context, in AddIdentificationInput) (*Party, error) {
	if in.PartyID == uuid.Nil {
		return nil, ErrInvalidID
	}
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" {
		return nil, ErrInvalidIdentifier
	}
	typeLabel := strings.TrimSpace(in.IdentificationType)
	if typeLabel == "" {
		return nil, ErrInvalidIdentifier
	}

	var result *Party
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, in.PartyID)
		if err != nil {
			return err
		}

		identType, err := s.types.FindByDescription(txCtx, taxonomy.KindIdentificationType, typeLabel)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNodeNotFound) {
				return fmt.Errorf("%w: %q", ErrIdentificationTypeNotFound, typeLabel)
			}
			return err
		}

		now := s.clock.Now()
		window := validity.NewWindow(now)
		if in.From != nil {
			window = validity.NewWindow(*in.From)
		}

		p.AddIdentification(Identification{ID: uuid.New(), Identifier: identifier, Type: identType, Window: window})
		p.UpdatedAt = now

		saved, err := s.repo.Save(txCtx, p)
		if err != nil {
			return err
		}
		result = saved
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// AddClassificationToParty は分類値を追加します。分類種別は既存の
// シードノードでなければなりません。
func (s *Service) AddClassificationToParty(ctx context.Context, in AddClassificationInput) (*Party, error) {
	if in.PartyID == uuid.Nil {
		return nil, ErrInvalidID
	}
	value := strings.TrimSpace(in.Value)
	if value == "" {
		return nil, ErrInvalidClassification
	}
	typeLabel := strings.TrimSpace(in.ClassificationType)
	if typeLabel == "" {
		return nil, ErrInvalidClassification
	}

	var result *Party
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByID(txCtx, in.PartyID)
		if err != nil {
			return err
		}

		classType, err := s.types.FindByDescription(txCtx, taxonomy.KindClassificationType, typeLabel)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNodeNotFound) {
				return fmt.Errorf("%w: %q", ErrClassificationTypeNotFound, typeLabel)
			}
			return err
		}

		now := s.clock.Now()
		window := validity.NewWindow(now)
		if in.From != nil {
			window = validity.NewWindow(*in.From)
		}

		p.AddClassification(Classification{ID: uuid.New(), Value: value, Type: classType, Window: window})
		p.UpdatedAt = now

		saved, err := s.repo.Save(txCtx, p)
		if err != nil {
			return err
		}
		result = saved
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// FindPartiesByRole は役割種別を解決した上で、thru_date が未設定の
// 役割を持つ当事者を検索します。
func (s *Service) FindPartiesByRole(ctx context.Context, roleLabel string) ([]*Party, error) {
	roleLabel = strings.TrimSpace(roleLabel)
	if roleLabel == "" {
		return nil, ErrInvalidRoleType
	}

	var result []*Party
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		roleType, err := s.types.FindByDescription(txCtx, taxonomy.KindRoleType, roleLabel)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNodeNotFound) {
				return fmt.Errorf("%w: %q", ErrRoleTypeNotFound, roleLabel)
			}
			return err
		}

		parties, err := s.repo.FindByActiveRole(txCtx, roleType.Description)
		if err != nil {
			return err
		}
		result = parties
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// SearchPartiesByName は有効な名前への部分一致検索です。
func (s *Service) SearchPartiesByName(ctx context.Context, term string) ([]*Party, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrInvalidSearchTerm
	}

	var result []*Party
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		parties, err := s.repo.FindByNameContaining(txCtx, term)
		if err != nil {
			return err
		}
		result = parties
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// SearchPersonsByLastName は姓の完全一致 (大文字小文字非区別) 検索です。
func (s *Service) SearchPersonsByLastName(ctx context.Context, lastName string) ([]*Party, error) {
	lastName = strings.TrimSpace(lastName)
	if lastName == "" {
		return nil, ErrInvalidLastName
	}

	var result []*Party
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		parties, err := s.repo.FindPersonsByLastName(txCtx, lastName)
		if err != nil {
			return err
		}
		result = parties
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// SearchOrganizationsByName は組織名への部分一致検索です。
func (s *Service) SearchOrganizationsByName(ctx context.Context, term string) ([]*Party, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrInvalidSearchTerm
	}

	var result []*Party
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		parties, err := s.repo.FindOrganizationsByName(txCtx, term)
		if err != nil {
			return err
		}
		result = parties
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ListParties は当事者の一覧をページングして取得します。
func (s *Service) ListParties(ctx context.Context, in ListPartiesInput) (*ListPartiesResult, error) {
	if in.Kind != nil && !IsValidKind(*in.Kind) {
		return nil, ErrInvalidKind
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		parties   []*Party
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, token, err := s.repo.List(txCtx, ListPartiesFilter{
			Kind:   in.Kind,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		parties = result
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListPartiesResult{Parties: parties, NextPageToken: nextToken}, nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := validity.TruncateToDate(*t)
	return &normalized
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
