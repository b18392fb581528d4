package project

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/projectledger/internal/core/employee"
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

var projectCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Policy は状態機械の設定可能な挙動です。
type Policy struct {
	// AdvanceOnCreate が真の場合、割り当て付きで作成されたプロジェクトは
	// upcoming を経由せず current で開始します。
	AdvanceOnCreate bool
}

// Service はプロジェクトに関するユースケースをまとめます。
// 従業員側の参照集合(進行中・完了済み)とプロジェクト側の割り当て集合の
// 対称性は、このサービスだけが書き込むことで維持されます。
type Service struct {
	repo      Repository
	employees employee.Repository
	cache     Cache
	clock     Clock
	tx        TransactionManager
	policy    Policy
}

// UseCase はプロジェクトユースケースの公開インターフェースです。
type UseCase interface {
	CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error)
	GetProject(ctx context.Context, in GetProjectInput) (*Project, error)
	ListProjects(ctx context.Context, in ListProjectsInput) ([]*Project, error)
	ListEmployeeProjects(ctx context.Context, in ListEmployeeProjectsInput) ([]*Project, error)
	EditProject(ctx context.Context, in EditProjectInput) (*Project, error)
	CompleteProject(ctx context.Context, in CompleteProjectInput) (*Project, error)
	DeleteProject(ctx context.Context, in DeleteProjectInput) error
}

// NewService は Service を生成します。cache は nil でも構いません。
func NewService(repo Repository, employees employee.Repository, cache Cache, clock Clock, tx TransactionManager, policy Policy) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{
		repo:      repo,
		employees: employees,
		cache:     cache,
		clock:     clock,
		tx:        tx,
		policy:    policy,
	}
}

// CreateProjectInput はプロジェクト作成時の入力です。
type CreateProjectInput struct {
	ProjectCode     string
	Title           string
	Description     string
	Tasks           []string
	Deadline        *time.Time
	Tags            []string
	Amount          int64
	AssignedUserIDs []string
}

// GetProjectInput はプロジェクト取得時の入力です。
type GetProjectInput struct {
	ID string
}

// ListProjectsInput は一覧取得時の入力です。Status が nil の場合は
// upcoming と current のみが対象になります(完了済みは明示指定時のみ)。
type ListProjectsInput struct {
	Status *Status
}

// ListEmployeeProjectsInput は従業員の進行中プロジェクト一覧取得の入力です。
type ListEmployeeProjectsInput struct {
	UserID string
}

// EditProjectInput はプロジェクト編集時の入力です。nil のフィールドは
// 変更されません。AssignedSet が真の場合、AssignedUserIDs は差分ではなく
// 望ましい割り当ての全量です。ExpectedVersion を指定すると楽観ロック検査を
// 行い、不一致は ErrConcurrentModification になります。
type EditProjectInput struct {
	ID              string
	Title           *string
	Description     *string
	Tasks           []string
	TasksSet        bool
	Deadline        *time.Time
	DeadlineSet     bool
	Tags            []string
	TagsSet         bool
	Amount          *int64
	AssignedUserIDs []string
	AssignedSet     bool
	ExpectedVersion *int64
}

// CompleteProjectInput はプロジェクト完了時の入力です。
type CompleteProjectInput struct {
	ID string
}

// DeleteProjectInput はプロジェクト削除時の入力です。
type DeleteProjectInput struct {
	ID string
}

// CreateProject は新しいプロジェクトを作成し、割り当てられた従業員の
// 進行中集合へ参照を挿入します。
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	code, err := normalizeProjectCode(in.ProjectCode)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	if in.Amount < 0 {
		return nil, ErrInvalidAmount
	}

	var created *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureProjectCodeNotExists(txCtx, code); err != nil {
			return err
		}

		assigned, err := s.resolveAssignees(txCtx, in.AssignedUserIDs)
		if err != nil {
			return err
		}

		status := StatusUpcoming
		if s.policy.AdvanceOnCreate && len(assigned) > 0 {
			status = StatusCurrent
		}

		now := s.clock.Now()
		p := &Project{
			ID:                uuid.NewString(),
			ProjectCode:       code,
			Title:             title,
			Description:       strings.TrimSpace(in.Description),
			Tasks:             cloneStrings(in.Tasks),
			Deadline:          cloneTime(in.Deadline),
			Tags:              cloneStrings(in.Tags),
			Amount:            in.Amount,
			Status:            status,
			AssignedEmployees: assigned,
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		result, err := s.repo.Create(txCtx, p)
		if err != nil {
			return err
		}

		for _, employeeID := range assigned {
			if err := s.employees.AddActiveProject(txCtx, employeeID, result.ID); err != nil {
				return err
			}
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// EditProject はプロジェクトを編集します。割り当てリストが与えられた場合は
// 差分を計算し、外された従業員の進行中集合から参照を除去し、新たに割り当て
// られた従業員の進行中集合へ参照を挿入します。双方の集合操作は冪等なので、
// 途中で失敗した操作の再試行は収束します。書き込み順は除去、挿入、プロジェ
// クト本体の順で固定です。
func (s *Service) EditProject(ctx context.Context, in EditProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}

		if in.ExpectedVersion != nil && *in.ExpectedVersion != existing.Version {
			return ErrConcurrentModification
		}

		// 終端状態のプロジェクトは編集できません。
		if existing.IsCompleted() {
			return ErrAlreadyCompleted
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return ErrInvalidTitle
			}
			existing.Title = title
		}

		if in.Description != nil {
			existing.Description = strings.TrimSpace(*in.Description)
		}

		if in.TasksSet {
			existing.Tasks = cloneStrings(in.Tasks)
		}

		if in.DeadlineSet {
			existing.Deadline = cloneTime(in.Deadline)
		}

		if in.TagsSet {
			existing.Tags = cloneStrings(in.Tags)
		}

		if in.Amount != nil {
			if *in.Amount < 0 {
				return ErrInvalidAmount
			}
			existing.Amount = *in.Amount
		}

		if in.AssignedSet {
			desired, err := s.resolveAssignees(txCtx, in.AssignedUserIDs)
			if err != nil {
				return err
			}

			if err := s.syncAssignments(txCtx, existing, desired); err != nil {
				return err
			}

			// 明示的な遷移規則: 割り当てを得た upcoming は current へ進む。
			if existing.Status == StatusUpcoming && len(desired) > 0 {
				existing.Status = StatusCurrent
			}
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, updated.ID)
	return updated, nil
}

// CompleteProject はプロジェクトを完了させます。割り当てられた各従業員の
// 進行中集合から参照を外し、完了済み集合へ移し、balance にプロジェクトの
// amount を加算します。加算は (従業員, プロジェクト) の組につき一度だけ
// 行われます。重複呼び出しは ErrAlreadyCompleted になり、何も変更しません。
func (s *Service) CompleteProject(ctx context.Context, in CompleteProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var completed *Project
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		// 行ロックにより並行完了は直列化され、status != completed を
		// 観測できるのは一つだけになります。
		p, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}

		if p.IsCompleted() {
			return ErrAlreadyCompleted
		}

		// CreditCompletion は完了済み集合に既に含まれる従業員を飛ばすため、
		// 部分適用後の再試行でも二重加算されません。
		for _, employeeID := range p.AssignedEmployees {
			if _, err := s.employees.CreditCompletion(txCtx, employeeID, p.ID, p.Amount); err != nil {
				return err
			}
		}

		// ステータス反転は最後の書き込みです。
		p.Status = StatusCompleted
		p.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, p)
		if err != nil {
			return err
		}

		completed = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, completed.ID)
	return completed, nil
}

// DeleteProject はプロジェクトと、全従業員の両参照集合に残る参照を削除
// します。加算済みの balance は戻しません。完了済みプロジェクトの削除後も
// 従業員の受領額が変わらないのは意図した挙動です。
func (s *Service) DeleteProject(ctx context.Context, in DeleteProjectInput) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		p, err := s.repo.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}

		if err := s.employees.PurgeProjectRefs(txCtx, p.ID); err != nil {
			return err
		}

		return s.repo.Delete(txCtx, p.ID)
	}); err != nil {
		return err
	}

	s.invalidateCache(ctx, in.ID)
	return nil
}

// GetProject はプロジェクトを取得します。キャッシュが設定されていれば
// 優先して参照します。
func (s *Service) GetProject(ctx context.Context, in GetProjectInput) (*Project, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, in.ID); err == nil {
			return cached, nil
		}
	}

	var result *Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	if s.cache != nil {
		// 期限付きエントリなので書き込み失敗は無視できます。
		_ = s.cache.Set(ctx, result)
	}

	return result, nil
}

// ListProjects はプロジェクトの一覧を取得します。
func (s *Service) ListProjects(ctx context.Context, in ListProjectsInput) ([]*Project, error) {
	var statuses []Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		statuses = []Status{*in.Status}
	} else {
		statuses = []Status{StatusUpcoming, StatusCurrent}
	}

	var projects []*Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.List(txCtx, ListProjectsFilter{Statuses: statuses})
		if err != nil {
			return err
		}
		projects = result
		return nil
	}); err != nil {
		return nil, err
	}

	return projects, nil
}

// ListEmployeeProjects は従業員の進行中プロジェクトを外部 ID で引きます。
func (s *Service) ListEmployeeProjects(ctx context.Context, in ListEmployeeProjectsInput) ([]*Project, error) {
	userID := strings.ToLower(strings.TrimSpace(in.UserID))
	if userID == "" {
		return nil, employee.ErrInvalidUserID
	}

	var projects []*Project
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByUserID(txCtx, userID)
		if err != nil {
			return err
		}

		if len(emp.ActiveProjects) == 0 {
			projects = []*Project{}
			return nil
		}

		result, err := s.repo.ListByIDs(txCtx, emp.ActiveProjects, []Status{StatusUpcoming, StatusCurrent})
		if err != nil {
			return err
		}
		projects = result
		return nil
	}); err != nil {
		return nil, err
	}

	return projects, nil
}

// syncAssignments は割り当て集合の差分を従業員側へ適用し、プロジェクト側の
// 集合を desired に置き換えます。双方に含まれる従業員には触れません。
func (s *Service) syncAssignments(ctx context.Context, p *Project, desired []string) error {
	added, removed := diffAssignments(p.AssignedEmployees, desired)

	for _, employeeID := range removed {
		if err := s.employees.RemoveActiveProject(ctx, employeeID, p.ID); err != nil {
			return err
		}
	}

	for _, employeeID := range added {
		if err := s.employees.AddActiveProject(ctx, employeeID, p.ID); err != nil {
			return err
		}
	}

	p.AssignedEmployees = desired
	return nil
}

func (s *Service) ensureProjectCodeNotExists(ctx context.Context, code string) error {
	p, err := s.repo.FindByProjectCode(ctx, code)
	if err != nil && !errors.Is(err, ErrProjectNotFound) {
		return err
	}
	if p != nil {
		return ErrProjectCodeAlreadyExists
	}
	return nil
}

func (s *Service) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, id)
}

func normalizeProjectCode(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidProjectCode
	}

	lower := strings.ToLower(trimmed)
	if !projectCodePattern.MatchString(lower) {
		return "", ErrInvalidProjectCode
	}
	return lower, nil
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clone := make([]string, len(values))
	copy(clone, values)
	return clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
