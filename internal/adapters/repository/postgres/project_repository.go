package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/projectledger/internal/core/project"
	pgdb "github.com/ogurasousui/projectledger/internal/platform/db/postgres"
)

const projectColumns = `id, project_code, title, description, tasks, deadline, tags, amount, status, assigned_employees, version, created_at, updated_at`

// ProjectRepository は PostgreSQL を利用したプロジェクト永続化の実装です。
// version カラムを楽観ロックのスタンプとして使い、更新は一致時のみ適用
// されます。
type ProjectRepository struct {
	pool pgdb.Queryer
}

// NewProjectRepository は ProjectRepository を生成します。
func NewProjectRepository(pool pgdb.Queryer) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

// Create はプロジェクトを新規作成します。
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO projects (id, project_code, title, description, tasks, deadline, tags, amount, status, assigned_employees, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING `+projectColumns,
		p.ID,
		p.ProjectCode,
		p.Title,
		p.Description,
		textArray(p.Tasks),
		nullableTime(p.Deadline),
		textArray(p.Tags),
		p.Amount,
		string(p.Status),
		textArray(p.AssignedEmployees),
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)

	created, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return created, nil
}

// FindByID は内部 ID でプロジェクトを取得します。
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*project.Project, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate は行ロックを取得した上でプロジェクトを取得します。
func (r *ProjectRepository) FindByIDForUpdate(ctx context.Context, id string) (*project.Project, error) {
	return r.findByID(ctx, id, true)
}

func (r *ProjectRepository) findByID(ctx context.Context, id string, forUpdate bool) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	} else {
		query += ` LIMIT 1`
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, query, id)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

// FindByProjectCode は外部 ID でプロジェクトを取得します。
func (r *ProjectRepository) FindByProjectCode(ctx context.Context, code string) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE project_code = $1 LIMIT 1`, code)

	found, err := scanProject(row)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	return found, nil
}

// Update は version が一致する場合のみプロジェクトを書き込み、version を
// 1 進めます。行が存在するのに更新されなかった場合は
// ErrConcurrentModification です。
func (r *ProjectRepository) Update(ctx context.Context, p *project.Project) (*project.Project, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE projects
           SET title = $1,
               description = $2,
               tasks = $3,
               deadline = $4,
               tags = $5,
               amount = $6,
               status = $7,
               assigned_employees = $8,
               version = version + 1,
               updated_at = $9
         WHERE id = $10 AND version = $11
        RETURNING `+projectColumns,
		p.Title,
		p.Description,
		textArray(p.Tasks),
		nullableTime(p.Deadline),
		textArray(p.Tags),
		p.Amount,
		string(p.Status),
		textArray(p.AssignedEmployees),
		p.UpdatedAt,
		p.ID,
		p.Version,
	)

	updated, err := scanProject(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, translateProjectPgError(err)
	}

	var exists bool
	if scanErr := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, p.ID).Scan(&exists); scanErr != nil {
		return nil, translateProjectPgError(scanErr)
	}
	if exists {
		return nil, project.ErrConcurrentModification
	}
	return nil, project.ErrProjectNotFound
}

// Delete はプロジェクトを削除します。
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return translateProjectPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return project.ErrProjectNotFound
	}
	return nil
}

// List はプロジェクトの一覧を取得します。
func (r *ProjectRepository) List(ctx context.Context, filter project.ListProjectsFilter) ([]*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	args := make([]any, 0, 1)
	if len(filter.Statuses) > 0 {
		query += ` WHERE status = ANY($1)`
		args = append(args, statusStrings(filter.Statuses))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// ListByIDs は ids に含まれるプロジェクトを statuses で絞り込んで返します。
func (r *ProjectRepository) ListByIDs(ctx context.Context, ids []string, statuses []project.Status) ([]*project.Project, error) {
	if len(ids) == 0 {
		return []*project.Project{}, nil
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ANY($1)`
	args := []any{ids}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, statusStrings(statuses))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateProjectPgError(err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

func collectProjects(rows pgx.Rows) ([]*project.Project, error) {
	projects := make([]*project.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, translateProjectPgError(err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, translateProjectPgError(err)
	}

	return projects, nil
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var (
		id                string
		code              string
		title             string
		description       string
		tasks             []string
		deadline          sql.NullTime
		tags              []string
		amount            int64
		status            string
		assignedEmployees []string
		version           int64
		createdAt         time.Time
		updatedAt         time.Time
	)

	if err := row.Scan(
		&id,
		&code,
		&title,
		&description,
		&tasks,
		&deadline,
		&tags,
		&amount,
		&status,
		&assignedEmployees,
		&version,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, project.ErrProjectNotFound
		}
		return nil, err
	}

	var deadlinePtr *time.Time
	if deadline.Valid {
		t := deadline.Time.UTC()
		deadlinePtr = &t
	}

	return &project.Project{
		ID:                id,
		ProjectCode:       code,
		Title:             title,
		Description:       description,
		Tasks:             tasks,
		Deadline:          deadlinePtr,
		Tags:              tags,
		Amount:            amount,
		Status:            project.Status(status),
		AssignedEmployees: assignedEmployees,
		Version:           version,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}

func translateProjectPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return project.ErrProjectNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return project.ErrProjectCodeAlreadyExists
		case checkViolationCode:
			return project.ErrInvalidAmount
		}
	}

	return err
}

func statusStrings(statuses []project.Status) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return values
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}
