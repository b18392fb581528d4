//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	repo "github.com/ogurasousui/projectledger/internal/adapters/repository/postgres"
	"github.com/ogurasousui/projectledger/internal/core/employee"
	"github.com/ogurasousui/projectledger/internal/core/project"
	"github.com/ogurasousui/projectledger/internal/platform/config"
	pg "github.com/ogurasousui/projectledger/internal/platform/db/postgres"
)

const migrationsDir = "assets/migrations"

func TestProjectLifecycleIntegration(t *testing.T) {
	t.Parallel()

	cfgPath := configPathFromEnv()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	txManager := pg.NewTransactionManager(pool)
	employeeRepo := repo.NewEmployeeRepository(pool)
	projectRepo := repo.NewProjectRepository(pool)

	employeeSvc := employee.NewService(employeeRepo, nil, txManager)
	projectSvc := project.NewService(projectRepo, employeeRepo, nil, nil, txManager, project.Policy{})

	first, err := employeeSvc.RegisterEmployee(ctx, employee.RegisterEmployeeInput{
		UserID: "tanaka01",
		Name:   "Tanaka",
		Email:  "tanaka@example.com",
	})
	if err != nil {
		t.Fatalf("RegisterEmployee error: %v", err)
	}

	second, err := employeeSvc.RegisterEmployee(ctx, employee.RegisterEmployeeInput{
		UserID: "suzuki01",
		Name:   "Suzuki",
		Email:  "suzuki@example.com",
	})
	if err != nil {
		t.Fatalf("RegisterEmployee error: %v", err)
	}

	created, err := projectSvc.CreateProject(ctx, project.CreateProjectInput{
		ProjectCode:     "portal-rebuild",
		Title:           "Portal rebuild",
		Amount:          1000,
		AssignedUserIDs: []string{"tanaka01", "suzuki01"},
	})
	if err != nil {
		t.Fatalf("CreateProject error: %v", err)
	}

	for _, emp := range []*employee.Employee{first, second} {
		reloaded, err := employeeRepo.FindByID(ctx, emp.ID)
		if err != nil {
			t.Fatalf("FindByID error: %v", err)
		}
		if !reloaded.HasActiveProject(created.ID) {
			t.Fatalf("expected %s to hold an active reference", reloaded.UserID)
		}
	}

	// 割り当て差し替え: suzuki01 のみが残る。
	updated, err := projectSvc.EditProject(ctx, project.EditProjectInput{
		ID:              created.ID,
		AssignedUserIDs: []string{"suzuki01"},
		AssignedSet:     true,
	})
	if err != nil {
		t.Fatalf("EditProject error: %v", err)
	}
	if updated.Status != project.StatusCurrent {
		t.Fatalf("expected auto-advance to current, got %s", updated.Status)
	}

	removed, err := employeeRepo.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if removed.HasActiveProject(created.ID) {
		t.Fatal("expected removed assignee to lose the active reference")
	}

	completed, err := projectSvc.CompleteProject(ctx, project.CompleteProjectInput{ID: created.ID})
	if err != nil {
		t.Fatalf("CompleteProject error: %v", err)
	}
	if completed.Status != project.StatusCompleted {
		t.Fatalf("expected completed status, got %s", completed.Status)
	}

	credited, err := employeeRepo.FindByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if credited.Balance != 1000 {
		t.Fatalf("expected balance 1000, got %d", credited.Balance)
	}
	if !credited.HasCompletedProject(created.ID) {
		t.Fatal("expected completed reference present")
	}

	if _, err := projectSvc.CompleteProject(ctx, project.CompleteProjectInput{ID: created.ID}); !errors.Is(err, project.ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	if err := projectSvc.DeleteProject(ctx, project.DeleteProjectInput{ID: created.ID}); err != nil {
		t.Fatalf("DeleteProject error: %v", err)
	}

	purged, err := employeeRepo.FindByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if purged.HasCompletedProject(created.ID) || purged.HasActiveProject(created.ID) {
		t.Fatal("expected all references purged after delete")
	}
	if purged.Balance != 1000 {
		t.Fatalf("expected credited balance preserved, got %d", purged.Balance)
	}

	if _, err := projectRepo.FindByID(ctx, created.ID); !errors.Is(err, project.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "assets/local.yaml"
}
