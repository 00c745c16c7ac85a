package database

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpupo63/portfolio-admin-backend/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	sharedDB     *gorm.DB
	sharedDBOnce sync.Once
	sharedDBErr  error

	containerHost string
	containerPort string
)

// testDSN points at database name on the shared container.
func testDSN(name string) string {
	return fmt.Sprintf("postgres://portfolio:test_password@%s:%s/%s?sslmode=disable", containerHost, containerPort, name)
}

// createEmptyDatabase creates name on the shared container unless it exists.
// It has no tables, so any query routed to it fails.
func createEmptyDatabase(t *testing.T, db *gorm.DB, name string) {
	t.Helper()

	var count int64
	if err := db.Raw("SELECT count(*) FROM pg_database WHERE datname = ?", name).Scan(&count).Error; err != nil {
		t.Fatalf("Failed to look up database %s: %v", name, err)
	}
	if count > 0 {
		return
	}
	if err := db.Exec("CREATE DATABASE " + name).Error; err != nil {
		t.Fatalf("Failed to create database %s: %v", name, err)
	}
}

// getTestDB returns a migrated postgres shared by every test in the package,
// emptied before each caller.
func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedDBOnce.Do(func() {
		sharedDB, sharedDBErr = setupTestDB()
	})
	if sharedDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedDBErr)
	}

	err := sharedDB.Exec("TRUNCATE project_technology, projects, technologies, types RESTART IDENTITY CASCADE").Error
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
	return sharedDB
}

func setupTestDB() (*gorm.DB, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "portfolio_test",
				"POSTGRES_USER":     "portfolio",
				"POSTGRES_PASSWORD": "test_password",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	containerHost, containerPort = host, port.Port()

	db, err := Open(map[string]string{"DATABASE_URL": testDSN("portfolio_test")})
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return db, nil
}
