//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mpapenbr/racepredict/pkg/db/migrate"
	database "github.com/mpapenbr/racepredict/pkg/db/postgres"
)

// SetupTestDb creates a pg connection pool for a migrated test database
// running in a container.
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	opts := []PostgresContainerOption{
		WithPort(port.Port()),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("racepredict-test"),
		WithTmpfsData(),
	}
	if image := os.Getenv("TESTDB_IMAGE"); image != "" {
		opts = append(opts, WithImage(image))
	}
	container, err := SetupPostgres(ctx, opts...)
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbURL := fmt.Sprintf("postgresql://postgres:password@%s:%s/postgres",
		host, containerPort.Port())

	return initPool(dbURL)
}

// SetupExternalTestDb uses the database referenced by TESTDB_URL
func SetupExternalTestDb() *pgxpool.Pool {
	return initPool(os.Getenv("TESTDB_URL"))
}

func initPool(dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(context.Background(), dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearPredictionTables(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from prediction_result")
	pool.Exec(context.Background(), "delete from prediction_run")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearPredictionTables(pool)
}
