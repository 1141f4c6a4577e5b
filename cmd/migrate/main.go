package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hsdfat8/drivetrack/internal/adapters/postgres"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (overrides individual flags)")
		host        = flag.String("host", "localhost", "Database host")
		port        = flag.Int("port", 5432, "Database port")
		user        = flag.String("user", "drivetrack", "Database user")
		password    = flag.String("password", "", "Database password")
		dbname      = flag.String("dbname", "drivetrack", "Database name")
		sslmode     = flag.String("sslmode", "disable", "SSL mode (disable, require, verify-ca, verify-full)")
		verify      = flag.Bool("verify", false, "Verify schema after migration")
		status      = flag.Bool("status", false, "Show migration status")
	)

	flag.Parse()

	dsn := *databaseURL
	if dsn == "" {
		dsn = postgres.DSN(&ports.PostgresConfig{
			Host:     *host,
			Port:     *port,
			User:     *user,
			Password: *password,
			Database: *dbname,
			SSLMode:  *sslmode,
		})
	}

	fmt.Println("Connecting to database...")
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	migrator := postgres.NewMigrator(db)

	if *status {
		if err := showMigrationStatus(ctx, migrator); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get migration status: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := migrator.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	if *verify {
		if err := migrator.VerifySchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Schema verification failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("Migration completed")
}

func showMigrationStatus(ctx context.Context, migrator *postgres.Migrator) error {
	migrations, err := migrator.GetMigrationStatus(ctx)
	if err != nil {
		return err
	}

	if len(migrations) == 0 {
		fmt.Println("No migrations have been applied yet.")
		return nil
	}

	for _, m := range migrations {
		fmt.Printf("%s\t%s\t%s\n", m.AppliedAt.Format(time.RFC3339), m.MigrationName, m.Description)
	}
	return nil
}
