package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dshop/backend/internal/infrastructure/config"
	"github.com/dshop/backend/internal/infrastructure/logger"
	"github.com/dshop/backend/internal/infrastructure/migration"
	"github.com/dshop/backend/migrations"
)

var errUsage = errors.New("invalid arguments")

// schemaCommand runs against a live PostgreSQL schema
type schemaCommand func(m *migration.Migrator, args []string, log *zap.Logger) error

var schemaCommands = map[string]schemaCommand{
	"up": func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Up()
	},
	"down": func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Down()
	},
	"step": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"force": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
}

func main() {
	dir := flag.String("path", "", "Migrations directory on disk (default: the migrations built into the binary)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	if *dir != "" {
		if *dir, err = filepath.Abs(*dir); err != nil {
			log.Fatal("Failed to resolve migrations path", zap.Error(err))
		}
	}

	if err := dispatch(args[0], args[1:], *dir, log); err != nil {
		if errors.Is(err, errUsage) {
			log.Error("Invalid command line", zap.Error(err))
			printUsage()
			os.Exit(1)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func dispatch(command string, args []string, dir string, log *zap.Logger) error {
	switch command {
	case "create":
		return create(args, dir, log)
	case "list":
		return list(dir, log)
	}

	run, ok := schemaCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("SQL migrations only target PostgreSQL, driver is %q; SQLite schemas are created at startup", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.NewFromFS(db, source(dir), log)
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info("Migration CLI started", zap.String("command", command), zap.String("source", sourceName(dir)))
	return run(m, args, log)
}

func create(args []string, dir string, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create needs a migration name", errUsage)
	}
	if dir == "" {
		dir = "migrations"
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(dir string, log *zap.Logger) error {
	names, err := migration.ListMigrations(source(dir))
	if err != nil {
		return err
	}
	log.Info("Available migrations", zap.Int("count", len(names)), zap.String("source", sourceName(dir)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: a number is required", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

func source(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func sourceName(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return dir
}

func printUsage() {
	fmt.Println(`dshop database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  version               Show the applied migration version
  force <version>       Mark a version as applied, clearing a dirty state
  create <name> [desc]  Write a new up/down migration pair
  list                  List available migrations

Flags:
  -path string          Migrations directory on disk (default: built-in migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment:
  DSHOP_DATABASE_HOST, DSHOP_DATABASE_PORT, DSHOP_DATABASE_USER,
  DSHOP_DATABASE_PASSWORD, DSHOP_DATABASE_DBNAME, DSHOP_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_listing_index "Index listings by shop"`)
}
