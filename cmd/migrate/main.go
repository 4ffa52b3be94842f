package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/migrations"
)

const defaultMigrationsDir = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// create and list only touch the filesystem
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name is required. Usage: migrate create <name>")
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsDir
		}
		file, err := migration.CreateMigration(dir, args[1])
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		fmt.Printf("Created migration %06d_%s\n  %s\n  %s\n", file.Version, file.Name, file.UpPath, file.DownPath)
		return
	case "list":
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsDir
		}
		list, err := migration.ListMigrations(dir)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(list) == 0 {
			fmt.Println("No migrations found in", dir)
			return
		}
		for _, m := range list {
			fmt.Printf("%06d  %s\n", m.Version, m.Name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to connect to database",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.DBName),
			zap.Error(err))
	}

	var m *migration.Migrator
	if migrationsPath != "" {
		log.Info("Using migrations directory", zap.String("path", migrationsPath))
		m, err = migration.NewFromPath(db, migrationsPath, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		log.Fatal("Failed to initialize migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := run(m, command, args[1:]); err != nil {
		log.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		_ = m.Close()
		os.Exit(1)
	}
}

func run(m *migration.Migrator, command string, args []string) error {
	switch command {
	case "up":
		return m.Up()

	case "down":
		// without an argument only the latest migration is rolled back
		n := 1
		if len(args) > 0 {
			if args[0] == "all" {
				n = 0
			} else {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed <= 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				n = parsed
			}
		}
		return m.Down(n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 && !dirty {
			fmt.Println("No migrations applied")
			return nil
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
		return nil

	case "force":
		if len(args) == 0 {
			return fmt.Errorf("version is required: migrate force <version>")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(v)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Storefront database migration tool

Usage:
  migrate [flags] <command> [args]

Commands:
  up               Apply all pending migrations
  down [n|all]     Roll back n migrations (default 1)
  version          Print the current schema version
  force <version>  Set the version without running migrations (clears the dirty flag)
  create <name>    Create a new migration pair in the migrations directory
  list             List migration files on disk

Flags:
  -path string       Read migrations from this directory instead of the embedded set
  -log-level string  Log level (debug, info, warn, error) (default "info")

Configuration is read from config.toml, .env and SHOP_* environment variables.
`)
}
