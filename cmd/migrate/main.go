// Command migrate applies and authors the Fieldbook schema migrations.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/fieldbook/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("invalid arguments")

// command is one subcommand. Commands with a nil migrate func work on files
// only and never open the database.
type command struct {
	usage   string
	files   func(env *env, args []string) error
	migrate func(env *env, m *migration.Migrator, args []string) error
}

type env struct {
	log  *zap.Logger
	path string
}

var commands = map[string]command{
	"up": {usage: "up", migrate: func(_ *env, m *migration.Migrator, _ []string) error {
		return m.Up()
	}},
	"down": {usage: "down", migrate: func(_ *env, m *migration.Migrator, _ []string) error {
		return m.Down()
	}},
	"step": {usage: "step <n>", migrate: func(_ *env, m *migration.Migrator, args []string) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	}},
	"goto": {usage: "goto <version>", migrate: func(_ *env, m *migration.Migrator, args []string) error {
		n, err := intArg(args)
		if err != nil || n < 0 {
			return errUsage
		}
		return m.GoTo(uint(n))
	}},
	"force": {usage: "force <version>", migrate: func(e *env, m *migration.Migrator, args []string) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		e.log.Warn("forcing migration version without checking the schema", zap.Int("version", n))
		return m.Force(n)
	}},
	"version": {usage: "version", migrate: func(e *env, m *migration.Migrator, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			e.log.Info("no migrations applied")
			return nil
		}
		e.log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}},
	"create": {usage: "create <name> [description]", files: func(e *env, args []string) error {
		if len(args) == 0 {
			return errUsage
		}
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(e.path, args[0], description, time.Now())
		if err != nil {
			return err
		}
		e.log.Info("migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	}},
	"list": {usage: "list", files: func(e *env, _ []string) error {
		names, err := migration.ListMigrations(e.path)
		if err != nil {
			return err
		}
		e.log.Info("available migrations", zap.Int("count", len(names)))
		for _, name := range names {
			fmt.Println("  -", name)
		}
		return nil
	}},
}

func main() {
	path := flag.String("path", "", "read migrations from this directory instead of the set built into the binary")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      *level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.DateTime,
		Service:    "fieldbook-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(&env{log: log, path: *path}, cmd, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "usage: migrate %s\n", cmd.usage)
			_ = logger.Sync(log)
			os.Exit(2)
		}
		log.Error("migrate failed", zap.String("command", args[0]), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
	_ = logger.Sync(log)
}

func run(e *env, cmd command, args []string) error {
	if cmd.files != nil {
		e.path = sourceDir(e.path)
		return cmd.files(e, args)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var opts []migration.Option
	if e.path != "" {
		opts = append(opts, migration.WithDirectory(e.path))
	}
	m, err := migration.New(db, e.log, opts...)
	if err != nil {
		return err
	}
	defer m.Close()
	return cmd.migrate(e, m, args)
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errUsage
	}
	return n, nil
}

// sourceDir resolves the directory create and list operate on
func sourceDir(path string) string {
	if path == "" {
		path = defaultMigrationsPath
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func usage() {
	fmt.Fprint(os.Stderr, `Fieldbook schema migrations

usage: migrate [flags] <command> [arguments]

commands:
  up                           apply every pending migration
  down                         roll back every migration
  step <n>                     apply n migrations, negative n rolls back
  goto <version>               migrate up or down to version
  version                      print the applied version
  force <version>              set the version without running anything
  create <name> [description]  write a new up/down file pair
  list                         list migration files

flags:
`)
	flag.PrintDefaults()
	fmt.Fprint(os.Stderr, `
Database settings come from the APP_DATABASE_* environment variables.
`)
}
