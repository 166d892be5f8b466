package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodstand/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
)

type envLookup func(key string) (string, bool)

type options struct {
	direction string
	steps     int
	createDB  bool
	timeout   time.Duration
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := run(os.Args[1:], os.LookupEnv, os.Stdout); err != nil {
		fail("%v", err)
	}
}

func run(args []string, lookup envLookup, stdout io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	direction := strings.ToLower(strings.TrimSpace(opts.direction))
	switch direction {
	case "up", "down", "status":
	default:
		return fmt.Errorf("unsupported direction: %s (use up|down|status)", opts.direction)
	}

	cfg, err := postgresConfigFromEnv(lookup)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if opts.createDB {
		user, _ := lookup("SQL_BOOTSTRAP_USER")
		password, _ := lookup("SQL_BOOTSTRAP_PASSWORD")
		if err := postgres.EnsureDatabase(ctx, cfg, strings.TrimSpace(user), password); err != nil {
			return fmt.Errorf("create database failed: %w", err)
		}
	}

	store, err := postgres.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("postgres config: %w", err)
	}

	switch direction {
	case "up":
		if err := store.MigrateUp(ctx, opts.steps); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
	case "down":
		if err := store.MigrateDown(ctx, opts.steps); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
	}

	version, count, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	if direction == "status" {
		_, err = fmt.Fprintf(stdout, "migration status: version=%d applied=%d\n", version, count)
	} else {
		_, err = fmt.Fprintf(stdout, "migrate %s ok: version=%d applied=%d\n", direction, version, count)
	}
	return err
}

func parseOptions(args []string) (options, error) {
	var opts options

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.direction, "direction", "up", "migration direction: up|down|status")
	fs.IntVar(&opts.steps, "steps", 0, "number of migrations to apply/rollback (0=all for up, 1 for down)")
	fs.BoolVar(&opts.createDB, "create-db", false, "create SQL_DBNAME with SQL_BOOTSTRAP_USER credentials if missing")
	fs.DurationVar(&opts.timeout, "timeout", defaultTimeout, "overall timeout")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.steps < 0 {
		return options{}, errors.New("steps must be >= 0")
	}
	if opts.timeout <= 0 {
		return options{}, errors.New("timeout must be > 0")
	}
	return opts, nil
}

// postgresConfigFromEnv читает SQL_* переменные; в отличие от сервиса, ошибки не заменяются дефолтами.
func postgresConfigFromEnv(lookup envLookup) (postgres.Config, error) {
	cfg := postgres.DefaultConfig()
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg.Host = get("SQL_HOSTNAME")
	cfg.User = get("SQL_USER")
	cfg.Password, _ = lookup("SQL_PASSWORD")
	cfg.Database = get("SQL_DBNAME")
	cfg.SSLRootCert = get("SQL_SSLROOTCERT")
	if v := get("SQL_SSLMODE"); v != "" {
		cfg.SSLMode = v
	}
	if v := get("SQL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return postgres.Config{}, fmt.Errorf("SQL_PORT: invalid int value %q", v)
		}
		cfg.Port = port
	}
	if v := get("SQL_CONNECT_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return postgres.Config{}, fmt.Errorf("SQL_CONNECT_TIMEOUT: invalid duration value %q", v)
		}
		cfg.ConnectTimeout = timeout
	}
	return cfg, nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
