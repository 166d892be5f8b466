package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/foodstand/internal/app"
)

const (
	envHTTPAddr      = "FOODSTAND_HTTP_ADDR"
	envMetricsAddr   = "FOODSTAND_METRICS_ADDR"
	envStorageDriver = "FOODSTAND_STORAGE_DRIVER"
	envAutoMigrate   = "FOODSTAND_AUTO_MIGRATE"
	envEventsTopic   = "FOODSTAND_EVENTS_TOPIC"
	envLogLevel      = "FOODSTAND_LOG_LEVEL"
	envKafkaBrokers  = "KAFKA_BROKERS"

	envSQLHost              = "SQL_HOSTNAME"
	envSQLPort              = "SQL_PORT"
	envSQLUser              = "SQL_USER"
	envSQLPassword          = "SQL_PASSWORD"
	envSQLDatabase          = "SQL_DBNAME"
	envSQLSSLMode           = "SQL_SSLMODE"
	envSQLSSLRootCert       = "SQL_SSLROOTCERT"
	envSQLConnectTimeout    = "SQL_CONNECT_TIMEOUT"
	envSQLBootstrapUser     = "SQL_BOOTSTRAP_USER"
	envSQLBootstrapPassword = "SQL_BOOTSTRAP_PASSWORD"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv собирает конфигурацию из окружения.
// Некорректные значения заменяются значениями по умолчанию и попадают в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	setString := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}

	setString(envHTTPAddr, &cfg.HTTPAddr)
	setString(envMetricsAddr, &cfg.MetricsAddr)
	setString(envEventsTopic, &cfg.EventsTopic)
	setString(envKafkaBrokers, &cfg.KafkaBrokers)

	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		driver := strings.ToLower(strings.TrimSpace(v))
		switch driver {
		case app.StorageDriverPostgres, app.StorageDriverMemory:
			cfg.StorageDriver = driver
		default:
			warnings = append(warnings, fmt.Sprintf("%s: unsupported driver %q, using %s", envStorageDriver, v, cfg.StorageDriver))
		}
	}

	if v, ok := lookup(envAutoMigrate); ok && strings.TrimSpace(v) != "" {
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envAutoMigrate, err))
		} else {
			cfg.AutoMigrate = parsed
		}
	}

	setString(envSQLHost, &cfg.Postgres.Host)
	setString(envSQLUser, &cfg.Postgres.User)
	setString(envSQLDatabase, &cfg.Postgres.Database)
	setString(envSQLSSLMode, &cfg.Postgres.SSLMode)
	setString(envSQLSSLRootCert, &cfg.Postgres.SSLRootCert)
	setString(envSQLBootstrapUser, &cfg.BootstrapUser)
	// пароли не обрезаем: пробелы могут быть частью секрета
	if v, ok := lookup(envSQLPassword); ok {
		cfg.Postgres.Password = v
	}
	if v, ok := lookup(envSQLBootstrapPassword); ok {
		cfg.BootstrapPassword = v
	}

	if v, ok := lookup(envSQLPort); ok && strings.TrimSpace(v) != "" {
		port, err := parseInt(v, func(p int) bool { return p > 0 && p <= 65535 }, "must be in 1..65535")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envSQLPort, err))
		} else {
			cfg.Postgres.Port = port
		}
	}

	if v, ok := lookup(envSQLConnectTimeout); ok && strings.TrimSpace(v) != "" {
		timeout, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envSQLConnectTimeout, err))
		} else {
			cfg.Postgres.ConnectTimeout = timeout
		}
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %d %s", value, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q", raw)
	}
	if !valid(value) {
		return 0, fmt.Errorf("value %s %s", value, rule)
	}
	return value, nil
}
