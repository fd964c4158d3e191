// Package cloudsql resolves the Postgres connection string for either a
// direct DATABASE_URL or a Cloud SQL instance mounted over a Unix socket.
package cloudsql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/medipulse/medipulse/internal/config"
)

// ErrNotConfigured is returned when neither a URL nor an instance is set.
var ErrNotConfigured = errors.New("neither DATABASE_URL nor INSTANCE_CONNECTION_NAME is set")

// socketPath is where Cloud Run mounts a Cloud SQL instance.
func socketPath(instance string) string {
	return fmt.Sprintf("/cloudsql/%s", instance)
}

// BuildDatabaseURL returns the DSN for cfg. A direct URL wins over Cloud SQL
// settings. Without a password the DSN relies on IAM authentication.
func BuildDatabaseURL(cfg config.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}
	if cfg.InstanceName == "" {
		return "", ErrNotConfigured
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", fmt.Errorf("DB_USER and DB_NAME must be set when using INSTANCE_CONNECTION_NAME")
	}

	if cfg.Password != "" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
			socketPath(cfg.InstanceName), cfg.User, cfg.Password, cfg.Name), nil
	}
	return fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable",
		socketPath(cfg.InstanceName), cfg.User, cfg.Name), nil
}

// Describe summarises cfg for logging with credentials redacted.
func Describe(cfg config.DatabaseConfig) map[string]string {
	switch {
	case cfg.URL != "":
		return map[string]string{
			"connection_type": "direct",
			"database_url":    redactPassword(cfg.URL),
		}
	case cfg.InstanceName != "":
		return map[string]string{
			"connection_type": "cloud_sql",
			"instance":        cfg.InstanceName,
			"user":            cfg.User,
			"database":        cfg.Name,
			"socket_path":     socketPath(cfg.InstanceName),
		}
	default:
		return map[string]string{"connection_type": "none"}
	}
}

// redactPassword masks the password of a postgres:// URL.
func redactPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgresql://") || strings.HasPrefix(connStr, "postgres://") {
		parts := strings.SplitN(connStr, "@", 2)
		if len(parts) == 2 {
			userParts := strings.Split(parts[0], ":")
			if len(userParts) >= 3 {
				return userParts[0] + ":" + userParts[1] + ":***@" + parts[1]
			}
		}
	}
	return connStr
}
