package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chibbonta/Wchat/internal/models"
)

// marshalFields encodes the collected field map for a nullable column.
func marshalFields(fields map[string]string) (interface{}, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal session fields: %w", err)
	}
	return string(data), nil
}

// scanSession scans a session from a single row shared by both SQL backends.
func scanSession(row *sql.Row) (*models.Session, error) {
	var sess models.Session
	var mode, step string
	var fieldsJSON sql.NullString
	err := row.Scan(&sess.UserID, &mode, &step, &fieldsJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sess.Mode = models.Mode(mode)
	sess.Step = models.Step(step)
	if fieldsJSON.Valid && fieldsJSON.String != "" {
		if err := json.Unmarshal([]byte(fieldsJSON.String), &sess.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal session fields: %w", err)
		}
	}
	return &sess, nil
}

// DetectDSNType reports "postgres" for PostgreSQL-shaped connection strings
// and "sqlite" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}
