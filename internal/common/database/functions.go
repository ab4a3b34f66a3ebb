package database

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/benchsuite/configuration"
)

// CreateConnectionString builds a libpq-style connection string from key-value
// pairs. Keys are sorted so the result is deterministic.
// https://www.postgresql.org/docs/10/libpq-connect.html#id-1.7.3.8.3.5
func CreateConnectionString(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"='"+replacer.Replace(values[k])+"'")
	}
	return strings.Join(pairs, " ")
}

// OpenPgxPool connects a pgx pool and verifies the connection with a ping.
func OpenPgxPool(config configuration.PostgresConfig) (*pgxpool.Pool, error) {
	db, err := pgxpool.Connect(context.Background(), CreateConnectionString(config.Connection))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := db.Ping(context.Background()); err != nil {
		db.Close()
		return nil, errors.WithStack(err)
	}
	return db, nil
}
