package sqlstore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lib/pq"
)

// Dialect selects SQL flavour differences
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// ParseDialect maps a database/sql driver name to a dialect
func ParseDialect(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %q", driver)
	}
}

// DriverName is the registered database/sql driver for the dialect
func (d Dialect) DriverName() string {
	return string(d)
}

// queryArgs accumulates positional arguments while a query is assembled
type queryArgs struct {
	dialect Dialect
	values  []interface{}
}

func newQueryArgs(d Dialect) *queryArgs {
	return &queryArgs{dialect: d}
}

// add binds v and returns its placeholder
func (a *queryArgs) add(v interface{}) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// in renders "column is one of ids" with ids bound as a single argument
func (a *queryArgs) in(column string, ids []int64) string {
	if ids == nil {
		ids = []int64{}
	}

	switch a.dialect {
	case SQLite:
		encoded, _ := json.Marshal(ids)
		return column + " IN (SELECT value FROM json_each(" + a.add(string(encoded)) + "))"
	default:
		return column + " = ANY(" + a.add(pq.Array(ids)) + ")"
	}
}
