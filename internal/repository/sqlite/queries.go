package sqlite

import (
	_ "embed"
	"fmt"

	"github.com/qustavo/dotsql"
)

//go:embed queries.sql
var queriesSQL string

// queries holds the SQL text of every named statement in queries.sql.
// Resolving them once at startup means a typo in a "-- name:" tag fails
// sqlite.New instead of the first request that needs it.
type queries struct {
	listUsers   string
	getUserByID string
	createUser  string
	deleteUser  string
}

func loadQueries() (queries, error) {
	dot, err := dotsql.LoadFromString(queriesSQL)
	if err != nil {
		return queries{}, fmt.Errorf("parsing queries.sql: %w", err)
	}

	var q queries
	for name, dst := range map[string]*string{
		"list-users":     &q.listUsers,
		"get-user-by-id": &q.getUserByID,
		"create-user":    &q.createUser,
		"delete-user":    &q.deleteUser,
	} {
		raw, err := dot.Raw(name)
		if err != nil {
			return queries{}, fmt.Errorf("query %q: %w", name, err)
		}
		*dst = raw
	}
	return q, nil
}
