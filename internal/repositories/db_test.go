package repositories

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// statement is one SQL statement built by gorm, with its bind values.
type statement struct {
	SQL  string
	Vars []interface{}
}

var (
	insertColumnsRe = regexp.MustCompile(`INSERT INTO "[^"]+" \(([^)]*)\)`)
	doUpdateRe      = regexp.MustCompile(`"(\w+)"="excluded"\."\w+"`)
)

// newDryRunDB returns a postgres-dialect session that builds statements
// without a server, and the statements it has built so far.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]statement) {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=postgres dbname=payhook sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	var built []statement
	capture := func(tx *gorm.DB) {
		built = append(built, statement{
			SQL:  tx.Statement.SQL.String(),
			Vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", capture))
	return db, &built
}

// insertColumns lists the columns of an INSERT statement in bind order.
func insertColumns(t *testing.T, sql string) []string {
	t.Helper()
	m := insertColumnsRe.FindStringSubmatch(sql)
	require.Len(t, m, 2, "not an insert: %s", sql)
	cols := strings.Split(m[1], ",")
	for i, c := range cols {
		cols[i] = strings.Trim(strings.TrimSpace(c), `"`)
	}
	return cols
}

// insertValue returns the bind value of column in a single-row INSERT.
func insertValue(t *testing.T, st statement, column string) interface{} {
	t.Helper()
	cols := insertColumns(t, st.SQL)
	for i, c := range cols {
		if c == column {
			require.Less(t, i, len(st.Vars))
			return st.Vars[i]
		}
	}
	t.Fatalf("column %s not inserted: %s", column, st.SQL)
	return nil
}

// conflictUpdates lists the columns overwritten by ON CONFLICT DO UPDATE.
func conflictUpdates(sql string) []string {
	var cols []string
	for _, m := range doUpdateRe.FindAllStringSubmatch(sql, -1) {
		cols = append(cols, m[1])
	}
	return cols
}

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(map[string]interface{}{"status": 1, "currency": 2, "payer_id": 3})
	assert.Equal(t, []string{"currency", "payer_id", "status"}, keys)
	assert.Empty(t, sortedKeys(map[string]interface{}{}))
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), time.Second)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)

	ctx, cancel = withTimeout(context.Background(), 0)
	_, ok = ctx.Deadline()
	assert.False(t, ok)
	cancel()
	assert.Error(t, ctx.Err())
}
