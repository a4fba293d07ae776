package db

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/padraicbc/rungroop/models"
)

func TestRaceTableUsesTextForLongColumns(t *testing.T) {
	// Nothing listens on port 1; the dialect only needs a handle to render DDL.
	mysqlDB, err := sql.Open("mysql", "rungroop:x@tcp(127.0.0.1:1)/rungroop?timeout=200ms")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlDB.Close() })

	bdb := bun.NewDB(mysqlDB, mysqldialect.New())
	ddl := strings.ToUpper(bdb.NewCreateTable().Model((*models.Race)(nil)).String())

	for _, col := range []string{"DESCRIPTION", "IMAGE_URL", "IMAGE_PUBLIC_ID"} {
		assert.Contains(t, ddl, "`"+col+"` TEXT NOT NULL")
		assert.NotContains(t, ddl, "`"+col+"` VARCHAR")
	}
}
