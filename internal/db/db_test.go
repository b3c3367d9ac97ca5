package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	conn, err := Connect(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	before, err := Status(conn)
	require.NoError(t, err)
	assert.True(t, before.Pending)
	assert.Equal(t, uint(2), before.LatestVersion)

	require.NoError(t, Migrate(conn))
	// Running again is a no-op.
	require.NoError(t, Migrate(conn))

	after, err := Status(conn)
	require.NoError(t, err)
	assert.False(t, after.Pending)
	assert.False(t, after.Dirty)
	assert.Equal(t, after.LatestVersion, after.CurrentVersion)

	for _, table := range []string{"companies", "communications", "communication_methods"} {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var methods int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM communication_methods").Scan(&methods))
	assert.Equal(t, 5, methods)
}

func TestForeignKeysCascade(t *testing.T) {
	conn, err := Connect(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, Migrate(conn))

	res, err := conn.Exec("INSERT INTO companies (name) VALUES ('Acme')")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = conn.Exec(
		"INSERT INTO communications (id, company_id, seq, type, date) VALUES ('c1', ?, 1, 'Email', '2024-01-01')", id)
	require.NoError(t, err)

	_, err = conn.Exec("DELETE FROM companies WHERE id = ?", id)
	require.NoError(t, err)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM communications").Scan(&count))
	assert.Zero(t, count)

	_, err = conn.Exec(
		"INSERT INTO communications (id, company_id, seq, type, date) VALUES ('c2', 999, 1, 'Email', '2024-01-01')")
	assert.Error(t, err)
}

func TestOpenShared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.sqlite")
	t.Cleanup(func() { Close() })

	first, err := OpenAndMigrate(path)
	require.NoError(t, err)
	second, err := Open(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, Get())

	status, err := GetMigrationStatus()
	require.NoError(t, err)
	assert.False(t, status.Pending)

	require.NoError(t, Close())
	assert.Nil(t, Get())
	_, err = GetMigrationStatus()
	assert.Error(t, err)
}
