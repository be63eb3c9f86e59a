/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
connection:
  type: sqlite
  dbname: ":memory:"
  max_open_conns: 1
  command_timeout: 30s
  slow_query_time: 500ms
  enable_metrics: true
schema:
  ensure_created_on_startup: true
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	conn := cfg.ConnectionConfig
	assert.Equal(t, "sqlite", conn.Type)
	assert.Equal(t, ":memory:", conn.DBName)
	assert.Equal(t, 1, conn.MaxOpenConns)
	assert.Equal(t, 30*time.Second, conn.CommandTimeout)
	assert.Equal(t, 500*time.Millisecond, conn.SlowQueryTime)
	assert.True(t, conn.EnableMetrics)
	assert.True(t, cfg.SchemaConfig.EnsureCreatedOnStartup)

	// defaults survive when the file leaves a field out
	assert.Equal(t, 10, conn.MaxIdleConns)
	assert.Equal(t, 10*time.Second, conn.ConnectTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection: [unterminated"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestFactory_OverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USERNAME", "app")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_CONN_MAX_LIFETIME", "60")
	t.Setenv("DB_ENABLE_RECONNECT", "true")
	t.Setenv("DB_COMMAND_TIMEOUT", "15")
	t.Setenv("DB_ENABLE_QUERY_LOG", "1")
	t.Setenv("DB_ENABLE_METRICS", "true")
	t.Setenv("DB_COLOR_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	NewDatabaseFactory().overrideFromEnv(cfg)

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "app", cfg.Username)
	assert.Equal(t, 7, cfg.MaxOpenConns)
	assert.Equal(t, time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableReconnect)
	assert.Equal(t, 15*time.Second, cfg.CommandTimeout)
	assert.True(t, cfg.EnableQueryLog)
	assert.True(t, cfg.EnableMetrics)
	assert.True(t, cfg.ColorQueryLog)
}

func TestFactory_OverrideFromEnv_KeepsConfigOnBadValues(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("DB_MAX_IDLE_CONNS", "-3")
	t.Setenv("DB_COMMAND_TIMEOUT", "-1")
	t.Setenv("DB_HOST", "  ")

	cfg := DefaultConnectionConfig()
	cfg.Host = "localhost"
	cfg.Port = 5432
	cfg.CommandTimeout = 30 * time.Second
	NewDatabaseFactory().overrideFromEnv(cfg)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
}

func TestEnsureCreated_Env(t *testing.T) {
	cfg := &Config{SchemaConfig: SchemaConfig{EnsureCreatedOnStartup: false}}
	assert.False(t, ensureCreated(cfg))

	t.Setenv("DB_ENSURE_CREATED", "true")
	assert.True(t, ensureCreated(cfg))

	cfg.SchemaConfig.EnsureCreatedOnStartup = true
	t.Setenv("DB_ENSURE_CREATED", "false")
	assert.False(t, ensureCreated(cfg))
}

func TestFactory_CreateFromConfig(t *testing.T) {
	f := NewDatabaseFactory()
	f.SetLogger(NopLogger{})

	_, err := f.CreateFromConfig(nil)
	assert.Error(t, err)

	_, err = f.CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")

	manager, err := f.CreateFromConfig(&ConnectionConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	assert.Same(t, manager, f.GetManager())
	assert.Nil(t, f.GetDB())
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "file::memory:", sqliteDSN(""))
	assert.Equal(t, "file:test.db?cache=shared", sqliteDSN("file:test.db?cache=shared"))
	assert.Equal(t, "app.db", sqliteDSN("app"))
}
