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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomoncle/unitofwork/utils"
	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config
	DB            *bun.DB
)

func factory() *BaseDatabaseFactory {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalFactory
}

// GetDB returns the global Bun database instance.
func GetDB() *bun.DB {
	if f := factory(); f != nil {
		return f.GetDB()
	}
	globalMu.RLock()
	defer globalMu.RUnlock()
	return DB
}

// GetDatabaseManager returns the global database manager.
func GetDatabaseManager() AbstractDatabaseManager {
	if f := factory(); f != nil {
		return f.GetManager()
	}
	return nil
}

// GetDatabaseFactory returns the global database factory.
func GetDatabaseFactory() *BaseDatabaseFactory {
	return factory()
}

// InitDB initializes the global database using the provided configuration.
// Missing tables of registered models are created when
// SchemaConfig.EnsureCreatedOnStartup is set; DB_ENSURE_CREATED overrides it.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	return InitDatabaseWithOptions(cfg, ensureCreated(cfg))
}

func ensureCreated(cfg *Config) bool {
	return utils.EnvDefaultBool("DB_ENSURE_CREATED", cfg.SchemaConfig.EnsureCreatedOnStartup)
}

// InitDatabaseWithOptions initializes the database and optionally ensures the schema.
func InitDatabaseWithOptions(cfg *Config, ensureSchema bool) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	f := NewDatabaseFactory()
	manager, err := f.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	ctx := context.Background()
	if err := f.InitializeDatabase(ctx, ensureSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db := manager.GetDB()
	db.RegisterModel(RegisteredModelInstances()...)

	globalMu.Lock()
	globalFactory = f
	globalConfig = cfg
	DB = db
	globalMu.Unlock()
	return db, nil
}

// GetConfig returns the configuration passed to InitDB, or nil.
func GetConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// CommandTimeout returns the configured default command timeout of the
// global database, or 0 when none is configured.
func CommandTimeout() time.Duration {
	cfg := GetConfig()
	if cfg == nil {
		return 0
	}
	return cfg.ConnectionConfig.CommandTimeout
}

// CloseDB closes the global database connection.
func CloseDB() error {
	if f := factory(); f != nil {
		return f.Close()
	}
	return nil
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if f := factory(); f != nil {
		return f.GetHealthStatus(ctx)
	}
	return &HealthStatus{
		Healthy:   false,
		Connected: false,
		LastError: "Database not initialized",
	}
}

// GetDatabaseStats returns global database statistics.
func GetDatabaseStats() *DBStats {
	if f := factory(); f != nil {
		return f.GetStats()
	}
	return &DBStats{}
}

// EnsureSchema creates the missing tables of registered models on the global database.
func EnsureSchema(ctx context.Context) (bool, error) {
	manager := GetDatabaseManager()
	if manager == nil {
		return false, fmt.Errorf("database not initialized")
	}
	return manager.EnsureSchema(ctx)
}
