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

package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomoncle/unitofwork/database"
	"github.com/uptrace/bun"
)

type bunFacade struct {
	db      *bun.DB
	timeout atomic.Int64
	models  []interface{}
	logger  database.Logger
}

var _ DatabaseFacade = (*bunFacade)(nil)

// NewDatabaseFacade returns a DatabaseFacade over db. When models is empty,
// EnsureCreated uses the models registered with the database package.
func NewDatabaseFacade(db *bun.DB, timeout time.Duration, models []interface{}, logger database.Logger) DatabaseFacade {
	return newBunFacade(db, timeout, models, logger)
}

func newBunFacade(db *bun.DB, timeout time.Duration, models []interface{}, logger database.Logger) *bunFacade {
	if logger == nil {
		logger = database.NopLogger{}
	}
	f := &bunFacade{db: db, models: models, logger: logger}
	f.SetCommandTimeout(timeout)
	return f
}

func (f *bunFacade) CommandTimeout() time.Duration {
	return time.Duration(f.timeout.Load())
}

func (f *bunFacade) SetCommandTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = 0
	}
	f.timeout.Store(int64(timeout))
}

func (f *bunFacade) EnsureCreated(ctx context.Context) (bool, error) {
	models := f.models
	if len(models) == 0 {
		models = database.RegisteredModelInstances()
	}
	created, err := database.EnsureTables(ctx, f.db, models, f.logger)
	if err != nil {
		return created, fmt.Errorf("ensure created: %w", err)
	}
	return created, nil
}

func (f *bunFacade) OpenConnection(ctx context.Context) error {
	if err := f.db.PingContext(ctx); err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	return nil
}
