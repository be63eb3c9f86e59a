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

package unitofwork

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/unitofwork/database"
	"github.com/tomoncle/unitofwork/internal/fixtures"
	"github.com/tomoncle/unitofwork/session"
	"github.com/tomoncle/unitofwork/types"
)

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	db := fixtures.NewTestDBWithSeed(t)
	customers := NewServiceWithDB[fixtures.Customer](db, session.WithLogger(database.NopLogger{}))
	addresses := NewServiceWithDB[fixtures.Address](db, session.WithLogger(database.NopLogger{}))

	ann := &fixtures.Customer{FirstName: "Ann", LastName: "Lee"}
	n, err := customers.Save(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NotZero(t, ann.ID)

	got, err := customers.Get(ctx, ann.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann", got.FirstName)

	got.LastName = "Smith"
	n, err = customers.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found, err := customers.Find(ctx, types.NewQueryFilter("?TableAlias.last_name = ?", "Smith"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ann.ID, found[0].ID)

	address, err := addresses.FindFirst(ctx, types.NewQueryFilter("?TableAlias.street = ?", "123 Main Street"), "Customer")
	require.NoError(t, err)
	require.NotNil(t, address)
	require.NotNil(t, address.Customer)
	assert.Equal(t, "John", address.Customer.FirstName)

	exists, err := addresses.Exists(ctx, types.NewQueryFilter("?TableAlias.id = ?", 2))
	require.NoError(t, err)
	assert.True(t, exists)

	page, err := customers.Page(ctx, types.NewDefaultPageRequest(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	n, err = customers.Delete(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := customers.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err = addresses.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestService_WithoutDatabase(t *testing.T) {
	svc := NewService[fixtures.Customer]()

	_, err := svc.All(context.Background())
	assert.ErrorIs(t, err, ErrDatabaseNotInitialized)

	_, err = svc.Save(context.Background(), &fixtures.Customer{FirstName: "Ann"})
	assert.ErrorIs(t, err, ErrDatabaseNotInitialized)
}

func TestService_BindsDatabaseInitializedLater(t *testing.T) {
	ctx := context.Background()
	svc := NewService[fixtures.Customer](session.WithLogger(database.NopLogger{}))

	_, err := svc.All(ctx)
	require.ErrorIs(t, err, ErrDatabaseNotInitialized)

	database.RegisterModels(fixtures.Models()...)
	cfg := &database.Config{ConnectionConfig: *database.DefaultConnectionConfig()}
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = ":memory:"
	cfg.ConnectionConfig.MaxOpenConns = 1
	cfg.ConnectionConfig.MaxIdleConns = 1
	cfg.ConnectionConfig.ConnMaxLifetime = 0
	cfg.ConnectionConfig.ConnMaxIdleTime = 0
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.ConnectionConfig.CommandTimeout = 5 * time.Second

	_, err = database.InitDatabaseWithOptions(cfg, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	n, err := svc.Save(ctx, &fixtures.Customer{FirstName: "Ann", LastName: "Lee"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ann", all[0].FirstName)
}
