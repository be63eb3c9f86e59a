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

// Package fixtures holds the Bun models and the in-memory SQLite database
// shared by the package tests.
package fixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/unitofwork/database"
	"github.com/uptrace/bun"
)

// Customer owns zero or more addresses.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:customer"`

	ID                   int64      `bun:"id,pk,autoincrement"`
	FirstName            string     `bun:"first_name,notnull"`
	LastName             string     `bun:"last_name,notnull"`
	SocialSecurityNumber string     `bun:"social_security_number"`
	IsRevoked            bool       `bun:"is_revoked,notnull"`
	Addresses            []*Address `bun:"rel:has-many,join:id=customer_id"`
}

// Address belongs to exactly one customer.
type Address struct {
	bun.BaseModel `bun:"table:addresses,alias:address"`

	ID         int64     `bun:"id,pk,autoincrement"`
	CustomerID int64     `bun:"customer_id,notnull"`
	Street     string    `bun:"street,notnull"`
	City       string    `bun:"city"`
	State      string    `bun:"state"`
	ZipCode    string    `bun:"zip_code"`
	Customer   *Customer `bun:"rel:belongs-to,join:customer_id=id"`
}

// Models returns the fixture models in table creation order.
func Models() []interface{} {
	return []interface{}{(*Customer)(nil), (*Address)(nil)}
}

// NewTestDB opens a private in-memory SQLite database through the database
// manager. A single pooled connection keeps the in-memory data alive.
func NewTestDB(t testing.TB) *bun.DB {
	t.Helper()

	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = ":memory:"
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = 0
	cfg.ConnMaxIdleTime = 0
	cfg.HealthCheckInterval = 0
	cfg.EnableReconnect = false
	cfg.SlowQueryTime = 0

	manager := database.NewDatabaseManager(cfg)
	manager.SetLogger(database.NopLogger{})
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })

	db := manager.GetDB()
	db.RegisterModel(Models()...)
	return db
}

// CreateSchema creates the customers and addresses tables.
func CreateSchema(t testing.TB, db bun.IDB) {
	t.Helper()
	_, err := database.EnsureTables(context.Background(), db, Models(), nil)
	require.NoError(t, err)
}

// Seed creates the schema and inserts two customers with one address each:
// customer 6 "John Doe" at "123 Main Street" (address 1) and customer 5
// "Joe Jones" at "456 Sunset Blvd." (address 2).
func Seed(t testing.TB, db bun.IDB) {
	t.Helper()
	CreateSchema(t, db)

	ctx := context.Background()
	customers := []*Customer{
		{ID: 5, FirstName: "Joe", LastName: "Jones", SocialSecurityNumber: "987-65-4321"},
		{ID: 6, FirstName: "John", LastName: "Doe", SocialSecurityNumber: "123-45-6789"},
	}
	_, err := db.NewInsert().Model(&customers).Exec(ctx)
	require.NoError(t, err)

	addresses := []*Address{
		{ID: 1, CustomerID: 6, Street: "123 Main Street", City: "Walker", State: "LA", ZipCode: "70785"},
		{ID: 2, CustomerID: 5, Street: "456 Sunset Blvd.", City: "Baton Rouge", State: "LA", ZipCode: "70816"},
	}
	_, err = db.NewInsert().Model(&addresses).Exec(ctx)
	require.NoError(t, err)
}

// NewTestDBWithSeed is NewTestDB followed by Seed.
func NewTestDBWithSeed(t testing.TB) *bun.DB {
	t.Helper()
	db := NewTestDB(t)
	Seed(t, db)
	return db
}
