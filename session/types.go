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
	"io"
	"time"

	"github.com/tomoncle/unitofwork/types"
	"github.com/uptrace/bun"
)

// DatabaseFacade is the narrow view of a session's database settings.
type DatabaseFacade interface {
	// CommandTimeout returns the timeout applied to each command, 0 when none is set.
	CommandTimeout() time.Duration

	// SetCommandTimeout replaces the command timeout; 0 clears the override.
	SetCommandTimeout(timeout time.Duration)

	// EnsureCreated creates the missing tables of the session's models and
	// reports whether any table was created.
	EnsureCreated(ctx context.Context) (bool, error)

	// OpenConnection checks that a pooled connection can be established.
	OpenConnection(ctx context.Context) error
}

// Session is a single logical interaction with the database. It is not
// safe for use by concurrent logical operations.
type Session interface {
	io.Closer

	ID() string
	Database() DatabaseFacade
	DB() *bun.DB
	Tracker() *ChangeTracker

	// Entry returns the tracking state of entity.
	Entry(entity any) EntityEntry

	// CommandContext derives a context bounded by the current command timeout.
	CommandContext(ctx context.Context) (context.Context, context.CancelFunc)

	// SaveChanges writes all tracked changes in one transaction and returns
	// the number of affected rows.
	SaveChanges(ctx context.Context) (int, error)
	SaveChangesAsync(ctx context.Context) *types.Future[int]
}

// EntitySet is the queryable, mutable collection of one entity type.
// Mutations are staged in the session's change tracker and are ignored once
// the session is closed.
type EntitySet[T any] interface {
	// Find looks T up by its primary key and returns nil when absent.
	Find(ctx context.Context, key any) (*T, error)
	Query() Queryable[T]

	Add(entity *T)
	AddRange(entities []*T)
	Update(entity *T)
	Remove(entity *T)
	RemoveRange(entities []*T)
}

// Queryable builds a select over one entity type. Builder methods return a
// new value and leave the receiver unchanged.
type Queryable[T any] interface {
	Include(relation string) Queryable[T]
	Where(filter *types.QueryFilter) Queryable[T]
	OrderBy(orders ...string) Queryable[T]
	Skip(n int) Queryable[T]
	Take(n int) Queryable[T]

	ToList(ctx context.Context) ([]*T, error)
	// First returns the first match, or nil when nothing matches.
	First(ctx context.Context) (*T, error)
	Any(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
}
