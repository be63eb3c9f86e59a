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

package repository

import (
	"context"

	"github.com/tomoncle/unitofwork/session"
	"github.com/tomoncle/unitofwork/types"
)

// ReadRepository defines lookups for a generic entity type. Single-entity
// lookups return nil when nothing matches.
type ReadRepository[T any] interface {
	GetByID(ctx context.Context, id any) (*T, error)
	GetByIDAsync(ctx context.Context, id any) *types.Future[*T]

	GetAll(ctx context.Context) ([]*T, error)
	GetAllAsync(ctx context.Context) *types.Future[[]*T]

	Find(ctx context.Context, filter *types.QueryFilter) ([]*T, error)
	FindAsync(ctx context.Context, filter *types.QueryFilter) *types.Future[[]*T]

	// FindFirst eager-loads includes in order and returns the first match.
	FindFirst(ctx context.Context, filter *types.QueryFilter, includes []string) (*T, error)
	FindFirstAsync(ctx context.Context, filter *types.QueryFilter, includes []string) *types.Future[*T]

	DoesExist(ctx context.Context, filter *types.QueryFilter) (bool, error)
	DoesExistAsync(ctx context.Context, filter *types.QueryFilter) *types.Future[bool]
}

// WriteRepository stages changes in the session. Nothing is written until
// the unit of work completes.
type WriteRepository[T any] interface {
	Add(entity *T) *T
	AddRange(entities ...*T)
	Update(entity *T)
	Remove(entity *T)
	RemoveRange(entities ...*T)

	// RemoveAll loads every entity and stages them for deletion.
	RemoveAll(ctx context.Context) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines lookups, staged writes, and pagination over one
// entity set.
type Repository[T any] interface {
	ReadRepository[T]
	WriteRepository[T]
	PageQueryRepository[T]
	Set() session.EntitySet[T]
}
