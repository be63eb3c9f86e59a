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
	"errors"
	"sync"

	"github.com/tomoncle/unitofwork/database"
	"github.com/tomoncle/unitofwork/repository"
	"github.com/tomoncle/unitofwork/session"
	"github.com/tomoncle/unitofwork/types"
	"github.com/uptrace/bun"
)

// ErrDatabaseNotInitialized is returned by a Service when no database is available.
var ErrDatabaseNotInitialized = errors.New("database not initialized")

type Service[T any] interface {
	// Get returns a single entity by its primary key, or nil.
	Get(ctx context.Context, id any) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// Find returns entities that match the provided filter.
	Find(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// FindFirst returns the first match with the named relations loaded, or nil.
	FindFirst(ctx context.Context, filter *types.QueryFilter, includes ...string) (*T, error)

	// Exists reports whether any entity matches the filter.
	Exists(ctx context.Context, filter *types.QueryFilter) (bool, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) (int, error)

	// Update writes an existing entity by primary key.
	Update(ctx context.Context, model *T) (int, error)

	// Delete removes entities by primary key.
	Delete(ctx context.Context, model ...*T) (int, error)

	// DeleteAll removes every entity.
	DeleteAll(ctx context.Context) (int, error)
}

type baseServiceImpl[T any] struct {
	db   *bun.DB
	opts []session.Option
	mu   sync.Mutex
}

// NewService returns a Service backed by the global database connection.
// The connection is bound on the first call that finds it initialized.
func NewService[T any](opts ...session.Option) Service[T] {
	return &baseServiceImpl[T]{opts: opts}
}

// NewServiceWithDB returns a Service backed by db.
func NewServiceWithDB[T any](db *bun.DB, opts ...session.Option) Service[T] {
	return &baseServiceImpl[T]{db: db, opts: opts}
}

func (s *baseServiceImpl[T]) getDB() *bun.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		s.db = database.GetDB()
	}
	return s.db
}

func (s *baseServiceImpl[T]) newUnitOfWork() (UnitOfWork, error) {
	db := s.getDB()
	if db == nil {
		return nil, ErrDatabaseNotInitialized
	}
	opts := []session.Option{session.WithCommandTimeout(database.CommandTimeout())}
	if cfg := database.GetConfig(); cfg != nil && cfg.ConnectionConfig.EnableMetrics {
		opts = append(opts, session.WithMetrics(database.DefaultMetrics()))
	}
	return New(session.New(db, append(opts, s.opts...)...)), nil
}

func query[T, R any](s *baseServiceImpl[T], fn func(repository.Repository[T]) (R, error)) (R, error) {
	uow, err := s.newUnitOfWork()
	if err != nil {
		var zero R
		return zero, err
	}
	defer uow.Close()
	return fn(repository.NewRepository[T](uow.Session()))
}

func commit[T any](ctx context.Context, s *baseServiceImpl[T], stage func(repository.Repository[T]) error) (int, error) {
	uow, err := s.newUnitOfWork()
	if err != nil {
		return 0, err
	}
	defer uow.Close()
	if err := stage(repository.NewRepository[T](uow.Session())); err != nil {
		return 0, err
	}
	return uow.Complete(ctx)
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return query(s, func(repo repository.Repository[T]) (*T, error) {
		return repo.GetByID(ctx, id)
	})
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return query(s, func(repo repository.Repository[T]) ([]*T, error) {
		return repo.GetAll(ctx)
	})
}

func (s *baseServiceImpl[T]) Find(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return query(s, func(repo repository.Repository[T]) ([]*T, error) {
		return repo.Find(ctx, filter)
	})
}

func (s *baseServiceImpl[T]) FindFirst(ctx context.Context, filter *types.QueryFilter, includes ...string) (*T, error) {
	return query(s, func(repo repository.Repository[T]) (*T, error) {
		return repo.FindFirst(ctx, filter, includes)
	})
}

func (s *baseServiceImpl[T]) Exists(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	return query(s, func(repo repository.Repository[T]) (bool, error) {
		return repo.DoesExist(ctx, filter)
	})
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return query(s, func(repo repository.Repository[T]) (*types.Pagination[T], error) {
		return repo.Page(ctx, page)
	})
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) (int, error) {
	return commit(ctx, s, func(repo repository.Repository[T]) error {
		repo.AddRange(model...)
		return nil
	})
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) (int, error) {
	return commit(ctx, s, func(repo repository.Repository[T]) error {
		repo.Update(model)
		return nil
	})
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, model ...*T) (int, error) {
	return commit(ctx, s, func(repo repository.Repository[T]) error {
		repo.RemoveRange(model...)
		return nil
	})
}

func (s *baseServiceImpl[T]) DeleteAll(ctx context.Context) (int, error) {
	return commit(ctx, s, func(repo repository.Repository[T]) error {
		return repo.RemoveAll(ctx)
	})
}
