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
	"fmt"

	"github.com/tomoncle/unitofwork/session"
	"github.com/tomoncle/unitofwork/types"
)

type baseRepositoryImpl[T any] struct {
	set session.EntitySet[T]
}

// NewRepository returns a generic repository over the entity set of T in s.
func NewRepository[T any](s session.Session) Repository[T] {
	return NewSetRepository[T](session.Set[T](s))
}

// NewSetRepository returns a generic repository over any entity set.
func NewSetRepository[T any](set session.EntitySet[T]) Repository[T] {
	return &baseRepositoryImpl[T]{set: set}
}

func (r *baseRepositoryImpl[T]) Set() session.EntitySet[T] { return r.set }

func (r *baseRepositoryImpl[T]) GetByID(ctx context.Context, id any) (*T, error) {
	return r.set.Find(ctx, id)
}

func (r *baseRepositoryImpl[T]) GetByIDAsync(ctx context.Context, id any) *types.Future[*T] {
	return types.Go(func() (*T, error) { return r.GetByID(ctx, id) })
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.set.Query().ToList(ctx)
}

func (r *baseRepositoryImpl[T]) GetAllAsync(ctx context.Context) *types.Future[[]*T] {
	return types.Go(func() ([]*T, error) { return r.GetAll(ctx) })
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return r.set.Query().Where(filter).ToList(ctx)
}

func (r *baseRepositoryImpl[T]) FindAsync(ctx context.Context, filter *types.QueryFilter) *types.Future[[]*T] {
	return types.Go(func() ([]*T, error) { return r.Find(ctx, filter) })
}

func (r *baseRepositoryImpl[T]) FindFirst(ctx context.Context, filter *types.QueryFilter, includes []string) (*T, error) {
	query := r.set.Query()
	for _, include := range includes {
		query = query.Include(include)
	}
	return query.Where(filter).First(ctx)
}

func (r *baseRepositoryImpl[T]) FindFirstAsync(ctx context.Context, filter *types.QueryFilter, includes []string) *types.Future[*T] {
	return types.Go(func() (*T, error) { return r.FindFirst(ctx, filter, includes) })
}

func (r *baseRepositoryImpl[T]) DoesExist(ctx context.Context, filter *types.QueryFilter) (bool, error) {
	return r.set.Query().Where(filter).Any(ctx)
}

func (r *baseRepositoryImpl[T]) DoesExistAsync(ctx context.Context, filter *types.QueryFilter) *types.Future[bool] {
	return types.Go(func() (bool, error) { return r.DoesExist(ctx, filter) })
}

func (r *baseRepositoryImpl[T]) Add(entity *T) *T {
	r.set.Add(entity)
	return entity
}

func (r *baseRepositoryImpl[T]) AddRange(entities ...*T) {
	r.set.AddRange(entities)
}

func (r *baseRepositoryImpl[T]) Update(entity *T) {
	r.set.Update(entity)
}

func (r *baseRepositoryImpl[T]) Remove(entity *T) {
	r.set.Remove(entity)
}

func (r *baseRepositoryImpl[T]) RemoveRange(entities ...*T) {
	r.set.RemoveRange(entities)
}

func (r *baseRepositoryImpl[T]) RemoveAll(ctx context.Context) error {
	entities, err := r.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("remove all: %w", err)
	}
	r.set.RemoveRange(entities)
	return nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, 10)
	}
	query := r.set.Query().Where(pageRequest.GetFilter())
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return pagination, nil
	}
	items, err := query.
		OrderBy(pageRequest.GetOrders()...).
		Skip(pageRequest.GetOffset()).
		Take(pageRequest.GetPageSize()).
		ToList(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}
