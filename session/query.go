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
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomoncle/unitofwork/types"
	"github.com/uptrace/bun"
)

type bunQuery[T any] struct {
	session   Session
	relations []string
	filters   []*types.QueryFilter
	orders    []string
	offset    int
	limit     int
}

var _ Queryable[struct{}] = (*bunQuery[struct{}])(nil)

func (q *bunQuery[T]) clone() *bunQuery[T] {
	c := *q
	c.relations = append([]string(nil), q.relations...)
	c.filters = append([]*types.QueryFilter(nil), q.filters...)
	c.orders = append([]string(nil), q.orders...)
	return &c
}

// Include eager-loads the named Bun relation, e.g. "Customer" or "Addresses".
func (q *bunQuery[T]) Include(relation string) Queryable[T] {
	c := q.clone()
	if relation != "" {
		c.relations = append(c.relations, relation)
	}
	return c
}

// Where adds filter with AND. Empty filters are ignored.
func (q *bunQuery[T]) Where(filter *types.QueryFilter) Queryable[T] {
	c := q.clone()
	if !filter.IsEmpty() {
		c.filters = append(c.filters, filter)
	}
	return c
}

// OrderBy appends raw ORDER BY expressions such as "?TableAlias.id DESC".
func (q *bunQuery[T]) OrderBy(orders ...string) Queryable[T] {
	c := q.clone()
	for _, order := range orders {
		if order != "" {
			c.orders = append(c.orders, order)
		}
	}
	return c
}

func (q *bunQuery[T]) Skip(n int) Queryable[T] {
	c := q.clone()
	if n < 0 {
		n = 0
	}
	c.offset = n
	return c
}

func (q *bunQuery[T]) Take(n int) Queryable[T] {
	c := q.clone()
	if n < 0 {
		n = 0
	}
	c.limit = n
	return c
}

func (q *bunQuery[T]) build(model interface{}) *bun.SelectQuery {
	query := q.session.DB().NewSelect().Model(model)
	for _, relation := range q.relations {
		query = query.Relation(relation)
	}
	for _, filter := range q.filters {
		query = query.Where(filter.Schema, filter.Args...)
	}
	for _, order := range q.orders {
		query = query.OrderExpr(order)
	}
	if q.offset > 0 {
		query = query.Offset(q.offset)
	}
	if q.limit > 0 {
		query = query.Limit(q.limit)
	}
	return query
}

func (q *bunQuery[T]) ToList(ctx context.Context) ([]*T, error) {
	if err := checkOpen(q.session); err != nil {
		return nil, err
	}
	ctx, cancel := q.session.CommandContext(ctx)
	defer cancel()

	entities := make([]*T, 0)
	if err := q.build(&entities).Scan(ctx); err != nil {
		return nil, fmt.Errorf("query %T: %w", (*T)(nil), err)
	}
	return entities, nil
}

func (q *bunQuery[T]) First(ctx context.Context) (*T, error) {
	if err := checkOpen(q.session); err != nil {
		return nil, err
	}
	ctx, cancel := q.session.CommandContext(ctx)
	defer cancel()

	entity := new(T)
	err := q.build(entity).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query first %T: %w", entity, err)
	}
	return entity, nil
}

func (q *bunQuery[T]) Any(ctx context.Context) (bool, error) {
	if err := checkOpen(q.session); err != nil {
		return false, err
	}
	ctx, cancel := q.session.CommandContext(ctx)
	defer cancel()

	exists, err := q.build((*T)(nil)).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("query any %T: %w", (*T)(nil), err)
	}
	return exists, nil
}

func (q *bunQuery[T]) Count(ctx context.Context) (int, error) {
	if err := checkOpen(q.session); err != nil {
		return 0, err
	}
	ctx, cancel := q.session.CommandContext(ctx)
	defer cancel()

	count, err := q.build((*T)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("query count %T: %w", (*T)(nil), err)
	}
	return count, nil
}
