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
	"reflect"

	"github.com/uptrace/bun"
)

type bunSet[T any] struct {
	session Session
}

var _ EntitySet[struct{}] = (*bunSet[struct{}])(nil)

// Set returns the entity set of T within s.
func Set[T any](s Session) EntitySet[T] {
	return &bunSet[T]{session: s}
}

func (es *bunSet[T]) Find(ctx context.Context, key any) (*T, error) {
	if err := checkOpen(es.session); err != nil {
		return nil, err
	}
	db := es.session.DB()
	table := db.Table(reflect.TypeOf((*T)(nil)).Elem())
	switch len(table.PKs) {
	case 0:
		return nil, fmt.Errorf("find %s: %w", table.TypeName, ErrNoPrimaryKey)
	case 1:
	default:
		return nil, fmt.Errorf("find %s: %w", table.TypeName, ErrCompositeKey)
	}

	ctx, cancel := es.session.CommandContext(ctx)
	defer cancel()

	entity := new(T)
	err := db.NewSelect().
		Model(entity).
		Where("?TableAlias.? = ?", bun.Ident(table.PKs[0].Name), key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table.TypeName, err)
	}
	return entity, nil
}

func (es *bunSet[T]) Query() Queryable[T] {
	return &bunQuery[T]{session: es.session}
}

func (es *bunSet[T]) Add(entity *T) {
	if es.staging(entity) {
		es.session.Tracker().Add(entity)
	}
}

func (es *bunSet[T]) AddRange(entities []*T) {
	for _, entity := range entities {
		es.Add(entity)
	}
}

func (es *bunSet[T]) Update(entity *T) {
	if es.staging(entity) {
		es.session.Tracker().Update(entity)
	}
}

func (es *bunSet[T]) Remove(entity *T) {
	if es.staging(entity) {
		es.session.Tracker().Remove(entity)
	}
}

func (es *bunSet[T]) RemoveRange(entities []*T) {
	for _, entity := range entities {
		es.Remove(entity)
	}
}

// staging reports whether entity may be staged. Staging on a closed session
// is ignored.
func (es *bunSet[T]) staging(entity *T) bool {
	return entity != nil && checkOpen(es.session) == nil
}

func checkOpen(s Session) error {
	if c, ok := s.(interface{ isClosed() bool }); ok && c.isClosed() {
		return ErrSessionClosed
	}
	return nil
}
