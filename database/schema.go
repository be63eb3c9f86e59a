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
	"reflect"

	"github.com/uptrace/bun"
)

// TableExists checks the table of model with an EXISTS query. A "no such
// table" class error means false; any other error is returned.
func TableExists(ctx context.Context, db bun.IDB, model interface{}) (bool, error) {
	_, err := db.NewSelect().
		Model(model).
		Limit(1).
		Exists(ctx)
	if err == nil {
		return true, nil
	}
	if is, class := IsSqlError(err); is && class == NoTableErr {
		return false, nil
	}
	return false, err
}

// EnsureTables creates the missing tables of models in the given order and
// reports whether any table had to be created.
func EnsureTables(ctx context.Context, db bun.IDB, models []interface{}, logger Logger) (bool, error) {
	created := false
	for _, model := range models {
		exists, err := TableExists(ctx, db, model)
		if err != nil {
			return created, fmt.Errorf("failed to check table %s: %w", getModelName(model), err)
		}
		if exists {
			continue
		}
		_, err = db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return created, fmt.Errorf("failed to create table %s: %w", getModelName(model), err)
		}
		created = true
		if logger != nil {
			logger.Debug("Table created", "model", getModelName(model))
		}
	}
	return created, nil
}

func getModelName(model interface{}) string {
	t := reflect.TypeOf(model)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
