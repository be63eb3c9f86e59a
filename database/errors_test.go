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
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		is    bool
		class SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("find: %w", sql.ErrNoRows), true, NoRowsErr},
		{"pq undefined table", &pq.Error{Code: "42P01"}, true, NoTableErr},
		{"pq unique violation", fmt.Errorf("save: %w", &pq.Error{Code: "23505"}), true, DuplicateKeyErr},
		{"pq foreign key", &pq.Error{Code: "23503"}, true, ForeignKeyViolationErr},
		{"pq other", &pq.Error{Code: "08006"}, true, UnknownErr},
		{"mysql missing table", &mysql.MySQLError{Number: 1146}, true, NoTableErr},
		{"mysql table exists", &mysql.MySQLError{Number: 1050}, true, ExistTableErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, DuplicateKeyErr},
		{"sqlite missing table", errors.New("SQL logic error: no such table: customers (1)"), true, NoTableErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: customers.id (1555)"), true, DuplicateKeyErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: addresses.street"), true, NotNullViolationErr},
		{"postgres text", errors.New(`relation "customers" does not exist`), true, NoTableErr},
		{"unrelated", errors.New("connection refused"), false, UnknownErr},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is, class := IsSqlError(c.err)
			assert.Equal(t, c.is, is)
			assert.Equal(t, c.class, class)
		})
	}
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "", ClassifyError(nil))
	assert.Equal(t, "no_table", ClassifyError(&mysql.MySQLError{Number: 1146}))
	assert.Equal(t, "duplicate_key", ClassifyError(&pq.Error{Code: "23505"}))
	assert.Equal(t, "unknown", ClassifyError(errors.New("connection refused")))
	assert.Equal(t, "unknown", SQLError(99).String())
}
