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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveQuery(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")

	m.ObserveQuery("SELECT", 3*time.Millisecond, nil)
	m.ObserveQuery("SELECT", time.Millisecond, sql.ErrNoRows)
	m.ObserveQuery("INSERT", time.Millisecond, errors.New("UNIQUE constraint failed: customers.id"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("SELECT", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues("INSERT", statusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryErrors.WithLabelValues("INSERT", "duplicate_key")))
}

func TestMetrics_ObserveSave(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")

	m.ObserveSave(3, time.Millisecond, nil)
	m.ObserveSave(0, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.savesTotal.WithLabelValues(statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.savesTotal.WithLabelValues(statusError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.rowsAffected))
}

func TestMetrics_UpdateFromDBStats(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test")
	m.UpdateFromDBStats(sql.DBStats{MaxOpenConnections: 4, InUse: 1, Idle: 2})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connections.WithLabelValues("in_use")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connections.WithLabelValues("idle")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.connections.WithLabelValues("max_open")))
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	assert.Same(t, DefaultMetrics(), DefaultMetrics())
}
