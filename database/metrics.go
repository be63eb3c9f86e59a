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
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Metrics records query and save statistics in Prometheus collectors.
type Metrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	savesTotal    *prometheus.CounterVec
	saveDuration  prometheus.Histogram
	rowsAffected  prometheus.Counter
	connections   *prometheus.GaugeVec
}

// NewMetrics creates the collectors under namespace and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "queries_total",
				Help:      "Total number of database queries executed",
			},
			[]string{"operation", "status"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Database query duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		queryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_errors_total",
				Help:      "Total number of failed database queries by error class",
			},
			[]string{"operation", "error_type"},
		),
		savesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "saves_total",
				Help:      "Total number of SaveChanges calls",
			},
			[]string{"status"},
		),
		saveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "save_duration_seconds",
				Help:      "SaveChanges duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		rowsAffected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "rows_affected_total",
				Help:      "Total number of rows affected by committed saves",
			},
		),
		connections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "connections",
				Help:      "Connection pool size by state",
			},
			[]string{"state"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.queriesTotal,
			m.queryDuration,
			m.queryErrors,
			m.savesTotal,
			m.saveDuration,
			m.rowsAffected,
			m.connections,
		)
	}
	return m
}

// DefaultMetrics returns the process-wide metrics registered with the
// default Prometheus registerer.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer, "unitofwork")
	})
	return defaultMetrics
}

// ObserveQuery records one executed statement.
func (m *Metrics) ObserveQuery(operation string, duration time.Duration, err error) {
	status := statusSuccess
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		status = statusError
		m.queryErrors.WithLabelValues(operation, ClassifyError(err)).Inc()
	}
	m.queriesTotal.WithLabelValues(operation, status).Inc()
	m.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveSave records one SaveChanges call and the rows it affected.
func (m *Metrics) ObserveSave(rows int, duration time.Duration, err error) {
	if err != nil {
		m.savesTotal.WithLabelValues(statusError).Inc()
	} else {
		m.savesTotal.WithLabelValues(statusSuccess).Inc()
		m.rowsAffected.Add(float64(rows))
	}
	m.saveDuration.Observe(duration.Seconds())
}

// UpdateFromDBStats sets the pool gauges from stats.
func (m *Metrics) UpdateFromDBStats(stats sql.DBStats) {
	m.connections.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.connections.WithLabelValues("idle").Set(float64(stats.Idle))
	m.connections.WithLabelValues("max_open").Set(float64(stats.MaxOpenConnections))
}

// QueryHook returns a Bun hook feeding ObserveQuery.
func (m *Metrics) QueryHook() bun.QueryHook {
	return &metricsQueryHook{metrics: m}
}

type metricsQueryHook struct {
	metrics *Metrics
}

var _ bun.QueryHook = (*metricsQueryHook)(nil)

func (h *metricsQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *metricsQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	h.metrics.ObserveQuery(event.Operation(), time.Since(event.StartTime), event.Err)
}
