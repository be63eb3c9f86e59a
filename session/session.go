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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/unitofwork/database"
	"github.com/tomoncle/unitofwork/types"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tomoncle/unitofwork/session"

type options struct {
	logger         database.Logger
	metrics        *database.Metrics
	models         []interface{}
	commandTimeout time.Duration
	tracer         trace.Tracer
}

// Option configures a session created with New.
type Option func(*options)

// WithLogger sets the session logger. The global database logger is used by default.
func WithLogger(logger database.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records save statistics in m.
func WithMetrics(m *database.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithModels sets the models created by Database().EnsureCreated.
func WithModels(models ...interface{}) Option {
	return func(o *options) { o.models = models }
}

// WithCommandTimeout sets the initial command timeout.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(o *options) { o.commandTimeout = timeout }
}

// WithTracer replaces the tracer taken from the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

type bunSession struct {
	id      string
	db      *bun.DB
	facade  *bunFacade
	tracker *ChangeTracker
	logger  database.Logger
	metrics *database.Metrics
	tracer  trace.Tracer
	closed  atomic.Bool
}

var _ Session = (*bunSession)(nil)

// New returns a session over db. db stays owned by the caller and is not
// closed by Close.
func New(db *bun.DB, opts ...Option) Session {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = database.GetLogger()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return &bunSession{
		id:      uuid.NewString(),
		db:      db,
		facade:  newBunFacade(db, o.commandTimeout, o.models, o.logger),
		tracker: NewChangeTracker(),
		logger:  o.logger,
		metrics: o.metrics,
		tracer:  o.tracer,
	}
}

func (s *bunSession) ID() string { return s.id }

func (s *bunSession) Database() DatabaseFacade { return s.facade }

func (s *bunSession) DB() *bun.DB { return s.db }

func (s *bunSession) Tracker() *ChangeTracker { return s.tracker }

func (s *bunSession) Entry(entity any) EntityEntry {
	return EntityEntry{Entity: entity, State: s.tracker.State(entity)}
}

func (s *bunSession) CommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout := s.facade.CommandTimeout(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

func (s *bunSession) SaveChanges(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	entries := s.tracker.Pending()
	if len(entries) == 0 {
		return 0, nil
	}

	ctx, span := s.tracer.Start(ctx, "session.SaveChanges")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", s.id),
		attribute.Int("session.entries", len(entries)),
	)

	s.logger.Debug("Saving changes", "session", s.id, "entries", len(entries), "command_timeout", s.facade.CommandTimeout())

	start := time.Now()
	rows, err := s.flush(ctx, entries)
	if s.metrics != nil {
		s.metrics.ObserveSave(rows, time.Since(start), err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("session.success", false))
		s.logger.Error("Save changes failed", "session", s.id, "error", err, "error_type", database.ClassifyError(err))
		return 0, err
	}

	s.tracker.Clear()
	span.SetAttributes(
		attribute.Bool("session.success", true),
		attribute.Int("db.rows_affected", rows),
	)
	s.logger.Debug("Changes saved", "session", s.id, "rows", rows, "duration", time.Since(start))
	return rows, nil
}

func (s *bunSession) SaveChangesAsync(ctx context.Context) *types.Future[int] {
	if s.isClosed() {
		return types.Completed(0, ErrSessionClosed)
	}
	return types.Go(func() (int, error) {
		return s.SaveChanges(ctx)
	})
}

// flush writes entries inside one transaction bounded by the command timeout.
func (s *bunSession) flush(ctx context.Context, entries []EntityEntry) (int, error) {
	ctx, cancel := s.CommandContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	total := 0
	for _, entry := range entries {
		n, err := writeEntry(ctx, tx, entry)
		if err != nil {
			return 0, fmt.Errorf("failed to save %s %T: %w", entry.State, entry.Entity, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return total, nil
}

func writeEntry(ctx context.Context, tx bun.Tx, entry EntityEntry) (int, error) {
	var (
		res sql.Result
		err error
	)
	switch entry.State {
	case Added:
		res, err = tx.NewInsert().Model(entry.Entity).Exec(ctx)
	case Modified:
		res, err = tx.NewUpdate().Model(entry.Entity).WherePK().Exec(ctx)
	case Deleted:
		res, err = tx.NewDelete().Model(entry.Entity).WherePK().Exec(ctx)
	default:
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *bunSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.tracker.Clear()
	s.logger.Debug("Session closed", "session", s.id)
	return nil
}

func (s *bunSession) isClosed() bool {
	return s.closed.Load()
}
