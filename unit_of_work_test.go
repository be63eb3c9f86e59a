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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/unitofwork/database"
	"github.com/tomoncle/unitofwork/internal/fixtures"
	"github.com/tomoncle/unitofwork/session"
	"github.com/tomoncle/unitofwork/types"
	"github.com/uptrace/bun"
)

type fakeFacade struct {
	mu      sync.Mutex
	timeout time.Duration
	sets    []time.Duration
}

func (f *fakeFacade) CommandTimeout() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timeout
}

func (f *fakeFacade) SetCommandTimeout(timeout time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = timeout
	f.sets = append(f.sets, timeout)
}

func (f *fakeFacade) EnsureCreated(ctx context.Context) (bool, error) { return false, nil }

func (f *fakeFacade) OpenConnection(ctx context.Context) error { return nil }

func (f *fakeFacade) setterCalls() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sets...)
}

type fakeSession struct {
	facade       *fakeFacade
	tracker      *session.ChangeTracker
	rows         int
	err          error
	saves        int
	timeoutAtRun time.Duration
	closed       bool
}

var _ session.Session = (*fakeSession)(nil)

func newFakeSession(initial time.Duration, rows int, err error) *fakeSession {
	return &fakeSession{
		facade:  &fakeFacade{timeout: initial},
		tracker: session.NewChangeTracker(),
		rows:    rows,
		err:     err,
	}
}

func (s *fakeSession) ID() string                       { return "fake" }
func (s *fakeSession) Database() session.DatabaseFacade { return s.facade }
func (s *fakeSession) DB() *bun.DB                      { return nil }
func (s *fakeSession) Tracker() *session.ChangeTracker  { return s.tracker }

func (s *fakeSession) Entry(entity any) session.EntityEntry {
	return session.EntityEntry{Entity: entity, State: s.tracker.State(entity)}
}

func (s *fakeSession) CommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return ctx, func() {}
}

func (s *fakeSession) SaveChanges(ctx context.Context) (int, error) {
	s.saves++
	s.timeoutAtRun = s.facade.CommandTimeout()
	return s.rows, s.err
}

func (s *fakeSession) SaveChangesAsync(ctx context.Context) *types.Future[int] {
	return types.Go(func() (int, error) { return s.SaveChanges(ctx) })
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func newTestUnitOfWork(s session.Session) UnitOfWork {
	return New(s, WithLogger(database.NopLogger{}))
}

func TestUnitOfWork_Complete(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession(10*time.Second, 2, nil)
	uow := newTestUnitOfWork(s)

	n, err := uow.Complete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, s.saves)
	assert.Empty(t, s.facade.setterCalls())
	assert.Same(t, s, uow.Session())
}

func TestUnitOfWork_CompleteAsync(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession(0, 3, nil)
	uow := newTestUnitOfWork(s)

	n, err := uow.CompleteAsync(ctx).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, s.facade.setterCalls())
}

func TestUnitOfWork_CompleteWithTimeout(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession(10*time.Second, 2, nil)
	uow := newTestUnitOfWork(s)

	n, err := uow.CompleteWithTimeout(ctx, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 30*time.Second, s.timeoutAtRun)
	assert.Equal(t, []time.Duration{30 * time.Second, 10 * time.Second}, s.facade.setterCalls())
	assert.Equal(t, 10*time.Second, s.facade.CommandTimeout())
}

func TestUnitOfWork_CompleteWithTimeoutAsync(t *testing.T) {
	ctx := context.Background()
	s := newFakeSession(10*time.Second, 4, nil)
	uow := newTestUnitOfWork(s)

	n, err := uow.CompleteWithTimeoutAsync(ctx, 30*time.Second).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 30*time.Second, s.timeoutAtRun)
	assert.Equal(t, []time.Duration{30 * time.Second, 10 * time.Second}, s.facade.setterCalls())
}

func TestUnitOfWork_CompleteWithTimeoutRestoresOnFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("sync", func(t *testing.T) {
		s := newFakeSession(10*time.Second, 0, boom)
		_, err := newTestUnitOfWork(s).CompleteWithTimeout(ctx, 30*time.Second)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []time.Duration{30 * time.Second, 10 * time.Second}, s.facade.setterCalls())
		assert.Equal(t, 10*time.Second, s.facade.CommandTimeout())
	})

	t.Run("async", func(t *testing.T) {
		s := newFakeSession(10*time.Second, 0, boom)
		_, err := newTestUnitOfWork(s).CompleteWithTimeoutAsync(ctx, 30*time.Second).Await(ctx)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []time.Duration{30 * time.Second, 10 * time.Second}, s.facade.setterCalls())
	})
}

func TestUnitOfWork_CompleteWithTimeoutWithoutPreviousOverride(t *testing.T) {
	s := newFakeSession(0, 1, nil)
	_, err := newTestUnitOfWork(s).CompleteWithTimeout(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second, 0}, s.facade.setterCalls())
}

func TestUnitOfWork_Close(t *testing.T) {
	s := newFakeSession(0, 0, nil)
	require.NoError(t, newTestUnitOfWork(s).Close())
	assert.True(t, s.closed)
}

func TestUnitOfWork_WithSession(t *testing.T) {
	ctx := context.Background()
	db := fixtures.NewTestDBWithSeed(t)
	s := session.New(db,
		session.WithLogger(database.NopLogger{}),
		session.WithCommandTimeout(10*time.Second),
	)
	uow := newTestUnitOfWork(s)
	defer uow.Close()

	session.Set[fixtures.Customer](s).Add(&fixtures.Customer{FirstName: "Ann", LastName: "Lee"})
	session.Set[fixtures.Address](s).Add(&fixtures.Address{CustomerID: 6, Street: "9 Oak Ave"})

	n, err := uow.CompleteWithTimeout(ctx, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 10*time.Second, s.Database().CommandTimeout())

	n, err = uow.Complete(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
