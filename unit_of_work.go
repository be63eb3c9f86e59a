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
	"io"
	"time"

	"github.com/tomoncle/unitofwork/database"
	"github.com/tomoncle/unitofwork/session"
	"github.com/tomoncle/unitofwork/types"
)

// UnitOfWork commits the changes staged in its session.
type UnitOfWork interface {
	io.Closer

	Session() session.Session

	// Complete saves all staged changes and returns the number of affected rows.
	Complete(ctx context.Context) (int, error)
	CompleteAsync(ctx context.Context) *types.Future[int]

	// CompleteWithTimeout is Complete with the command timeout set to timeout
	// for the duration of the save. The session is left with its previous
	// timeout on every return path.
	CompleteWithTimeout(ctx context.Context, timeout time.Duration) (int, error)
	CompleteWithTimeoutAsync(ctx context.Context, timeout time.Duration) *types.Future[int]
}

// Option configures a unit of work created with New.
type Option func(*unitOfWork)

// WithLogger sets the logger used for timeout overrides.
func WithLogger(logger database.Logger) Option {
	return func(u *unitOfWork) { u.logger = logger }
}

type unitOfWork struct {
	session session.Session
	logger  database.Logger
}

var _ UnitOfWork = (*unitOfWork)(nil)

// New returns a unit of work over s. Closing it closes s.
func New(s session.Session, opts ...Option) UnitOfWork {
	u := &unitOfWork{session: s}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = database.GetLogger()
	}
	return u
}

func (u *unitOfWork) Session() session.Session {
	return u.session
}

func (u *unitOfWork) Complete(ctx context.Context) (int, error) {
	return u.session.SaveChanges(ctx)
}

func (u *unitOfWork) CompleteAsync(ctx context.Context) *types.Future[int] {
	return u.session.SaveChangesAsync(ctx)
}

func (u *unitOfWork) CompleteWithTimeout(ctx context.Context, timeout time.Duration) (int, error) {
	restore := u.overrideTimeout(timeout)
	defer restore()
	return u.session.SaveChanges(ctx)
}

func (u *unitOfWork) CompleteWithTimeoutAsync(ctx context.Context, timeout time.Duration) *types.Future[int] {
	return types.Go(func() (int, error) {
		restore := u.overrideTimeout(timeout)
		defer restore()
		// the override must outlive the save even when ctx is cancelled
		return u.session.SaveChangesAsync(ctx).Await(context.WithoutCancel(ctx))
	})
}

// overrideTimeout sets the command timeout and returns the function that
// puts the previous value back.
func (u *unitOfWork) overrideTimeout(timeout time.Duration) func() {
	facade := u.session.Database()
	previous := facade.CommandTimeout()
	facade.SetCommandTimeout(timeout)
	u.logger.Debug("Command timeout overridden", "session", u.session.ID(), "timeout", timeout, "previous", previous)
	return func() {
		facade.SetCommandTimeout(previous)
	}
}

func (u *unitOfWork) Close() error {
	return u.session.Close()
}
