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

import "github.com/tomoncle/unitofwork/types"

// EntityState is the tracking state of an entity within a session.
type EntityState int

const (
	// Detached entities are not tracked.
	Detached EntityState = iota
	// Unchanged entities are tracked and are not written on save.
	Unchanged
	// Added entities are inserted on save.
	Added
	// Modified entities are updated by primary key on save.
	Modified
	// Deleted entities are deleted by primary key on save.
	Deleted
)

var _ types.BaseEnum = Detached

var entityStateNames = [...]string{"Detached", "Unchanged", "Added", "Modified", "Deleted"}

var entityStateDescs = [...]string{
	"not tracked",
	"tracked, no pending change",
	"pending insert",
	"pending update",
	"pending delete",
}

func (s EntityState) IsValid() bool {
	return s >= Detached && s <= Deleted
}

func (s EntityState) Number() int {
	if !s.IsValid() {
		return types.IllegalValue
	}
	return int(s)
}

func (s EntityState) Name() string {
	if !s.IsValid() {
		return types.IllegalName
	}
	return entityStateNames[s]
}

func (s EntityState) String() string {
	return s.Name()
}

func (s EntityState) Desc() string {
	if !s.IsValid() {
		return types.IllegalDesc
	}
	return entityStateDescs[s]
}

// pending reports whether entries in state s are written on save.
func (s EntityState) pending() bool {
	return s == Added || s == Modified || s == Deleted
}
