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

import "sync"

// EntityEntry is an entity pointer together with its tracking state.
type EntityEntry struct {
	Entity any
	State  EntityState
}

// ChangeTracker records staged entities in the order they were first
// tracked. Entities are identified by pointer.
type ChangeTracker struct {
	mu      sync.Mutex
	entries []*EntityEntry
	index   map[any]*EntityEntry
}

// NewChangeTracker returns an empty tracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{index: make(map[any]*EntityEntry)}
}

// Add stages entity for insertion. A Deleted entity becomes Modified.
func (t *ChangeTracker) Add(entity any) {
	if entity == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.index[entity]
	switch {
	case !ok:
		t.track(entity, Added)
	case entry.State == Deleted:
		entry.State = Modified
	}
}

// Update stages entity for an update by primary key. Added entities stay Added.
func (t *ChangeTracker) Update(entity any) {
	if entity == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.index[entity]
	switch {
	case !ok:
		t.track(entity, Modified)
	case entry.State != Added:
		entry.State = Modified
	}
}

// Remove stages entity for deletion. An Added entity is detached instead.
func (t *ChangeTracker) Remove(entity any) {
	if entity == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.index[entity]
	switch {
	case !ok:
		t.track(entity, Deleted)
	case entry.State == Added:
		t.detach(entry)
	default:
		entry.State = Deleted
	}
}

// State returns the tracking state of entity, Detached when untracked.
func (t *ChangeTracker) State(entity any) EntityState {
	if entity == nil {
		return Detached
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.index[entity]; ok {
		return entry.State
	}
	return Detached
}

// Entries returns a snapshot of all tracked entries in tracking order.
func (t *ChangeTracker) Entries() []EntityEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := make([]EntityEntry, len(t.entries))
	for i, entry := range t.entries {
		entries[i] = *entry
	}
	return entries
}

// Pending returns the entries that are written on save, in tracking order.
func (t *ChangeTracker) Pending() []EntityEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := make([]EntityEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		if entry.State.pending() {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// HasChanges reports whether any entry is written on save.
func (t *ChangeTracker) HasChanges() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, entry := range t.entries {
		if entry.State.pending() {
			return true
		}
	}
	return false
}

// Len returns the number of tracked entities.
func (t *ChangeTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear detaches every entity.
func (t *ChangeTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.index = make(map[any]*EntityEntry)
}

func (t *ChangeTracker) track(entity any, state EntityState) {
	entry := &EntityEntry{Entity: entity, State: state}
	t.entries = append(t.entries, entry)
	t.index[entity] = entry
}

func (t *ChangeTracker) detach(entry *EntityEntry) {
	delete(t.index, entry.Entity)
	for i, e := range t.entries {
		if e == entry {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}
