// Package repository provides a generic repository over a session entity
// set: key and filter lookups with optional eager loading, staged writes,
// and pagination. Every call forwards to the entity set.
package repository
