// Package database provides connection management, configuration, schema
// creation for registered models, query hooks, metrics, logging and driver
// error classification built on top of Bun.
package database
