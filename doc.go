// Package unitofwork groups the changes staged through repositories over one
// session and commits them together. Complete forwards to the session's
// SaveChanges; CompleteWithTimeout overrides the session command timeout for
// a single commit and restores the previous value afterwards, also when the
// commit fails.
//
// Service offers the same operations per call: every method runs in a
// fresh session over the global database.
package unitofwork
