// Package types holds the small value types shared by the session, repository
// and unit-of-work packages: query filters, paging, enums and futures.
package types
