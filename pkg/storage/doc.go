// Package storage defines the persistence contract of the membership
// reconciliation engine.
//
// # Architecture
//
// The storage layer uses interface segregation to compose focused capabilities:
//
//   - TopologyReader: categories, CategoryGroup rows, channel-to-category mapping
//   - MembershipReader: users and scoped channel memberships
//   - MembershipWriter: membership deletion and user count maintenance
//   - Tx: everything above plus the audit sink, bound to one transaction
//   - Store: transaction boundary and health
//
// All reads and writes of one handler invocation happen inside Store.WithTx.
// Returning an error from the callback rolls the transaction back.
//
// # Membership Scope
//
// MembershipReader.FindMemberships only ever returns memberships of users the
// engine may evict: real (positive id, not a bot), not admin or moderator,
// not suspended and not staged.
//
// # Implementations
//
// pkg/storage/sqlstore implements Store over PostgreSQL and SQLite.
package storage
