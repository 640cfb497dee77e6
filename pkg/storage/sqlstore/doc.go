// Package sqlstore implements storage.Store on database/sql.
//
// Two dialects are supported. PostgreSQL (lib/pq) is the production backend;
// id lists are bound as arrays and matched with "= ANY($n)". SQLite
// (mattn/go-sqlite3) backs tests and local runs; id lists are bound as JSON
// text and expanded with json_each. Queries always use $n placeholders, and
// placeholders first appear in ascending order so SQLite binds them
// positionally.
//
// Schema is managed by Migrate, which records applied versions in
// chatprune_migrations.
package sqlstore
