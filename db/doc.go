/*
Package db handles database connection and schema creation.

# Backends

Open selects the driver by type:

	conn, err := db.Open("sqlite", "data/assembly.db")
	conn, err := db.Open("postgres", "postgres://...")

SQLite (modernc.org/sqlite, pure Go) is the default embedded store;
Postgres (lib/pq) is available for shared deployments. Both accept the
$N placeholder syntax used throughout the repo.

# Schema

CreateSchema creates all tables with IF NOT EXISTS and is safe to call on
every start. The schema carries the hard invariants as UNIQUE constraints:

  - voter(block, unit_id): a unit checks in at most once
  - linked_unit(block, unit_id): a unit delegates to at most one attendee
  - vote(assembly_id, item_order_no, voter_handle, unit_block, unit_id):
    one ledger record per unit per item

IsUniqueViolation recognizes constraint failures from either backend so
callers can map races onto domain errors instead of 500s.
*/
package db
