/*
Package main provides the entry point for the assembly voting server.

The server records and tallies votes cast by condominium-unit
representatives during a live assembly: each unit (including units held
by proxy) votes at most once per agenda item, votes are weighted
uniformly or by ownership fraction, and tallies are derivable from the
append-only vote ledger at any time.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	ADMIN_PASSWORD=... go run .

Or with flags:

	go run . -p 4580 -t sqlite -d data/assembly.db -admin-password ...

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - ADMIN_PASSWORD (-admin-password): bearer token for admin/operator routes

Optional settings:

  - PORT (-p): server port (default: 4580)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): sqlite path or postgres URL (default: data/assembly.db)
  - UNITS_FILE (-units): unit roster JSON (default: data/units.json)
  - AGENDA_FILE (-agenda): agenda definition JSON (default: data/assembly_items.json)

# Architecture

The core is four components behind an HTTP surface:

  - units: immutable unit roster (voting rights source)
  - registry: check-in, proxy links, login (credential registry)
  - assembly: assembly/item lifecycle state machine
  - ledger: append-only vote store with duplicate prevention
  - tally: aggregation engine, frozen at item close

plus handlers/router/middleware for HTTP, db for storage, cliparse for
configuration. State transitions, registry mutations, and vote casting
serialize through one shared lock; every multi-record write is one
transaction.

See package documentation for each component.
*/
package main
