/*
Package assembly is the lifecycle state machine for the assembly and its
agenda items.

# States

	Assembly: idle → started → closed
	Item:     pending → open → closed
	          any non-closed → void

At most one item is open at any time; the open item's order number lives
in the assembly row (current_item) and is checked and updated under the
shared lock, so OpenItem fails with ErrItemAlreadyOpen while another item
is voting.

# Transitions

Start stamps started_at. Close force-closes an open item first. CloseItem
stamps voting_ended_at and freezes results through the injected Aggregator
in the same transaction - a closed item is never observable without its
frozen snapshot after the transition commits. VoidItem runs the close path
first when the item is open; void items never reopen.

# Seeding

Seed loads the agenda definition file on first run:

	{
	  "assembly": {"id": "...", "title": "...", "date": "2026-08-28"},
	  "items": [{"order_no": 1, "title": "...", "compute_mode": "fractional", "vote_kind": "binary"}]
	}

Restarts find the assembly row present and keep the committed state.
*/
package assembly
