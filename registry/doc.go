/*
Package registry is the credential registry: who is present, who they
represent, and whether they may vote.

# Check-in Flow

	voter, err := reg.CheckIn("A", "101")          // operator desk
	voter, _, err = reg.LinkUnit(voter.Handle, "A", "102", models.RelationProxy)
	voter, err = reg.Login("A", "101", "X7K2PQ")   // voter's own device

Check-in creates the Voter with a fresh opaque handle and login status
"pending". Login flips it to "logged_in" after a constant-time secret
check; only logged-in voters may cast.

# No Double Counting

A physical unit carries one ownership fraction, so it may be represented
exactly once: as somebody's home unit or as a single attendee's linked
unit. The rule spans two tables, so all registry mutations serialize
through the shared coarse lock; the per-table UNIQUE constraints back
that up against writers in other processes. Violations surface as
ErrAlreadyCheckedIn / ErrAlreadyLinked.
*/
package registry
