/*
Package units loads and serves the immutable unit roster.

The roster is a JSON array of units:

	[{"id": 1, "block": "A", "unit": "101", "fraction": 0.003117, "code": "X7K2PQ"}]

It is read once at startup and never mutated; every other component
resolves voting rights against it. Block and unit spellings are
normalized (Normalize) so operator input like "Bloco A" / "0101" matches
the roster entry "A" / "101".

The per-unit code is the access secret voters use to log in. It is kept
out of JSON serialization and only surfaced through the operator secret
endpoint.
*/
package units
