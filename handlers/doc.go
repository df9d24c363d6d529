/*
Package handlers contains HTTP request handlers for the assembly voting
API.

# Handler Types

Each handler is a struct with its core-service dependencies:

  - AdminHandler: assembly/item lifecycle (start, close, open/close/void item)
  - OperatorHandler: check-in desk (roster, check-in, links, roll call)
  - VotingHandler: voter device (login, cast)
  - PublicHandler: projector view (status, results)

# Roles

Three audiences hit this API during an assembly:

	admin:    the moderator driving the agenda (Bearer ADMIN_PASSWORD)
	operator: the check-in desk (same token)
	public:   voter phones and the hall projector (no auth; voters hold
	          only their anonymous handle after login)

# Assembly Flow

	POST /admin/assembly/start
	POST /operator/checkin                     → attendee handle
	POST /operator/attendees/{handle}/links    → proxy/extra-seat units
	POST /vote/login                           → voter unlocks casting
	POST /admin/items/{orderNo}/open
	POST /vote/cast                            → one vote, proxy fan-out
	POST /admin/items/{orderNo}/close          → results frozen
	POST /admin/assembly/close

# Error Mapping

DomainError translates the core error taxonomy to status codes:
validation 400, access denied 401, not found 404, state conflict 409,
transient 503 (with Retry-After), anything else 500.
*/
package handlers
