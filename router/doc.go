/*
Package router defines the HTTP route table.

NewRouter wires the core services into handlers using Go 1.22+ method
routing on the standard ServeMux:

	mux := router.NewRouter(router.Deps{DB: conn, Cfg: cfg, ...})

Routes fall into four groups: /admin (lifecycle), /operator (check-in
desk), /vote (voter device), and /public (projector view), plus /health.
*/
package router
