/*
Package auth contains credential checks for the HTTP surface.

# Admin Token

Admin and operator routes carry a bearer token checked against the
ADMIN_PASSWORD setting:

	if err := auth.ValidateAdminToken(r.Header.Get("Authorization"), cfg.AdminPassword); err != nil { ... }

# Access Secrets

Voter login compares the submitted unit code against the roster value with
SecretsMatch. Both comparisons use hmac.Equal to stay constant time.
*/
package auth
