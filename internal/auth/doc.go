// Package auth is the authentication collaborator for the admin page.
//
// # Sessions
//
// A Session is the snapshot the page reads: whether resolution is still in
// progress, whether the viewer is authenticated, and the user record.
//
//	session, err := resolver.Resolve(ctx, r)
//
// Resolver checks the session cookie first and then an
// "Authorization: Bearer" JWT. A missing, expired or invalid credential is
// not an error; it resolves to an unauthenticated Session. Only store
// failures are returned as errors.
//
// # Roles
//
// RoleOf is the typed accessor over the user's free-form role tag. Only the
// exact, case-sensitive tag "ADMIN" maps to RoleAdmin. Any other non-empty
// tag is RoleMember, and a missing user or empty tag is RoleGuest.
//
// # Tokens
//
// Bearer tokens are HS256 JWTs whose "sub" claim is the user ID:
//
//	verifier, err := NewJWTVerifier(secret) // secret >= MinSecretLength bytes
//	token, err := verifier.Generate(userID, time.Hour)
//
// # Passwords
//
// Passwords are bcrypt hashes. Authenticate performs a dummy comparison for
// unknown usernames so response timing does not reveal which accounts exist.
//
// # HTTP Middleware
//
// RequireAdmin guards JSON and fragment endpoints. It answers 401 for
// unauthenticated requests and 403 for authenticated non-admins, and stores
// the resolved Session in the request context for handlers.
package auth
