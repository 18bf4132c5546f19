// Package auth is the Ticket Hub security core: credential login with
// separate user and admin entry points, signed stateless session tokens,
// per request session verification and role gates for fiber routes.
//
// Login:
//   - Auther.LoginUser and Auther.LoginAdmin look the account up by email,
//     compare the bcrypt hash and require an exact role match. Every failure
//     is reported as ErrInvalidCredentials so callers cannot tell an unknown
//     email from a wrong password or a wrong entry point.
//
// Sessions:
//   - Tokens are HS256 JWTs carrying sub, id, email, role and name. They are
//     never stored server side and cannot be revoked before expiry.
//   - SessionVerifier re-reads the account on every request, so deactivation
//     and role changes take effect on the next request.
//
// HTTP:
//   - RouteAuthenticator exposes Authenticate, RequireAdmin, RequireUser and
//     RequireAuthenticated as fiber handlers. The authenticated account is
//     available through CurrentAccount and AccountFromContext.
//
// Activity sinks:
//   - ActivitySink receives login success and failure events. Sinks run best
//     effort; errors are logged and never fail the login.
package auth
