// Package identity provides the identity and session core for multi-user
// applications: password-based registration and login, JWT access/refresh
// token issuance and validation, and a time-boxed email-verification
// workflow backed by one-way hashed temporary tokens.
//
// Credential storage:
//   - Users are persisted via Bun behind the narrow Users contract. Email and
//     username uniqueness is enforced by the storage layer itself; a duplicate
//     write surfaces as ErrDuplicateIdentity regardless of any pre-read.
//   - PublicUser is the only user shape that leaves this package. Password
//     hashes, refresh state, and verification-token fields never serialize.
//
// Tokens:
//   - TokenService signs short-lived access and longer-lived refresh JWTs
//     with distinct secrets. The user identifier is the only trusted claim.
//   - Temporary verification tokens are random values shown to the user once;
//     only their SHA-256 hash and expiry are stored.
//
// Workflows:
//   - Auther handles login, logout, refresh exchange, and current-user reads.
//   - Register / VerifyEmail / ResendVerification commands orchestrate the
//     verification lifecycle. Verification email dispatch is best-effort:
//     failures are logged and never roll back identity state.
//
// The middleware/sessionguard package gates protected routes by validating
// the access-token cookie and resolving the caller's identity.
package identity
