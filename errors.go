package identity

import (
	"net/http"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmailRequired          = "identity_email_required"
	TextCodeUserNotFound           = "identity_user_not_found"
	TextCodeInvalidCredentials     = "identity_invalid_credentials"
	TextCodeDuplicateIdentity      = "identity_duplicate"
	TextCodeAlreadyVerified        = "identity_already_verified"
	TextCodeVerificationMissing    = "identity_verification_token_missing"
	TextCodeVerificationInvalid    = "identity_verification_token_invalid"
	TextCodeTokenMissing           = "identity_token_missing"
	TextCodeTokenInvalid           = "identity_token_invalid"
	TextCodeTokenExpired           = "identity_token_expired"
	TextCodeRefreshRevoked         = "identity_refresh_revoked"
	TextCodeRegistrationIncomplete = "identity_registration_incomplete"
	TextCodeRoleInvalid            = "identity_role_invalid"
)

// ErrEmailRequired is returned when a login or resend request carries no email.
var ErrEmailRequired = errors.New("email is required", errors.CategoryBadInput).
	WithTextCode(TextCodeEmailRequired).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when no user matches the given identifier.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials is returned when the password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateIdentity is returned when email or username already exists.
// The storage layer's unique constraint is the authoritative source of this
// error; the pre-read in registration is only a friendlier early exit.
var ErrDuplicateIdentity = errors.New("email or username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrAlreadyVerified is returned when resending verification for a verified account.
var ErrAlreadyVerified = errors.New("email is already verified", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeConflict)

// ErrVerificationTokenMissing is returned when the verification token is absent.
var ErrVerificationTokenMissing = errors.New("verification token is missing", errors.CategoryBadInput).
	WithTextCode(TextCodeVerificationMissing).
	WithCode(errors.CodeBadRequest)

// ErrVerificationTokenInvalid covers both an unknown and an expired
// verification token. The two cases are deliberately indistinguishable.
var ErrVerificationTokenInvalid = errors.New("invalid or expired verification token", errors.CategoryBadInput).
	WithTextCode(TextCodeVerificationInvalid).
	WithCode(errors.CodeBadRequest)

// ErrTokenMissing is returned when a protected request carries no access token.
var ErrTokenMissing = errors.New("missing access token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers every access-token verification failure: malformed,
// bad signature, or a valid token whose user no longer exists. Callers cannot
// distinguish a forged token from a stale one.
var ErrTokenInvalid = errors.New("invalid or expired access token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for structurally valid but expired tokens.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshRevoked is returned when a refresh token no longer matches the
// stored refresh state, e.g. after logout.
var ErrRefreshRevoked = errors.New("refresh token has been revoked", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrRegistrationIncomplete is a server fault: the user row vanished between
// creation and the immediate re-read.
var ErrRegistrationIncomplete = errors.New("user registration failed", errors.CategoryInternal).
	WithTextCode(TextCodeRegistrationIncomplete).
	WithCode(errors.CodeInternal)

// ErrRoleInvalid is returned when a registration names a role outside the
// fixed enumeration.
var ErrRoleInvalid = errors.New("role is not recognized", errors.CategoryBadInput).
	WithTextCode(TextCodeRoleInvalid).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the bcrypt mismatch sentinel.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// StatusFromError maps a rich error to the HTTP status code the boundary
// should respond with. Unknown errors map to 500.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryBadInput, errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
