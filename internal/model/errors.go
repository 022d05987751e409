package model

import "errors"

// Validation errors (400).
var (
	ErrMissingField     = errors.New("please provide all required fields")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrWeakPassword     = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes long")
	ErrFieldTooLong     = errors.New("field too long")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidAdminFlag = errors.New("invalid admin status")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrInvalidImage     = errors.New("invalid image")
	ErrInvalidID        = errors.New("invalid id")
	ErrUnknownCategory  = errors.New("category does not exist")
)

// Conflict errors. Reported as 400 to match the public contract.
var (
	ErrDuplicateUser     = errors.New("user already exists")
	ErrDuplicateCategory = errors.New("category already exists")
)

// Credential errors. Login failures answer 400, not 401.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidAdminCredentials = errors.New("invalid admin credentials")
)

// Authentication errors (401).
var (
	ErrUnauthenticated = errors.New("no authentication token, access denied")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token has expired")
)

// Authorization errors (403).
var (
	ErrForbidden = errors.New("access denied, admin privileges required")
)

// Not-found errors (404). ErrNotFoundOrUnauthorized deliberately covers both
// a missing row and a row owned by someone else.
var (
	ErrNotFound               = errors.New("not found")
	ErrNotFoundOrUnauthorized = errors.New("not found or unauthorized")
)

// IsValidation reports whether err should be answered with 400.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrMissingField, ErrInvalidEmail, ErrWeakPassword, ErrPasswordTooLong, ErrFieldTooLong, ErrMalformedPayload,
		ErrInvalidStatus, ErrInvalidAdminFlag, ErrInvalidRating, ErrInvalidImage,
		ErrInvalidID, ErrUnknownCategory, ErrDuplicateUser, ErrDuplicateCategory,
		ErrInvalidCredentials, ErrInvalidAdminCredentials,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
