package errs

// Error codes used across the gateway. Codes are stable: clients key off them.
const (
	ServerInternalCode = 500

	ValidationCode     = 1001 // bad or empty input, reported only to the originator
	PersistenceCode    = 1002 // store unavailable or constraint violation
	AuthorizationCode  = 1003 // operation on a record the requester does not own
	RecordNotFoundCode = 1004

	TokenExpiredCode = 1501
	TokenInvalidCode = 1502
)

var (
	ServerInternalError = NewCodeError(ServerInternalCode, "server internal error")

	ErrValidation     = NewCodeError(ValidationCode, "validation error")
	ErrPersistence    = NewCodeError(PersistenceCode, "persistence error")
	ErrAuthorization  = NewCodeError(AuthorizationCode, "authorization error")
	ErrRecordNotFound = NewCodeError(RecordNotFoundCode, "record not found")

	ErrTokenExpired = NewCodeError(TokenExpiredCode, "token expired")
	ErrTokenInvalid = NewCodeError(TokenInvalidCode, "token invalid")
)
