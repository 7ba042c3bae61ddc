package shared

// DomainError carries a stable code that the HTTP layer turns into a status.
// Message is safe to show to the caller.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	ErrNotFound = NewDomainError("NOT_FOUND", "Resource not found")
	// ErrInvalidInput is a request body that could not be decoded
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid request body")
	// ErrUnauthorized is a request without valid seller or shop credentials
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "Unauthorized")
	// ErrForbidden is an authenticated seller lacking the required role
	ErrForbidden = NewDomainError("FORBIDDEN", "Forbidden")
)
