package dto

import "net/http"

// domainStatus maps shared.DomainError codes to HTTP statuses
var domainStatus = map[string]int{
	"NOT_FOUND":           http.StatusNotFound,
	"INVALID_INPUT":       http.StatusBadRequest,
	"INVALID_EMAIL":       http.StatusBadRequest,
	"INVALID_PASSWORD":    http.StatusBadRequest,
	"UNAUTHORIZED":        http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"UNKNOWN_SHOP":        http.StatusUnauthorized,
	"NOT_SHOP_MEMBER":     http.StatusUnauthorized,
	"FORBIDDEN":           http.StatusForbidden,
}

// StatusForDomainCode returns the HTTP status for a domain error code,
// 500 for codes it does not know
func StatusForDomainCode(code string) int {
	if status, ok := domainStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
