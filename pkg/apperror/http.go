package apperror

import "net/http"

func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidInput:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict, AlreadyExists:
		return http.StatusConflict
	case Unauthorised:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case RequestTimeout:
		return http.StatusGatewayTimeout
	case Dependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
