package auth

import (
	"net/http"
	"strings"

	apperrors "pairchat/errors"
)

// ExtractCredential pulls the bearer token from an upgrade request.
// The Authorization header takes precedence over the `token` query
// parameter when both are present.
func ExtractCredential(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			return "", apperrors.ErrUnauthorized
		}
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", apperrors.ErrUnauthorized
}
