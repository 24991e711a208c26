package omni

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"omnirelay/internal/domain"
)

// checkSession classifies a reporting-service response as session loss.
// A 401/403, or any body containing "login" (the SPA serves its login page
// with status 200), means the stored cookies are dead. The body match is
// best effort; it exists because the service redirects instead of failing.
func checkSession(status int, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return domain.ErrAuth("session expired or unauthorized (status %d)", status)
	}
	if bytes.Contains(bytes.ToLower(body), []byte("login")) {
		return domain.ErrAuth("redirected to login page")
	}
	return nil
}

// TokenExpiry extracts the exp claim from the auth token without verifying
// the signature. Used for operator warnings only; session validity is
// always decided by the server.
func TokenExpiry(token string) (time.Time, error) {
	parser := jwt.NewParser()
	tok, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parse auth token: %w", err)
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("auth token has no exp claim")
	}
	return exp.Time, nil
}
