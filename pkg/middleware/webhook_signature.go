package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"courtbook/pkg/logger"
)

const signatureHeader = "X-Signature"

// WebhookSignatureVerification authenticates payment-gateway callbacks by
// verifying an HMAC-SHA256 signature of the raw request body against the
// shared webhook secret. Requests with a missing or wrong signature never
// reach the handler.
func WebhookSignatureVerification(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			signature := strings.TrimPrefix(r.Header.Get(signatureHeader), "sha256=")
			if signature == "" {
				log.Warn("Webhook request without signature", "path", r.URL.Path)
				rejectUnauthorized(w)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				log.Error("Failed to read webhook body", "error", err)
				rejectUnauthorized(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := hex.EncodeToString(mac.Sum(nil))

			if !hmac.Equal([]byte(expected), []byte(signature)) {
				log.Warn("Webhook signature mismatch", "path", r.URL.Path)
				rejectUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid signature"}`))
}
