package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func serveWithHeaders(h Headers, req *http.Request) http.Header {
	rr := httptest.NewRecorder()
	h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)
	return rr.Result().Header
}

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://rental.example/api/v1/listings/l-1", nil)
	req.TLS = &tls.ConnectionState{}

	headers := serveWithHeaders(Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}, req)
	require.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	require.Equal(t, "max-age=31536000; includeSubDomains", headers.Get("Strict-Transport-Security"))
	require.Equal(t, "no-store", headers.Get("Cache-Control"))
}

func TestHeadersHSTSBehindProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://rental.example/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	headers := serveWithHeaders(Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 60}, req)
	require.Equal(t, "max-age=60", headers.Get("Strict-Transport-Security"))

	plain := serveWithHeaders(Headers{Enable: true, EnableHSTS: true}, httptest.NewRequest(http.MethodGet, "http://rental.example/", nil))
	require.Empty(t, plain.Get("Strict-Transport-Security"))
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	headers := serveWithHeaders(Headers{EnableHSTS: true}, httptest.NewRequest(http.MethodGet, "http://rental.example/", nil))
	require.Empty(t, headers.Get("X-Content-Type-Options"))
}
