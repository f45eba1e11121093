// Package testutil holds helpers shared by HTTP tests.
package testutil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewHTTPServerT starts an httptest server bound to IPv4 loopback and closes it
// when the test ends. The test is skipped if no listener can be opened, which
// happens in some sandboxes.
func NewHTTPServerT(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("tcp4 listener unavailable: %v", err)
		return nil
	}

	srv := &httptest.Server{
		Listener: ln,
		Config: &http.Server{
			Handler: handler,
		},
	}
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}
