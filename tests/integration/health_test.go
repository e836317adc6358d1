//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// With postgres, redis and nats all up, both probes report ok and omit the
// per-check breakdown that only an unhealthy probe carries.
func TestProbes(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := doGet(t, path)
			defer resp.Body.Close()
			expectStatus(t, resp, http.StatusOK)

			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type: got %q", ct)
			}
			body := decodeJSON[healthResponse](t, resp)
			if body.Status != "ok" {
				t.Fatalf("expected status ok, got %q (checks: %v)", body.Status, body.Checks)
			}
			if len(body.Checks) != 0 {
				t.Errorf("healthy probe listed checks: %v", body.Checks)
			}
		})
	}
}

func TestProbes_NotUnderAPI(t *testing.T) {
	resp := doGet(t, "/api/readyz")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)
}
