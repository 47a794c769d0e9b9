package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type stubStoreChecker struct {
	err error
}

func (s stubStoreChecker) Ping(context.Context) error {
	return s.err
}

func serveHealth(t *testing.T, checker StoreChecker) response {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	server := NewServer(0, checker, logrus.NewEntry(logger))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	server.server.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var resp response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}

	return resp
}

func TestHealthHandlerOK(t *testing.T) {
	resp := serveHealth(t, stubStoreChecker{})

	if resp.Status != "ok" || resp.Store != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHealthHandlerStoreError(t *testing.T) {
	resp := serveHealth(t, stubStoreChecker{err: errors.New("mongo down")})

	if resp.Status != "degraded" || resp.Store != "error" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHealthHandlerMissingStoreChecker(t *testing.T) {
	resp := serveHealth(t, nil)

	if resp.Status != "degraded" || resp.Store != "error" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
