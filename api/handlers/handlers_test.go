package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/webqa/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "runs.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func postScan(t *testing.T, h *ScansHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)
	return w
}

func TestCreateScanValidation(t *testing.T) {
	h := NewScansHandler(openTestStore(t), NewHub(), "true", nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"relative url", `{"url":"/foo"}`},
		{"bad scheme", `{"url":"ftp://example.com"}`},
		{"garbage", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postScan(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateScanConflictWhenActive(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Create(&store.Run{ID: "busy", URL: "https://example.com/"}))

	h := NewScansHandler(st, NewHub(), "true", nil)
	w := postScan(t, h, `{"url":"https://example.com/"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RUN_ACTIVE", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "busy")
}

func TestCreateScanSingleWinnerUnderConcurrency(t *testing.T) {
	// a scan stand-in that stays alive long enough to keep the run active
	script := filepath.Join(t.TempDir(), "block.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o755))

	st := openTestStore(t)
	h := NewScansHandler(st, NewHub(), script, nil)

	const n = 10
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(`{"url":"https://example.com/"}`))
			w := httptest.NewRecorder()
			h.Create(w, req)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	accepted, conflicted := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusAccepted:
			accepted++
		case http.StatusConflict:
			conflicted++
		}
	}
	assert.Equal(t, 1, accepted, "exactly one request may start a scan")
	assert.Equal(t, n-1, conflicted)
}

func TestCreateScanAcceptedAndFinished(t *testing.T) {
	st := openTestStore(t)
	hub := NewHub()
	// echo exits immediately, standing in for the scan subprocess
	h := NewScansHandler(st, hub, "echo", nil)

	w := postScan(t, h, `{"url":"https://example.com/","scope":"smoke"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Data struct {
			RunID  string `json:"run_id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, store.StatusRunning, resp.Data.Status)
	require.NotEmpty(t, resp.Data.RunID)

	// the follower marks the run terminal once echo exits
	require.Eventually(t, func() bool {
		run, err := st.Get(resp.Data.RunID)
		return err == nil && run.Status == store.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)
}

func TestListScans(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Create(&store.Run{ID: "r1", URL: "https://example.com/"}))
	require.NoError(t, st.Finish("r1", store.StatusCompleted, 3, "runs/r1/report.md"))

	h := NewScansHandler(st, NewHub(), "true", nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)
	assert.Contains(t, w.Body.String(), `"bug_count":3`)
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	lines, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish("r1", "detectors running")

	select {
	case line := <-lines:
		assert.Equal(t, "r1", line.RunID)
		assert.Equal(t, "detectors running", line.Line)
	case <-time.After(time.Second):
		t.Fatal("no line received")
	}

	cancel()
	assert.Zero(t, hub.SubscriberCount())
	hub.Publish("r1", "dropped") // no subscribers, must not block
}

func TestTokenIssueAndVerify(t *testing.T) {
	h := NewTokenHandler("super-secret", time.Hour, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/token", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)

	assert.NoError(t, VerifyToken([]byte("super-secret"), resp.Data.Token))
	assert.Error(t, VerifyToken([]byte("wrong-secret"), resp.Data.Token))
}

func TestTokenExpiry(t *testing.T) {
	h := NewTokenHandler("super-secret", time.Hour, nil)
	h.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/token", nil))

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Error(t, VerifyToken([]byte("super-secret"), resp.Data.Token), "expired token must not verify")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	mw := Auth("the-key", "the-secret", nil)
	protected := mw(okHandler())

	t.Run("no credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "nope")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("api key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "the-key")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bearer token", func(t *testing.T) {
		th := NewTokenHandler("the-secret", time.Hour, nil)
		rec := httptest.NewRecorder()
		th.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		var resp struct {
			Data struct {
				Token string `json:"token"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Data.Token)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	mw := RateLimit(1, 1, nil)
	limited := mw(okHandler())

	first := httptest.NewRecorder()
	limited.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	limited.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
