package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/BaSui01/webqa/config"
	"github.com/BaSui01/webqa/internal/metrics"
	"github.com/BaSui01/webqa/types"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func testProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p := NewProvider(config.OracleConfig{
		APIKey:      "test-key",
		BaseURL:     url,
		Model:       "gpt-4o-mini",
		MinInterval: 7 * time.Second,
		RetryDelay:  15 * time.Second,
	}, nil)
	require.NotNil(t, p)
	return p
}

func TestProviderNilWhenDisabled(t *testing.T) {
	assert.Nil(t, NewProvider(config.OracleConfig{}, nil))
}

func TestCompleteSendsPromptAndImage(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ = json.Marshal(readJSON(t, r))
		chatReply(t, w, "hello")
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	out, err := p.Complete(context.Background(), "describe the page", []byte{0x89, 0x50})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	parts := gjson.GetBytes(body, "messages.0.content")
	require.True(t, parts.IsArray())
	assert.Equal(t, "describe the page", gjson.GetBytes(body, "messages.0.content.0.text").String())
	assert.Contains(t, gjson.GetBytes(body, "messages.0.content.1.image_url.url").String(), "data:image/png;base64,")
}

func readJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	return m
}

func TestCompleteTextOnlyUsesPlainContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := readJSON(t, r)
		raw, _ := json.Marshal(m)
		assert.Equal(t, "just text", gjson.GetBytes(raw, "messages.0.content").String())
		chatReply(t, w, "ok")
	}))
	defer srv.Close()

	out, err := testProvider(t, srv.URL).Complete(context.Background(), "just text", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestThrottleWaitsMinInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "ok")
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	now := time.Unix(1000, 0)
	var slept []time.Duration
	p.now = func() time.Time { return now }
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}

	_, err := p.Complete(context.Background(), "first", nil)
	require.NoError(t, err)
	assert.Empty(t, slept, "first call is not throttled")

	now = now.Add(2 * time.Second)
	_, err = p.Complete(context.Background(), "second", nil)
	require.NoError(t, err)
	require.Len(t, slept, 1)
	assert.Equal(t, 5*time.Second, slept[0])
}

func TestRateLimitRetriesOnceAfterDelay(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		chatReply(t, w, "after retry")
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	out, err := p.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "after retry", out)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, slept, 1)
	assert.Equal(t, 15*time.Second, slept[0])
}

func TestRateLimitSecondFailureIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := testProvider(t, srv.URL)
	p.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := p.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)
	var oerr *types.Error
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, types.ErrOracleRateLimited, oerr.Code)
}

func TestCompleteRecordsCallMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "ok")
	}))
	defer srv.Close()

	ns := fmt.Sprintf("oracle_test_%d", time.Now().UnixNano())
	p := testProvider(t, srv.URL)
	p.Metrics = metrics.NewCollector(ns, nil)

	_, err := p.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)

	expected := strings.NewReader(fmt.Sprintf(`
# HELP %[1]s_oracle_requests_total Total number of oracle completions by status
# TYPE %[1]s_oracle_requests_total counter
%[1]s_oracle_requests_total{status="ok"} 1
`, ns))
	require.NoError(t, promtestutil.GatherAndCompare(prometheus.DefaultGatherer, expected, ns+"_oracle_requests_total"))
}

func TestCompleteRecordsRateLimitedMetric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ns := fmt.Sprintf("oracle_test_%d", time.Now().UnixNano())
	p := testProvider(t, srv.URL)
	p.Metrics = metrics.NewCollector(ns, nil)
	p.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := p.Complete(context.Background(), "prompt", nil)
	require.Error(t, err)

	expected := strings.NewReader(fmt.Sprintf(`
# HELP %[1]s_oracle_requests_total Total number of oracle completions by status
# TYPE %[1]s_oracle_requests_total counter
%[1]s_oracle_requests_total{status="rate_limited"} 1
`, ns))
	require.NoError(t, promtestutil.GatherAndCompare(prometheus.DefaultGatherer, expected, ns+"_oracle_requests_total"))
}

func TestUpstreamErrorMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer srv.Close()

	_, err := testProvider(t, srv.URL).Complete(context.Background(), "prompt", nil)
	var oerr *types.Error
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, types.ErrOracleUpstream, oerr.Code)
	assert.Equal(t, "boom", oerr.Message)
	assert.True(t, oerr.Retryable)
}

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Plan
	}{
		{
			name: "bare json",
			raw:  `{"action":"click","selector":"#buy","reasoning":"try checkout"}`,
			want: Plan{Action: "click", Selector: "#buy", Reasoning: "try checkout"},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"action\":\"fill\",\"selector\":\"#q\",\"text\":\"hats\"}\n```",
			want: Plan{Action: "fill", Selector: "#q", Text: "hats"},
		},
		{
			name: "prose before payload",
			raw:  `Sure, here is my plan: {"action":"navigate","url":"https://example.com/docs"}`,
			want: Plan{Action: "navigate", URL: "https://example.com/docs"},
		},
		{
			name: "value aliases text",
			raw:  `{"action":"fill","selector":"#q","value":"hats"}`,
			want: Plan{Action: "fill", Selector: "#q", Text: "hats", Value: "hats"},
		},
		{
			name: "done",
			raw:  `{"action":"done","reasoning":"covered everything"}`,
			want: Plan{Action: "done", Reasoning: "covered everything"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePlan(tt.raw))
		})
	}
}

func TestParsePlanGarbageIsDone(t *testing.T) {
	for _, raw := range []string{"", "I could not decide on an action.", "```\nnot json\n```"} {
		plan := ParsePlan(raw)
		assert.True(t, plan.Done(), "raw %q should parse as done", raw)
	}
}

func TestParseDefects(t *testing.T) {
	raw := "```json\n" + `{"defects":[
		{"title":"Cart total wrong","severity":"High","category":"Functional","description":"off by one"},
		{"title":"  ","severity":"Low"},
		{"summary":"Footer overlaps content","severity":"weird"}
	]}` + "\n```"
	defects := ParseDefects(raw)
	require.Len(t, defects, 2)
	assert.Equal(t, "Cart total wrong", defects[0].Title)
	assert.Equal(t, "High", defects[0].Severity)
	assert.Equal(t, "Footer overlaps content", defects[1].Title)
	assert.Equal(t, "weird", defects[1].Severity)
}

func TestParseDefectsBareArray(t *testing.T) {
	defects := ParseDefects(`[{"title":"Broken search","severity":"Medium"}]`)
	require.Len(t, defects, 1)
	assert.Equal(t, "Broken search", defects[0].Title)
}

func TestParseDefectsGarbage(t *testing.T) {
	assert.Empty(t, ParseDefects("no findings here"))
	assert.Empty(t, ParseDefects(`{"note":"nothing"}`))
}
