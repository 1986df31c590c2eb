package llm

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Complete(t *testing.T) {
	var gotAuth string
	var gotReq completionRequest

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hello there"}},
			},
		})
	})

	client := NewClient(
		NewRoundRobinSelector([]string{"sk-test"}),
		WithEndpoint(srv.URL),
		WithModel("test-model"),
	)

	content, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", content)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.InDelta(t, DefaultTemperature, gotReq.Temperature, 0.001)
	assert.Len(t, gotReq.Messages, 2)
}

func TestClient_Complete_ProviderError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := NewClient(NewRoundRobinSelector([]string{"sk-test"}), WithEndpoint(srv.URL))

	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestClient_Complete_NoChoices(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	client := NewClient(NewRoundRobinSelector([]string{"sk-test"}), WithEndpoint(srv.URL))

	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorContains(t, err, "no choices")
}

type recordedRequest struct {
	model    string
	status   string
	duration time.Duration
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) RecordLLMRequest(_ context.Context, model, status string, duration time.Duration) {
	f.requests = append(f.requests, recordedRequest{model: model, status: status, duration: duration})
}

func TestClient_Complete_RecordsTelemetry(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	})

	recorder := &fakeRecorder{}
	client := NewClient(
		NewRoundRobinSelector([]string{"sk-test"}),
		WithEndpoint(srv.URL),
		WithModel("test-model"),
		WithRecorder(recorder),
	)

	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, "test-model", recorder.requests[0].model)
	assert.Equal(t, "success", recorder.requests[0].status)
}

func TestClient_Complete_RecordsFailure(t *testing.T) {
	recorder := &fakeRecorder{}
	client := NewClient(
		NewRoundRobinSelector(nil),
		WithModel("test-model"),
		WithRecorder(recorder),
	)

	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.Error(t, err)

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, "error", recorder.requests[0].status)
}

func TestClient_CompleteOrDegrade_NoKeys(t *testing.T) {
	client := NewClient(NewRoundRobinSelector(nil))

	reply := client.CompleteOrDegrade(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Contains(t, reply, "No API keys available")
}

func TestClient_CompleteOrDegrade_Transient(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := NewClient(NewRoundRobinSelector([]string{"sk-test"}), WithEndpoint(srv.URL))

	reply := client.CompleteOrDegrade(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Contains(t, reply, "Please try again")
}

func TestParseKeyPool(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "single", raw: "sk-a", expected: []string{"sk-a"}},
		{name: "multiple with spaces", raw: "sk-a, sk-b ,sk-c", expected: []string{"sk-a", "sk-b", "sk-c"}},
		{name: "empty entries dropped", raw: "sk-a,,", expected: []string{"sk-a"}},
		{name: "empty string", raw: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseKeyPool(tt.raw))
		})
	}
}

func TestRandomSelector_Seeded(t *testing.T) {
	keys := []string{"sk-a", "sk-b", "sk-c"}
	sel := NewRandomSelector(keys, rand.New(rand.NewSource(42)))

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key, err := sel.Next()
		require.NoError(t, err)
		assert.Contains(t, keys, key)
		seen[key] = true
	}
	// With 100 draws from a fixed seed every key is hit.
	assert.Len(t, seen, 3)
}

func TestRandomSelector_Empty(t *testing.T) {
	sel := NewRandomSelector(nil, rand.New(rand.NewSource(1)))
	_, err := sel.Next()
	assert.ErrorIs(t, err, ErrNoKeys)
}

func TestRoundRobinSelector_Cycles(t *testing.T) {
	sel := NewRoundRobinSelector([]string{"sk-a", "sk-b"})

	var got []string
	for i := 0; i < 4; i++ {
		key, err := sel.Next()
		require.NoError(t, err)
		got = append(got, key)
	}
	assert.Equal(t, []string{"sk-a", "sk-b", "sk-a", "sk-b"}, got)
}
