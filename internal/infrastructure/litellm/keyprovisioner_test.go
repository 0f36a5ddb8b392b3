package litellm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/config"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]interface{}
}

type fakeKeyAPI struct {
	mu       sync.Mutex
	requests []capturedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeKeyAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	captured := capturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
	}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &captured.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, captured)
	f.mu.Unlock()

	f.handler(w, r)
}

func (f *fakeKeyAPI) last() capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingRecorder) RecordProvisionerRequest(op, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[op+"/"+result]++
}

func newTestProvisioner(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*KeyProvisioner, *fakeKeyAPI, *countingRecorder) {
	t.Helper()
	api := &fakeKeyAPI{handler: handler}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	rec := &countingRecorder{}
	p := NewKeyProvisioner(config.ProvisionerConfig{
		BaseURL: srv.URL + "/",
		APIKey:  "sk-master",
		Timeout: 2 * time.Second,
	}, rec, logger.NewNopLogger())
	p.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p, api, rec
}

func testSpec() subscription.CredentialSpec {
	return subscription.CredentialSpec{
		UserID:              "user-1",
		UserEmail:           "user-1@example.com",
		PlanID:              "plan-pro",
		PlanName:            "pro",
		AllowedModels:       []string{"gpt-4o", "gpt-4o-mini"},
		RequestsPerMinute:   60,
		MaxParallelRequests: 30,
	}
}

func TestKeyProvisioner_Create(t *testing.T) {
	p, api, rec := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"key":"sk-user-1","key_name":"sk-...1"}`))
	})

	id, err := p.Create(context.Background(), testSpec())
	require.NoError(t, err)
	assert.Equal(t, "sk-user-1", id)

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/key/generate", req.Path)
	assert.Equal(t, "Bearer sk-master", req.Auth)
	assert.Equal(t, "user-1", req.Body["user_id"])
	assert.Equal(t, "sub_user-1", req.Body["key_alias"])
	assert.Equal(t, []interface{}{"gpt-4o", "gpt-4o-mini"}, req.Body["models"])
	assert.Equal(t, 60.0, req.Body["rpm_limit"])
	assert.Equal(t, 30.0, req.Body["max_parallel_requests"])
	metadata := req.Body["metadata"].(map[string]interface{})
	assert.Equal(t, "user-1@example.com", metadata["user_email"])
	assert.Equal(t, "plan-pro", metadata["plan_id"])
	assert.Equal(t, 1, rec.counts["create/ok"])
}

func TestKeyProvisioner_CreateWithoutKeyInResponse(t *testing.T) {
	p, _, rec := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := p.Create(context.Background(), testSpec())

	var perr *ProvisionerError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, OpCreate, perr.Op)
	assert.Contains(t, err.Error(), "response has no key")
	assert.Equal(t, map[string]int{"create/error": 1}, rec.counts)
}

func TestKeyProvisioner_CreateWithEmptyBody(t *testing.T) {
	p, _, rec := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := p.Create(context.Background(), testSpec())

	require.Error(t, err)
	assert.Equal(t, map[string]int{"create/error": 1}, rec.counts)
}

func TestKeyProvisioner_UpdateAndDisable(t *testing.T) {
	p, api, _ := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	require.NoError(t, p.Update(ctx, "sk-1", testSpec()))
	req := api.last()
	assert.Equal(t, "/key/update", req.Path)
	assert.Equal(t, "sk-1", req.Body["key"])
	assert.Equal(t, 60.0, req.Body["rpm_limit"])
	assert.Equal(t, "2025-03-01T12:00:00Z", req.Body["metadata"].(map[string]interface{})["updated_at"])

	require.NoError(t, p.Disable(ctx, "sk-1"))
	req = api.last()
	assert.Equal(t, "/key/update", req.Path)
	assert.Equal(t, []interface{}{}, req.Body["models"])
	assert.Equal(t, 0.0, req.Body["rpm_limit"])
	assert.Equal(t, 0.0, req.Body["max_parallel_requests"])
	metadata := req.Body["metadata"].(map[string]interface{})
	assert.Equal(t, true, metadata["disabled"])
	assert.Equal(t, "2025-03-01T12:00:00Z", metadata["disabled_at"])
}

func TestKeyProvisioner_Info(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     *subscription.CredentialInfo
		wantErr  error
		enabled  bool
		notFound bool
	}{
		{
			name:   "active key",
			status: http.StatusOK,
			body:   `{"key":"sk-1","info":{"models":["gpt-4o"],"rpm_limit":60,"max_parallel_requests":30,"metadata":{"plan_id":"plan-pro"}}}`,
			want: &subscription.CredentialInfo{
				ID: "sk-1", AllowedModels: []string{"gpt-4o"}, RequestsPerMinute: 60, MaxParallelRequests: 30,
			},
			enabled: true,
		},
		{
			name:   "disabled key",
			status: http.StatusOK,
			body:   `{"key":"sk-1","info":{"models":[],"rpm_limit":0,"metadata":{"disabled":true}}}`,
			want:   &subscription.CredentialInfo{ID: "sk-1", AllowedModels: []string{}, Disabled: true},
		},
		{
			name:   "blocked key",
			status: http.StatusOK,
			body:   `{"key":"sk-1","info":{"models":["gpt-4o"],"rpm_limit":60,"blocked":true}}`,
			want:   &subscription.CredentialInfo{ID: "sk-1", AllowedModels: []string{"gpt-4o"}, RequestsPerMinute: 60, Disabled: true},
		},
		{
			name:     "missing key",
			status:   http.StatusNotFound,
			body:     `{"detail":"not found"}`,
			notFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, api, _ := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			info, err := p.Info(context.Background(), "sk-1")

			req := api.last()
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/key/info", req.Path)
			assert.Equal(t, "key=sk-1", req.Query)

			if tt.notFound {
				assert.ErrorIs(t, err, subscription.ErrCredentialNotFound)
				assert.Nil(t, info)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, info)
			assert.Equal(t, tt.enabled, info.IsEnabled())
		})
	}
}

func TestKeyProvisioner_Delete(t *testing.T) {
	p, api, _ := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deleted_keys":["sk-1"]}`))
	})

	require.NoError(t, p.Delete(context.Background(), "sk-1"))

	req := api.last()
	assert.Equal(t, "/key/delete", req.Path)
	assert.Equal(t, []interface{}{"sk-1"}, req.Body["keys"])
}

func TestKeyProvisioner_Errors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		p, _, rec := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream down"))
		})

		err := p.Update(context.Background(), "sk-1", testSpec())

		var perr *ProvisionerError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, OpUpdate, perr.Op)
		assert.Equal(t, http.StatusInternalServerError, perr.StatusCode)
		assert.Contains(t, err.Error(), "upstream down")
		assert.Equal(t, 1, rec.counts["update/error"])
	})

	t.Run("transport failure", func(t *testing.T) {
		p := NewKeyProvisioner(config.ProvisionerConfig{
			BaseURL: "http://127.0.0.1:1",
			APIKey:  "sk-master",
			Timeout: 500 * time.Millisecond,
		}, nil, logger.NewNopLogger())

		err := p.Disable(context.Background(), "sk-1")

		var perr *ProvisionerError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, OpDisable, perr.Op)
		assert.Zero(t, perr.StatusCode)
	})

	t.Run("canceled context", func(t *testing.T) {
		p, _, _ := newTestProvisioner(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"key":"sk"}`))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := p.Create(ctx, testSpec())
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestKeyProvisioner_NotConfigured(t *testing.T) {
	p := NewKeyProvisioner(config.ProvisionerConfig{BaseURL: "http://litellm:4000"}, nil, logger.NewNopLogger())
	ctx := context.Background()

	assert.False(t, p.Enabled())

	id, err := p.Create(ctx, testSpec())
	assert.NoError(t, err)
	assert.Empty(t, id)

	assert.NoError(t, p.Update(ctx, "sk-1", testSpec()))
	assert.NoError(t, p.Disable(ctx, "sk-1"))
	assert.NoError(t, p.Delete(ctx, "sk-1"))

	info, err := p.Info(ctx, "sk-1")
	assert.NoError(t, err)
	assert.Nil(t, info)
}
