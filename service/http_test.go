package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	config "github.com/insightfinder/sampler-agent/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, AgentName, r.URL.Query().Get("agent"))
		assert.Equal(t, "main", r.URL.Query().Get("source"))
		fmt.Fprintln(w, "42")
	}))
	defer srv.Close()

	svc, err := NewHTTP(config.ServiceConfig{
		URL:     srv.URL,
		Timeout: "2s",
		Params:  map[string]string{"source": "main"},
	})
	require.NoError(t, err)

	v, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestHTTPJSONPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"value":7,"label":"calls"}}`)
	}))
	defer srv.Close()

	svc, err := NewHTTP(config.ServiceConfig{URL: srv.URL, JSONPath: "data.value", Timeout: "2s"})
	require.NoError(t, err)

	v, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, err := NewHTTP(config.ServiceConfig{URL: srv.URL, Timeout: "2s"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query")
}

func TestHTTPTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	svc, err := NewHTTP(config.ServiceConfig{URL: srv.URL, Timeout: "50ms"})
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.Get(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		jsonPath string
		want     int
		wantErr  string
	}{
		{name: "plain", body: "12\n", want: 12},
		{name: "negative", body: " -3 ", want: -3},
		{name: "plain garbage", body: "twelve", wantErr: "not an integer"},
		{name: "json number", body: `{"v":5}`, jsonPath: "v", want: 5},
		{name: "json string", body: `{"v":"9"}`, jsonPath: "v", want: 9},
		{name: "json nested array", body: `{"items":[{"n":1},{"n":2}]}`, jsonPath: "items.1.n", want: 2},
		{name: "json fraction", body: `{"v":1.5}`, jsonPath: "v", wantErr: "not an integer"},
		{name: "json bool", body: `{"v":true}`, jsonPath: "v", wantErr: "not a number"},
		{name: "json missing", body: `{"v":1}`, jsonPath: "w", wantErr: "not found"},
		{name: "json invalid", body: `{"v":`, jsonPath: "v", wantErr: "not valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.body, tt.jsonPath)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
