package directory

import (
	"Paddock/internal/api/config"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDirectoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/profiles/p-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p-1","full_name":"Ayrton Senna","email":"ayrton@example.com"}`))
	})
	mux.HandleFunc("/vehicles/v-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"v-1","year":2021,"make":"Porsche","model":"911"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProfileDirectoryResolve(t *testing.T) {
	srv := newDirectoryServer(t)
	profiles := NewProfileDirectory(config.DirectoryConfig{BaseURL: srv.URL, Timeout: 2})

	p, err := profiles.Resolve(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Ayrton Senna", p.FullName)
	assert.Equal(t, "ayrton@example.com", p.Email)
}

func TestProfileDirectoryResolveMissing(t *testing.T) {
	srv := newDirectoryServer(t)
	profiles := NewProfileDirectory(config.DirectoryConfig{BaseURL: srv.URL, Timeout: 2})

	_, err := profiles.Resolve(context.Background(), "p-404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestVehicleCatalogResolve(t *testing.T) {
	srv := newDirectoryServer(t)
	vehicles := NewVehicleCatalog(config.DirectoryConfig{BaseURL: srv.URL, Timeout: 2})

	v, err := vehicles.Resolve(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Equal(t, "2021 Porsche 911", v.Label())
}

func TestVehicleCatalogUnreachable(t *testing.T) {
	vehicles := NewVehicleCatalog(config.DirectoryConfig{BaseURL: "http://127.0.0.1:1", Timeout: 1})

	_, err := vehicles.Resolve(context.Background(), "v-1")
	assert.Error(t, err)
}
