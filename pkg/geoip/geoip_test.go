package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/8.8.8.8":
			w.Write([]byte(`{"status":"success","country":"United States","city":"Mountain View"}`))
		default:
			w.Write([]byte(`{"status":"fail","message":"private range"}`))
		}
	}))
	defer server.Close()

	locator := NewIPAPI(server.URL, server.Client())

	t.Run("Success", func(t *testing.T) {
		loc, err := locator.Lookup(context.Background(), "8.8.8.8")
		require.NoError(t, err)
		assert.Equal(t, "United States", loc.Country)
		assert.Equal(t, "Mountain View", loc.City)
	})

	t.Run("Lookup Failed", func(t *testing.T) {
		_, err := locator.Lookup(context.Background(), "10.0.0.1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "private range")
	})
}
