package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><table id="tabResult"></table></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	html, err := f.Render(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, html, "tabResult")
}

func TestHTTPFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	_, err := f.Render(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Render(ctx, srv.URL)
	require.Error(t, err)
}
