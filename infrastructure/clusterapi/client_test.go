package clusterapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		w.Write([]byte(`{"version":{"full":"NetApp Release 9.13.1: Thu Jan 01 00:00:00 UTC 2026"}}`))
	}))
	defer server.Close()

	client := New(server.URL, "admin", "secret")
	body, err := client.Get(context.Background(), "/api/cluster")
	require.NoError(t, err)
	assert.Contains(t, string(body), "9.13.1")
}

func TestGetNonOKAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "admin", "secret")
	_, err := client.Get(context.Background(), "/api/cluster")
	require.Error(t, err)
}

func TestPaginateWalksAllPages(t *testing.T) {
	callCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if r.URL.Query().Get("start") == "" {
			w.Write([]byte(`{"records":[{"name":"vol1"}],"_links":{"next":{"href":"/api/storage/volumes?start=1"}}}`))
			return
		}
		w.Write([]byte(`{"records":[{"name":"vol2"}],"_links":{"next":{"href":""}}}`))
	}))
	defer server.Close()

	client := New(server.URL, "admin", "secret")

	var pages []json.RawMessage
	err := client.Paginate(context.Background(), "/api/storage/volumes", func(records json.RawMessage) error {
		pages = append(pages, records)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, 2, callCount)
}

func TestPaginateAbortsOnNonOKPage(t *testing.T) {
	requestNum := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestNum++
		if requestNum == 1 {
			w.Write([]byte(`{"records":[{"name":"vol1"}],"_links":{"next":{"href":"/api/storage/volumes?start=1"}}}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "admin", "secret")

	seenPages := 0
	err := client.Paginate(context.Background(), "/api/storage/volumes", func(records json.RawMessage) error {
		seenPages++
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 1, seenPages)
}
