package esclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinted/elasticsearch_exporter/pkg/config"
)

func testServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *config.Config) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{ElasticsearchURL: srv.URL, CertificateValidation: config.CertFull}
	return srv, cfg
}

func TestGetMergesDefaultQueryParameters(t *testing.T) {
	var gotQuery string
	srv, cfg := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"ok":true}`))
	})
	_ = srv

	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/_cluster/health", nil)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "format=json")
	assert.Contains(t, gotQuery, "bytes=b")
	assert.Contains(t, gotQuery, "time=ms")
	assert.Contains(t, gotQuery, "local=true")
}

func TestGetNonOKStatusIsError(t *testing.T) {
	_, cfg := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/_cat/indices", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClusterNameParsesResponse(t *testing.T) {
	_, cfg := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cluster_name":"prod-1","status":"green"}`))
	})

	c, err := New(cfg)
	require.NoError(t, err)

	name, err := c.ClusterName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prod-1", name)
}

func TestBasicAuthSetWhenUsernameConfigured(t *testing.T) {
	var gotUser, gotPass string
	var gotOK bool
	_, cfg := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
		w.Write([]byte(`{}`))
	})
	cfg.ElasticsearchUsername = "elastic"
	cfg.ElasticsearchPassword = "changeme"

	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.True(t, gotOK)
	assert.Equal(t, "elastic", gotUser)
	assert.Equal(t, "changeme", gotPass)
}
