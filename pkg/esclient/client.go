// Package esclient is the Elasticsearch HTTP client every subsystem
// poller and the metadata refresher share: base-URL request building,
// TLS/credential plumbing, and the `format=json&bytes=b&time=ms&local=true`
// query defaults every request carries. Elasticsearch is spoken over
// plain HTTP+JSON, so this is built straight on net/http rather than a
// generated REST client.
package esclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/vinted/elasticsearch_exporter/pkg/config"
	"github.com/vinted/elasticsearch_exporter/pkg/meta"
)

// Client wraps an *http.Client bound to one Elasticsearch cluster's base
// URL and credentials.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	username   string
	password   string
}

// New builds a Client from the options model: TLS verification mode per
// cfg.CertificateValidation, an optional CA certificate, and basic auth
// credentials if configured.
func New(cfg *config.Config) (*Client, error) {
	base, err := url.Parse(cfg.ElasticsearchURL)
	if err != nil {
		return nil, fmt.Errorf("esclient: invalid elasticsearch_url: %w", err)
	}

	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("esclient: building TLS config: %w", err)
	}

	transport := &http.Transport{
		TLSClientConfig:     tlsConfig,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		baseURL:    base,
		username:   cfg.ElasticsearchUsername,
		password:   cfg.ElasticsearchPassword,
	}, nil
}

func buildTLSConfig(cfg *config.Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	switch cfg.CertificateValidation {
	case config.CertNone:
		tlsConfig.InsecureSkipVerify = true
	case config.CertPartial:
		// Handled exactly like "full": both the certificate chain and the
		// server hostname are verified, against the system pool plus the
		// certificate_path CA when one is given.
		fallthrough
	case config.CertFull, "":
		if cfg.CertificatePath == "" {
			break
		}
		pem, err := os.ReadFile(cfg.CertificatePath)
		if err != nil {
			return nil, fmt.Errorf("reading certificate_path: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CertificatePath)
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// defaultQuery is merged into every request.
func defaultQuery() url.Values {
	return url.Values{
		"format": {"json"},
		"bytes":  {"b"},
		"time":   {"ms"},
		"local":  {"true"},
	}
}

// Get issues a GET against path (e.g. "/_cluster/health"), merging extra
// query parameters over the defaults, and returns the raw response body.
// A non-2xx status is an error carrying the status code and a snippet of
// the body.
func (c *Client) Get(ctx context.Context, path string, extra url.Values) ([]byte, error) {
	u := *c.baseURL
	u.Path = joinPath(u.Path, path)

	q := defaultQuery()
	for k, vs := range extra {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("esclient: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "elasticsearch_exporter/"+meta.Version)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("esclient: requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("esclient: reading response body for %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("esclient: %s returned %d: %s", path, resp.StatusCode, snippet)
	}

	return body, nil
}

func joinPath(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// Ping confirms the cluster is reachable by requesting its root document.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, "/", nil)
	return err
}

type clusterHealthName struct {
	ClusterName string `json:"cluster_name"`
}

// ClusterName fetches /_cluster/health once, returning just the cluster
// name.
func (c *Client) ClusterName(ctx context.Context) (string, error) {
	body, err := c.Get(ctx, "/_cluster/health", nil)
	if err != nil {
		return "", err
	}
	var parsed clusterHealthName
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("esclient: decoding cluster health: %w", err)
	}
	return parsed.ClusterName, nil
}
