// Package meta holds build-time identifying information shared across the
// exporter, such as the user agent string sent to Elasticsearch.
package meta

// Version is overridden at build time via -ldflags.
var Version = "dev"
