package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/jwalterweatherman"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// CertificateValidation controls how strictly the Elasticsearch client
// verifies the cluster's TLS certificate.
type CertificateValidation string

const (
	CertFull    CertificateValidation = "full"
	CertPartial CertificateValidation = "partial"
	CertNone    CertificateValidation = "none"
)

// Config is the immutable options record shared read-only by every
// component: the HTTP client, every subsystem poller, the collection
// registries, and the metadata refresher all consult it but never mutate
// it after Read returns.
type Config struct {
	Bind     string   `mapstructure:"bind"`
	LogLevel LogLevel `mapstructure:"log_level"`

	ElasticsearchURL            string        `mapstructure:"elasticsearch_url"`
	ElasticsearchGlobalTimeout  time.Duration `mapstructure:"elasticsearch_global_timeout"`
	ElasticsearchUsername       string        `mapstructure:"elasticsearch_username"`
	ElasticsearchPassword       string        `mapstructure:"elasticsearch_password"`
	CertificatePath             string        `mapstructure:"certificate_path"`
	CertificateValidation       CertificateValidation

	SubsystemTimeouts        DurationMap
	SubsystemPathParameters  StringListMap
	SubsystemQueryFields     StringListMap
	SubsystemQueryFilterPath StringListMap

	PollDefaultInterval time.Duration `mapstructure:"poll_default_interval"`
	PollIntervals       DurationMap

	MetricsLifetimeDefaultInterval time.Duration `mapstructure:"metrics_lifetime_default_interval"`
	MetricsLifetimeInterval        DurationMap

	MetadataRefreshInterval time.Duration `mapstructure:"metadata_refresh_interval"`

	MetricsEnabled BoolMap
	IncludeLabels  StringListMap
	SkipLabels     StringListMap
	SkipMetrics    StringListMap

	SkipZeroMetrics bool   `mapstructure:"skip_zero_metrics"`
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

// rawConfig mirrors Config but keeps every mapping-valued option as the raw
// `key=v1,v2&key2=v3` string viper/pflag hand us, so Read can parse each
// with an error path instead of relying on an unverified mapstructure
// decode hook for custom types.
type rawConfig struct {
	Bind                  string        `mapstructure:"bind"`
	LogLevel              LogLevel      `mapstructure:"log_level"`
	ElasticsearchURL       string        `mapstructure:"elasticsearch_url"`
	ElasticsearchGlobalTimeout time.Duration `mapstructure:"elasticsearch_global_timeout"`
	ElasticsearchUsername string        `mapstructure:"elasticsearch_username"`
	ElasticsearchPassword string        `mapstructure:"elasticsearch_password"`
	CertificatePath       string        `mapstructure:"certificate_path"`
	CertificateValidation string        `mapstructure:"certificate_validation"`

	SubsystemTimeouts        string `mapstructure:"subsystem_timeouts"`
	SubsystemPathParameters  string `mapstructure:"subsystem_path_parameters"`
	SubsystemQueryFields     string `mapstructure:"subsystem_query_fields"`
	SubsystemQueryFilterPath string `mapstructure:"subsystem_query_filter_path"`

	PollDefaultInterval time.Duration `mapstructure:"poll_default_interval"`
	PollIntervals       string        `mapstructure:"poll_intervals"`

	MetricsLifetimeDefaultInterval time.Duration `mapstructure:"metrics_lifetime_default_interval"`
	MetricsLifetimeInterval        string        `mapstructure:"metrics_lifetime_interval"`

	MetadataRefreshInterval time.Duration `mapstructure:"metadata_refresh_interval"`

	MetricsEnabled string `mapstructure:"metrics_enabled"`
	IncludeLabels  string `mapstructure:"include_labels"`
	SkipLabels     string `mapstructure:"skip_labels"`
	SkipMetrics    string `mapstructure:"skip_metrics"`

	SkipZeroMetrics  bool   `mapstructure:"skip_zero_metrics"`
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

func init() {
	pflag.StringP("elasticsearch_url", "e", "http://localhost:9200", "base URL of the Elasticsearch cluster to poll")
	pflag.Duration("elasticsearch_global_timeout", 10*time.Second, "default per-request timeout")
	pflag.String("elasticsearch_username", "", "username for basic auth against Elasticsearch")
	pflag.String("elasticsearch_password", "", "password for basic auth against Elasticsearch")
	pflag.String("certificate_path", "", "path to a CA certificate to verify the cluster's TLS certificate - omit to use the system pool")
	pflag.String("certificate_validation", "full", "TLS certificate validation strictness: full, partial, or none")

	pflag.String("subsystem_timeouts", "", "per-subsystem timeout override, as subsystem=duration&subsystem2=duration")
	pflag.String("subsystem_path_parameters", "", "per-subsystem path parameters for /_nodes/{p}-style endpoints, as subsystem=p1,p2")
	pflag.String("subsystem_query_fields", "", "per-subsystem ?fields= list, as subsystem=f1,f2")
	pflag.String("subsystem_query_filter_path", "", "per-subsystem ?filter_path= list, as subsystem=p1,p2")

	pflag.Duration("poll_default_interval", 30*time.Second, "default poll tick cadence")
	pflag.String("poll_intervals", "", "per-subsystem poll interval override, as subsystem=duration")

	pflag.Duration("metrics_lifetime_default_interval", 30*time.Second, "default series TTL")
	pflag.String("metrics_lifetime_interval", "", "per-subsystem series TTL override, as subsystem=duration")

	pflag.Duration("metadata_refresh_interval", 5*time.Minute, "node metadata refresh cadence")

	pflag.String("metrics_enabled", "", "per-subsystem enable/disable, as subsystem=true&subsystem2=false")
	pflag.String("include_labels", "", "per-subsystem metric-to-label demotions, as subsystem=key1,key2")
	pflag.String("skip_labels", "", "per-subsystem label leaves to drop entirely, as subsystem=key1,key2")
	pflag.String("skip_metrics", "", "per-subsystem metric leaves to drop entirely, as subsystem=key1,key2")

	pflag.Bool("skip_zero_metrics", false, "refuse to create a series until a non-zero value arrives")
	pflag.String("metrics_namespace", "elasticsearch", "Prometheus namespace prefix")

	pflag.StringP("bind", "b", ":9114", "host:port to serve on")
	pflag.StringP("log_level", "l", "info", "level to log at")
}

// MarshalLogObject lets zap log the effective configuration structured,
// redacting the password.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("ElasticsearchURL", c.ElasticsearchURL)
	enc.AddDuration("ElasticsearchGlobalTimeout", c.ElasticsearchGlobalTimeout)
	enc.AddString("ElasticsearchUsername", c.ElasticsearchUsername)
	enc.AddString("ElasticsearchPassword", "[PRIVATE]")
	enc.AddString("CertificatePath", c.CertificatePath)
	enc.AddString("CertificateValidation", string(c.CertificateValidation))
	enc.AddDuration("PollDefaultInterval", c.PollDefaultInterval)
	enc.AddDuration("MetricsLifetimeDefaultInterval", c.MetricsLifetimeDefaultInterval)
	enc.AddDuration("MetadataRefreshInterval", c.MetadataRefreshInterval)
	enc.AddBool("SkipZeroMetrics", c.SkipZeroMetrics)
	enc.AddString("MetricsNamespace", c.MetricsNamespace)
	enc.AddString("Bind", c.Bind)
	enc.AddString("LogLevel", string(c.LogLevel))
	return nil
}

// Read parses flags, environment, and an optional YAML config file into a
// Config: pflag defaults, the ELASTICSEARCH_EXPORTER env prefix, an
// optional explicit config file, or default search paths.
func Read(path string) (*Config, error) {
	jwalterweatherman.SetStdoutThreshold(jwalterweatherman.LevelError)

	viper.SetEnvPrefix("ELASTICSEARCH_EXPORTER")
	viper.AutomaticEnv()

	_ = viper.BindEnv("elasticsearch_username", "ELASTICSEARCH_USERNAME", "ELASTICSEARCH_EXPORTER_ELASTICSEARCH_USERNAME")
	_ = viper.BindEnv("elasticsearch_password", "ELASTICSEARCH_PASSWORD", "ELASTICSEARCH_EXPORTER_ELASTICSEARCH_PASSWORD")

	_ = viper.BindPFlags(pflag.CommandLine)

	viper.SetConfigName("elasticsearch_exporter")
	viper.SetConfigType("yaml")

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()
		if err := viper.ReadConfig(file); err != nil {
			return nil, fmt.Errorf("failed to read non-default config: %w", err)
		}
	} else {
		viper.AddConfigPath("/etc/elasticsearch_exporter")
		viper.AddConfigPath(".")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read default config paths: %w", err)
			}
		}
	}

	var raw rawConfig
	if err := viper.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return raw.resolve()
}

// resolve parses rawConfig's mapping-valued strings into their typed
// Config counterparts, surfacing the first parse error with the offending
// option name.
func (raw rawConfig) resolve() (*Config, error) {
	cfg := &Config{
		Bind:                       raw.Bind,
		LogLevel:                   raw.LogLevel,
		ElasticsearchURL:           raw.ElasticsearchURL,
		ElasticsearchGlobalTimeout: raw.ElasticsearchGlobalTimeout,
		ElasticsearchUsername:      raw.ElasticsearchUsername,
		ElasticsearchPassword:      raw.ElasticsearchPassword,
		CertificatePath:            raw.CertificatePath,
		CertificateValidation:      CertificateValidation(raw.CertificateValidation),
		PollDefaultInterval:        raw.PollDefaultInterval,
		MetricsLifetimeDefaultInterval: raw.MetricsLifetimeDefaultInterval,
		MetadataRefreshInterval:    raw.MetadataRefreshInterval,
		SkipZeroMetrics:            raw.SkipZeroMetrics,
		MetricsNamespace:           raw.MetricsNamespace,
	}

	var err error
	if cfg.SubsystemTimeouts, err = parseDurationMap(raw.SubsystemTimeouts); err != nil {
		return nil, err
	}
	if cfg.SubsystemPathParameters, err = parseStringListMap(raw.SubsystemPathParameters); err != nil {
		return nil, err
	}
	if cfg.SubsystemQueryFields, err = parseStringListMap(raw.SubsystemQueryFields); err != nil {
		return nil, err
	}
	if cfg.SubsystemQueryFilterPath, err = parseStringListMap(raw.SubsystemQueryFilterPath); err != nil {
		return nil, err
	}
	if cfg.PollIntervals, err = parseDurationMap(raw.PollIntervals); err != nil {
		return nil, err
	}
	if cfg.MetricsLifetimeInterval, err = parseDurationMap(raw.MetricsLifetimeInterval); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = parseBoolMap(raw.MetricsEnabled); err != nil {
		return nil, err
	}
	if cfg.IncludeLabels, err = parseStringListMap(raw.IncludeLabels); err != nil {
		return nil, err
	}
	if cfg.SkipLabels, err = parseStringListMap(raw.SkipLabels); err != nil {
		return nil, err
	}
	if cfg.SkipMetrics, err = parseStringListMap(raw.SkipMetrics); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsMetricEnabled reports whether subsystem is enabled, defaulting to true
// when it has no explicit entry: an unmentioned subsystem is on by default,
// matching every default-interval-style fallback elsewhere in this model.
func (c *Config) IsMetricEnabled(subsystem string) bool {
	if v, ok := c.MetricsEnabled[subsystem]; ok {
		return v
	}
	return true
}

// TimeoutFor returns subsystem's request timeout, falling back to the
// global default.
func (c *Config) TimeoutFor(subsystem string) time.Duration {
	if d, ok := c.SubsystemTimeouts[subsystem]; ok {
		return d
	}
	return c.ElasticsearchGlobalTimeout
}

// PollIntervalFor returns subsystem's tick cadence, falling back to the
// default.
func (c *Config) PollIntervalFor(subsystem string) time.Duration {
	if d, ok := c.PollIntervals[subsystem]; ok {
		return d
	}
	return c.PollDefaultInterval
}

// slowChurnSubsystems are the cat endpoints whose populations change more
// slowly than most (indices, nodes, and in-flight recoveries come and go
// far less often than, say, thread-pool or segment rows): left at the
// plain default interval, an ordinary restart-induced gap would evict and
// immediately recreate their series, so they get a longer default TTL;
// an explicit metrics_lifetime_interval override still wins.
var slowChurnSubsystems = map[string]struct{}{
	"cat_indices":  {},
	"cat_nodes":    {},
	"cat_recovery": {},
}

// slowChurnMultiplier scales the default TTL for slowChurnSubsystems.
const slowChurnMultiplier = 4

// LifetimeFor returns subsystem's series TTL, falling back to the default
// (multiplied for slowChurnSubsystems).
func (c *Config) LifetimeFor(subsystem string) time.Duration {
	if d, ok := c.MetricsLifetimeInterval[subsystem]; ok {
		return d
	}
	if _, slow := slowChurnSubsystems[subsystem]; slow {
		return c.MetricsLifetimeDefaultInterval * slowChurnMultiplier
	}
	return c.MetricsLifetimeDefaultInterval
}

// nodesFamilySubsystems are the subsystems whose responses are keyed by
// node ID and therefore need the metadata map to attach a name label.
var nodesFamilySubsystems = map[string]struct{}{
	"nodes_os":    {},
	"nodes_stats": {},
	"nodes_usage": {},
	"nodes_info":  {},
}

// EnableMetadataRefresh reports whether any nodes-family subsystem is
// enabled; the metadata refresher only needs to run if something consumes
// its map.
func (c *Config) EnableMetadataRefresh() bool {
	for subsystem := range nodesFamilySubsystems {
		if c.IsMetricEnabled(subsystem) {
			return true
		}
	}
	return false
}
