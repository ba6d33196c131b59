package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"labourconnect/pkg/cfg"
)

type Config struct {
	Version   string     `yaml:"version" env-default:"v1"`
	Server    Server     `yaml:"server"`
	Cache     Cache      `yaml:"cache"`
	Services  []Service  `yaml:"services"`
	Endpoints []Endpoint `yaml:"endpoints"`
	Includes  []string   `yaml:"includes"`
}

type Server struct {
	Address            string `yaml:"address"              env:"SERVER_ADDR"              env-default:":8080"`
	ReadTimeoutSec     int    `yaml:"read_timeout_sec"     env:"SERVER_READ_TIMEOUT"      env-default:"15"`
	WriteTimeoutSec    int    `yaml:"write_timeout_sec"    env:"SERVER_WRITE_TIMEOUT"     env-default:"15"`
	IdleTimeoutSec     int    `yaml:"idle_timeout_sec"     env:"SERVER_IDLE_TIMEOUT"      env-default:"60"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec" env:"SERVER_SHUTDOWN_TIMEOUT"  env-default:"15"`
	// RoleSecret is shared with the auth layer in front of the edge. X-User-Role is
	// trusted only on requests carrying it in X-Role-Secret; empty trusts nobody.
	RoleSecret string `yaml:"role_secret" env:"SERVER_ROLE_SECRET" json:"-"`
}

// Cache configures the response cache store. TTL is the default for endpoints
// without cache_ttl and must be positive; unlike cache_ttl, zero is rejected.
type Cache struct {
	Driver          string `yaml:"driver"           env:"CACHE_DRIVER"           env-default:"memory"`
	Host            string `yaml:"host"             env:"CACHE_HOST"             env-default:"localhost"`
	Port            int    `yaml:"port"             env:"CACHE_PORT"             env-default:"6379"`
	Db              int    `yaml:"db"               env:"CACHE_DB"               env-default:"0"`
	Pass            string `yaml:"password"         env:"CACHE_PASSWORD"         env-default:"" json:"-"`
	Prefix          string `yaml:"prefix"           env:"CACHE_PREFIX"           env-default:"labourconnect"`
	TTL             string `yaml:"ttl"              env:"CACHE_TTL"              env-default:"300s"`
	CleanupInterval string `yaml:"cleanup_interval" env:"CACHE_CLEANUP_INTERVAL" env-default:"10m"`
}

type Service struct {
	Name     string `yaml:"name"`
	ProxyURL string `yaml:"proxy_url"`
	Timeout  string `yaml:"timeout"`
}

type Endpoint struct {
	Path            string            `yaml:"path"`
	Method          string            `yaml:"method"`
	Backend         *Backend          `yaml:"backend,omitempty"`
	Calls           []AggCall         `yaml:"calls,omitempty"`
	ResponseMapping map[string]string `yaml:"response_mapping,omitempty"`
	FailOnError     *bool             `yaml:"fail_on_error,omitempty"`
	// CacheNamespace turns on the response cache for a GET endpoint.
	CacheNamespace string `yaml:"cache_namespace,omitempty"`
	// CacheTTL overrides cache.ttl for this endpoint.
	CacheTTL string `yaml:"cache_ttl,omitempty"`
	// Invalidates lists namespace prefixes cleared after a 2xx answer.
	Invalidates []string `yaml:"invalidates,omitempty"`
	// Roles restricts the endpoint to callers whose X-User-Role is listed.
	Roles []string `yaml:"roles,omitempty"`
}

type Backend struct {
	Service string `yaml:"service"`
	Path    string `yaml:"path"`
	Method  string `yaml:"method"`
}

type AggCall struct {
	Name    string            `yaml:"name"` // key in the aggregated JSON
	Service string            `yaml:"service"`
	Path    string            `yaml:"path"`
	Method  string            `yaml:"method"`
	Mapping map[string]string `yaml:"mapping,omitempty"` // { "title": "title", "body": "body" }
}

type FinalConfig struct {
	Server    Server
	Cache     Cache
	Services  []Service
	Endpoints []Endpoint
}

// Load reads a config from a file path or from inline YAML, then applies env overrides.
func Load(src string) (*Config, error) {
	var c Config
	if isInlineYAML(src) {
		if err := yaml.Unmarshal([]byte(src), &c); err != nil {
			return nil, fmt.Errorf("parse inline config: %w", err)
		}
	} else if err := cleanenv.ReadConfig(src, &c); err != nil {
		return nil, fmt.Errorf("read config %q: %w", src, err)
	}

	if err := cleanenv.ReadEnv(&c); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &c, nil
}

// isInlineYAML reports whether src is config content rather than a path.
// An existing file always wins.
func isInlineYAML(src string) bool {
	if fi, err := os.Stat(src); err == nil && !fi.IsDir() {
		return false
	}
	if strings.Contains(src, "\n") {
		return true
	}
	for _, section := range []string{"server:", "cache:", "services:", "endpoints:"} {
		if strings.Contains(src, section) {
			return true
		}
	}
	return false
}

// Build loads configPath and, for v2 configs, merges the services and endpoints of its includes.
func Build(configPath string) (*FinalConfig, error) {
	raw, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	fc := &FinalConfig{
		Server:    raw.Server,
		Cache:     raw.Cache,
		Services:  append([]Service(nil), raw.Services...),
		Endpoints: append([]Endpoint(nil), raw.Endpoints...),
	}

	if raw.Version == "v1" || len(raw.Includes) == 0 {
		return fc, nil
	}

	files, err := includeFiles(filepath.Dir(configPath), cfg.String("APP_ENV", "dev"), raw.Includes)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		part, err := readInclude(file)
		if err != nil {
			return nil, err
		}
		fc.Services = append(fc.Services, part.Services...)
		fc.Endpoints = append(fc.Endpoints, part.Endpoints...)
	}
	return fc, nil
}

// include is the part of a config an included file may contribute.
type include struct {
	Services  []Service  `yaml:"services"`
	Endpoints []Endpoint `yaml:"endpoints"`
}

// includeFiles expands the include globs relative to baseDir, with {env} replaced by env.
// A file matched by several patterns is returned once, in first match order.
func includeFiles(baseDir, env string, patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	for _, pattern := range patterns {
		glob := strings.ReplaceAll(pattern, "{env}", env)
		if !filepath.IsAbs(glob) {
			glob = filepath.Join(baseDir, glob)
		}

		matches, err := filepath.Glob(glob)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}

func readInclude(file string) (include, error) {
	var part include
	data, err := os.ReadFile(file)
	if err != nil {
		return part, fmt.Errorf("read include %q: %w", file, err)
	}
	if err := yaml.Unmarshal(data, &part); err != nil {
		return part, fmt.Errorf("parse include %q: %w", file, err)
	}
	return part, nil
}

// Pretty renders the final config as YAML for logging, with secrets blanked.
func (fc *FinalConfig) Pretty() (string, error) {
	redacted := *fc
	if redacted.Server.RoleSecret != "" {
		redacted.Server.RoleSecret = "***"
	}
	if redacted.Cache.Pass != "" {
		redacted.Cache.Pass = "***"
	}
	b, err := yaml.Marshal(redacted)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(b), nil
}
