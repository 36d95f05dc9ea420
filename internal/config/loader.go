package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from .env, config files, and
// environment variables.
func Load(opts LoaderOptions) (Config, error) {
	// Load .env into the process environment first so both viper and the
	// legacy GITHUB_* variables see it. Missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "ghaudit"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "GHAUDIT"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = expandEnvVars(cfg)
	cfg = applyAuditEnv(cfg)

	return cfg, nil
}

// applyAuditEnv honors the original audit environment contract: GITHUB_TOKEN,
// GITHUB_ORGANIZATION, GITHUB_REPOSITORIES, and OUTPUT_CSV_PREFIX take effect
// whenever the corresponding config field is unset.
func applyAuditEnv(cfg Config) Config {
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitHub.Organization == "" {
		cfg.GitHub.Organization = os.Getenv("GITHUB_ORGANIZATION")
	}
	if cfg.GitHub.Repositories == "" {
		cfg.GitHub.Repositories = os.Getenv("GITHUB_REPOSITORIES")
	}
	if prefix := os.Getenv("OUTPUT_CSV_PREFIX"); prefix != "" && cfg.Output.CSVPrefix == defaultCSVPrefix {
		cfg.Output.CSVPrefix = prefix
	}
	return cfg
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	for name, provider := range cfg.Providers {
		provider.APIKey = expandEnvString(provider.APIKey)
		provider.Model = expandEnvString(provider.Model)

		if provider.Timeout != nil {
			timeout := expandEnvString(*provider.Timeout)
			provider.Timeout = &timeout
		}
		if provider.InitialBackoff != nil {
			backoff := expandEnvString(*provider.InitialBackoff)
			provider.InitialBackoff = &backoff
		}
		if provider.MaxBackoff != nil {
			backoff := expandEnvString(*provider.MaxBackoff)
			provider.MaxBackoff = &backoff
		}

		cfg.Providers[name] = provider
	}

	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.GitHub.Organization = expandEnvString(cfg.GitHub.Organization)
	cfg.GitHub.Repositories = expandEnvString(cfg.GitHub.Repositories)
	cfg.GitHub.BaseURL = expandEnvString(cfg.GitHub.BaseURL)

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Output.CSVPrefix = expandEnvString(cfg.Output.CSVPrefix)

	cfg.Store.Path = expandEnvString(cfg.Store.Path)

	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)

	cfg.Server.Addr = expandEnvString(cfg.Server.Addr)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
// Unset variables are removed rather than kept, so an absent secret reads as
// empty instead of a literal placeholder.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})

	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})

	return s
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

const defaultCSVPrefix = "github_audit_report"

func setDefaults(v *viper.Viper) {
	// GitHub defaults
	v.SetDefault("github.baseURL", "https://api.github.com")
	v.SetDefault("github.timeout", "15s")
	v.SetDefault("github.perPage", 100)
	v.SetDefault("github.rateLimit", 5.0)
	v.SetDefault("github.burst", 10)
	v.SetDefault("github.workers", 4)

	// HTTP defaults
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// Output defaults
	v.SetDefault("output.directory", "audit_data")
	v.SetDefault("output.csvPrefix", defaultCSVPrefix)

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.redactTokens", true)

	// Server defaults
	v.SetDefault("server.addr", ":8001")

	// Provider defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.apiKey", "${OPENAI_API_KEY}")
	v.SetDefault("providers.anthropic.model", "claude-3-5-haiku-20241022")
	v.SetDefault("providers.anthropic.apiKey", "${ANTHROPIC_API_KEY}")
	v.SetDefault("providers.static.model", "static-v1")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./ghaudit.db"
	}
	return filepath.Join(home, ".config", "ghaudit", "audits.db")
}
