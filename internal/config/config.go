package config

import "strings"

// Config represents the full application configuration.
type Config struct {
	GitHub    GitHubConfig              `yaml:"github"`
	LLM       LLMConfig                 `yaml:"llm"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	HTTP      HTTPConfig                `yaml:"http"`
	Output    OutputConfig              `yaml:"output"`
	Store     StoreConfig               `yaml:"store"`
	Logging   LoggingConfig             `yaml:"logging"`
	Server    ServerConfig              `yaml:"server"`
}

// GitHubConfig configures access to the GitHub REST API.
type GitHubConfig struct {
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`

	// Repositories is a comma-separated list of owner/repo entries to check
	// for Dependabot status, matching the GITHUB_REPOSITORIES contract.
	Repositories string `yaml:"repositories"`

	BaseURL string `yaml:"baseURL"`
	Timeout string `yaml:"timeout"`
	PerPage int    `yaml:"perPage"`

	// RateLimit is the shared requests-per-second budget for all GitHub
	// calls; Burst is the limiter's burst size.
	RateLimit float64 `yaml:"rateLimit"`
	Burst     int     `yaml:"burst"`

	// Workers bounds the Dependabot check fan-out.
	Workers int `yaml:"workers"`
}

// RepoRef is a parsed owner/repo entry.
type RepoRef struct {
	Owner string
	Repo  string
}

// SplitRepositories parses the comma-separated repositories string into
// owner/repo pairs. Malformed entries are returned separately so callers can
// warn about them without aborting the audit.
func (g GitHubConfig) SplitRepositories() (refs []RepoRef, malformed []string) {
	for _, entry := range strings.Split(g.Repositories, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		owner, repo, ok := strings.Cut(entry, "/")
		if !ok || owner == "" || repo == "" {
			malformed = append(malformed, entry)
			continue
		}
		refs = append(refs, RepoRef{Owner: owner, Repo: repo})
	}
	return refs, malformed
}

// LLMConfig selects the active language-model provider.
type LLMConfig struct {
	Provider string `yaml:"provider"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`

	// HTTP overrides (optional, use global HTTP config if not set)
	Timeout        *string `yaml:"timeout,omitempty"`
	MaxRetries     *int    `yaml:"maxRetries,omitempty"`
	InitialBackoff *string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     *string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// OutputConfig configures report generation.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	CSVPrefix string `yaml:"csvPrefix"`
}

// StoreConfig configures the audit history store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level        string `yaml:"level"`        // debug, info, error
	Format       string `yaml:"format"`       // json, human
	RedactTokens bool   `yaml:"redactTokens"` // Redact tokens and API keys in logs
}

// ServerConfig configures the HTTP verification endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}
