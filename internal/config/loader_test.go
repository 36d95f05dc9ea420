package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvString(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret-key-123")
	t.Setenv("TEST_PATH", "/path/to/data")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand ${VAR} syntax",
			input:    "${TEST_API_KEY}",
			expected: "secret-key-123",
		},
		{
			name:     "expand $VAR syntax",
			input:    "$TEST_API_KEY",
			expected: "secret-key-123",
		},
		{
			name:     "expand in middle of string",
			input:    "key:${TEST_API_KEY}:end",
			expected: "key:secret-key-123:end",
		},
		{
			name:     "expand multiple variables",
			input:    "${TEST_API_KEY}:${TEST_PATH}",
			expected: "secret-key-123:/path/to/data",
		},
		{
			name:     "unset variable expands to empty",
			input:    "${GHAUDIT_NONEXISTENT_VAR}",
			expected: "",
		},
		{
			name:     "handle empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "handle string without variables",
			input:    "plain-text",
			expected: "plain-text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvString(tt.input))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "https://api.github.com", cfg.GitHub.BaseURL)
	assert.Equal(t, "15s", cfg.GitHub.Timeout)
	assert.Equal(t, 100, cfg.GitHub.PerPage)
	assert.Equal(t, 5.0, cfg.GitHub.RateLimit)
	assert.Equal(t, 4, cfg.GitHub.Workers)
	assert.Equal(t, "audit_data", cfg.Output.Directory)
	assert.Equal(t, "github_audit_report", cfg.Output.CSVPrefix)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Providers["openai"].Model)
	assert.Equal(t, ":8001", cfg.Server.Addr)
	assert.True(t, cfg.Logging.RedactTokens)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
github:
  organization: acme
  repositories: acme/api, acme/web
  rateLimit: 2.5
llm:
  provider: anthropic
output:
  directory: reports
server:
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghaudit.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.GitHub.Organization)
	assert.Equal(t, 2.5, cfg.GitHub.RateLimit)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "reports", cfg.Output.Directory)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_AuditEnvContract(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_from_env")
	t.Setenv("GITHUB_ORGANIZATION", "env-org")
	t.Setenv("GITHUB_REPOSITORIES", "env-org/one,env-org/two")
	t.Setenv("OUTPUT_CSV_PREFIX", "custom_prefix")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "ghp_from_env", cfg.GitHub.Token)
	assert.Equal(t, "env-org", cfg.GitHub.Organization)
	assert.Equal(t, "env-org/one,env-org/two", cfg.GitHub.Repositories)
	assert.Equal(t, "custom_prefix", cfg.Output.CSVPrefix)
}

func TestLoad_ConfigFileWinsOverAuditEnv(t *testing.T) {
	t.Setenv("GITHUB_ORGANIZATION", "env-org")

	dir := t.TempDir()
	content := "github:\n  organization: file-org\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghaudit.yaml"), []byte(content), 0o644))

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "file-org", cfg.GitHub.Organization)
}

func TestLoad_ExpandsProviderAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	cfg, err := Load(LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", cfg.Providers["openai"].APIKey)
}

func TestSplitRepositories(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		refs      []RepoRef
		malformed []string
	}{
		{
			name:  "well formed list",
			input: "acme/api, acme/web",
			refs:  []RepoRef{{Owner: "acme", Repo: "api"}, {Owner: "acme", Repo: "web"}},
		},
		{
			name:      "malformed entry skipped",
			input:     "acme/api,not-a-repo",
			refs:      []RepoRef{{Owner: "acme", Repo: "api"}},
			malformed: []string{"not-a-repo"},
		},
		{
			name:  "empty string",
			input: "",
		},
		{
			name:      "empty owner is malformed",
			input:     "/repo",
			malformed: []string{"/repo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GitHubConfig{Repositories: tt.input}
			refs, malformed := g.SplitRepositories()
			assert.Equal(t, tt.refs, refs)
			assert.Equal(t, tt.malformed, malformed)
		})
	}
}
