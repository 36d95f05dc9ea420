package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/assetze/ghaudit/internal/adapter/api"
	"github.com/assetze/ghaudit/internal/adapter/cli"
	githubadapter "github.com/assetze/ghaudit/internal/adapter/github"
	"github.com/assetze/ghaudit/internal/adapter/llm/anthropic"
	"github.com/assetze/ghaudit/internal/adapter/llm/openai"
	"github.com/assetze/ghaudit/internal/adapter/llm/static"
	"github.com/assetze/ghaudit/internal/adapter/output/csvreport"
	"github.com/assetze/ghaudit/internal/adapter/store/sqlite"
	"github.com/assetze/ghaudit/internal/adapter/transport"
	"github.com/assetze/ghaudit/internal/config"
	"github.com/assetze/ghaudit/internal/usecase/audit"
	"github.com/assetze/ghaudit/internal/usecase/workflow"
	"github.com/assetze/ghaudit/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "ghaudit",
		EnvPrefix:   "GHAUDIT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Logging)

	client := buildGitHubClient(cfg, logger)
	verifier := githubadapter.NewVerifier(client)

	completer := buildCompleter(cfg, logger)
	runner := workflow.NewRunner(verifier, completer, logger)

	writer := csvreport.NewWriter(cfg.Output.Directory, cfg.Output.CSVPrefix, csvreport.DefaultClock)

	var auditStore audit.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				auditStore = sqliteStore
				runner.SetRecorder(sqliteStore)
				defer sqliteStore.Close()
			}
		}
	}

	auditor := audit.NewAuditor(client, writer, auditStore, logger, cfg.GitHub.Workers)
	server := api.NewServer(runner, logger)
	diagram := workflow.NewDiagramRenderer(cfg.Output.Directory)

	repos, malformed := cfg.GitHub.SplitRepositories()
	for _, entry := range malformed {
		log.Printf("warning: skipping malformed repository entry %q (want owner/repo)", entry)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Workflow:            runner,
		Auditor:             auditor,
		Server:              server,
		Diagram:             diagram,
		DefaultToken:        cfg.GitHub.Token,
		DefaultOrganization: cfg.GitHub.Organization,
		DefaultRepositories: repos,
		DefaultAddr:         cfg.Server.Addr,
		Version:             version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ghaudit"))
	}
	return paths
}

func buildLogger(cfg config.LoggingConfig) transport.Logger {
	return transport.NewDefaultLogger(
		transport.ParseLogLevel(cfg.Level),
		transport.ParseLogFormat(cfg.Format),
		cfg.RedactTokens,
	)
}

func buildGitHubClient(cfg config.Config, logger transport.Logger) *githubadapter.Client {
	client := githubadapter.NewClient(cfg.GitHub.Token)
	if cfg.GitHub.BaseURL != "" {
		client.SetBaseURL(cfg.GitHub.BaseURL)
	}
	client.SetTimeout(transport.ParseTimeout(nil, cfg.GitHub.Timeout, 30*time.Second))
	client.SetPerPage(cfg.GitHub.PerPage)
	if cfg.GitHub.RateLimit > 0 {
		burst := cfg.GitHub.Burst
		if burst <= 0 {
			burst = 1
		}
		client.SetRateLimit(cfg.GitHub.RateLimit, burst)
	}
	client.SetRetryConfig(transport.BuildRetryConfig(config.ProviderConfig{}, cfg.HTTP))
	client.SetLogger(logger)
	return client
}

// buildCompleter selects the configured LLM provider. Missing API keys fall
// back to the static client so the workflow stays runnable offline.
func buildCompleter(cfg config.Config, logger transport.Logger) workflow.Completer {
	name := cfg.LLM.Provider
	if name == "" {
		name = "openai"
	}
	providerCfg := cfg.Providers[name]

	switch name {
	case "openai":
		if providerCfg.APIKey == "" {
			log.Printf("warning: no API key for provider %q, using static client", name)
			return static.NewProvider(providerCfg.Model)
		}
		model := providerCfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		client := openai.NewClient(providerCfg.APIKey, model)
		client.SetTimeout(transport.ParseTimeout(providerCfg.Timeout, cfg.HTTP.Timeout, 60*time.Second))
		client.SetRetryConfig(transport.BuildRetryConfig(providerCfg, cfg.HTTP))
		client.SetLogger(logger)
		return client
	case "anthropic":
		if providerCfg.APIKey == "" {
			log.Printf("warning: no API key for provider %q, using static client", name)
			return static.NewProvider(providerCfg.Model)
		}
		model := providerCfg.Model
		if model == "" {
			model = "claude-3-5-haiku-latest"
		}
		client := anthropic.NewClient(providerCfg.APIKey, model)
		client.SetTimeout(transport.ParseTimeout(providerCfg.Timeout, cfg.HTTP.Timeout, 60*time.Second))
		client.SetRetryConfig(transport.BuildRetryConfig(providerCfg, cfg.HTTP))
		client.SetLogger(logger)
		return client
	case "static":
		return static.NewProvider(providerCfg.Model)
	default:
		log.Printf("warning: unknown provider %q, using static client", name)
		return static.NewProvider(providerCfg.Model)
	}
}
