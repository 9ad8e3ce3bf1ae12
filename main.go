// Package main is the entry point for the gitdeps CLI application.
// gitdeps resolves named build dependencies to local directories, cloning and
// fetching git remotes into a shared cache root when a name is a URL.
package main

import (
	"context"
	"os"

	ch "github.com/MyCarrier-DevOps/goLibMyCarrier/clickhouse"
	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/gitdeps/cmd"
	"github.com/MyCarrier-DevOps/gitdeps/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/gitdeps/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/gitdeps/internal/adapters/output"
	"github.com/MyCarrier-DevOps/gitdeps/internal/adapters/store"
	"github.com/MyCarrier-DevOps/gitdeps/internal/domain"
	"github.com/MyCarrier-DevOps/gitdeps/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/gitdeps/internal/usecases"
)

func main() {
	// Created by LoggerFactory once --verbose has been applied to LOG_LEVEL.
	var adapter *logadapter.ZapAdapter

	deps := &cmd.Dependencies{
		LoggerFactory: func() cmd.Logger {
			adapter = logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig())
			return adapter
		},

		ConfigLoader: func() (*cmd.AppConfig, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			appCfg := &cmd.AppConfig{
				SearchPaths: cfg.SearchPaths,
				CacheRoot:   cfg.CacheRoot,
				Layout:      cfg.Layout,
				AllowStale:  cfg.AllowStale,
				Credentials: cfg.Credentials,
				AuditTable:  cfg.AuditTable,
				LogLevel:    cfg.LogLevel,
				LogAppName:  cfg.LogAppName,
			}
			if cfg.ClickHouse != nil {
				appCfg.ClickHouseConfig = cfg.ClickHouse
			}
			return appCfg, nil
		},

		GitClientFactory: func(cfg *cmd.AppConfig, _ cmd.Logger) domain.GitClient {
			return git.NewGoGitClient(cfg.Credentials, adapter.Component("git"))
		},

		LocatorFactory: func(
			cfg *cmd.AppConfig,
			gitClient domain.GitClient,
			_ cmd.Logger,
		) (domain.Locator, error) {
			manager, err := usecases.NewGitWorkingCopyManager(gitClient, usecases.ManagerOptions{
				CacheRoot:  cfg.CacheRoot,
				Layout:     cfg.Layout,
				AllowStale: cfg.AllowStale,
			}, adapter.Component("working-copy"))
			if err != nil {
				return nil, err
			}
			return usecases.NewDependencyLocator(cfg.SearchPaths, manager, adapter.Component("locator")), nil
		},

		RecorderFactory: func(
			ctx context.Context,
			cfg *cmd.AppConfig,
			_ cmd.Logger,
		) (domain.ResolutionRecorder, error) {
			if cfg.ClickHouseConfig == nil {
				return nil, nil
			}
			chConfig, ok := cfg.ClickHouseConfig.(*ch.ClickhouseConfig)
			if !ok {
				return nil, newConfigTypeError("*ch.ClickhouseConfig")
			}
			return store.OpenClickHouseRecorder(ctx, chConfig, cfg.AuditTable)
		},

		OutputWriterFactory: func() domain.OutputWriter {
			return output.NewWriter()
		},

		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

func newConfigTypeError(expected string) error {
	return &configTypeError{expected: expected}
}

// configTypeError is returned when configuration type assertion fails.
type configTypeError struct {
	expected string
}

func (e *configTypeError) Error() string {
	return "invalid configuration type: expected " + e.expected
}
