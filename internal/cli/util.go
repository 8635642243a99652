package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/config"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/paths"
)

type loggerKey struct{}

// runtimeEnv bundles what every command resolves before doing work.
type runtimeEnv struct {
	Env    *config.Env
	Paths  *paths.Resolver
	Store  *configstore.Store
	Logger *slog.Logger
}

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// resolveTargetPath returns the absolute project path named by the first
// argument, or the working directory.
func resolveTargetPath(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return resolveWorkingDirectory()
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	return abs, nil
}

func newLogger(env *config.Env, verbose bool) *slog.Logger {
	level := env.SlogLevel()
	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	useColor := !env.NoColor && isatty.IsTerminal(os.Stderr.Fd())
	return clog.New(os.Stderr, level, useColor)
}

func withLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// loadRuntime reads the environment and builds the resolver and store. The
// logger set up by the root command is reused when present.
func loadRuntime(cmd *cobra.Command) (*runtimeEnv, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	resolver, err := env.Resolver()
	if err != nil {
		return nil, err
	}
	logger, _ := commandContext(cmd).Value(loggerKey{}).(*slog.Logger)
	if logger == nil {
		verbose, _ := OptionalBoolFlag(cmd, "verbose", false)
		logger = newLogger(env, verbose)
	}
	return &runtimeEnv{
		Env:    env,
		Paths:  resolver,
		Store:  configstore.New(resolver),
		Logger: logger,
	}, nil
}
