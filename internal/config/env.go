package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"github.com/rapids-dev/rapids/internal/paths"
)

const DefaultArchiveURL = "https://github.com/yanimeziani/rapids/archive/main.tar.gz"

type Env struct {
	Home       string `envconfig:"HOME"`
	Platform   string `envconfig:"PLATFORM"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"warn"`
	NoColor    bool   `envconfig:"NO_COLOR" default:"false"`
	SourceDir  string `envconfig:"SOURCE_DIR"`
	ArchiveURL string `envconfig:"ARCHIVE_URL"`
	S3Region   string `envconfig:"S3_REGION" default:"us-east-1"`
	Precache   bool   `envconfig:"PRECACHE" default:"false"`
}

const namespace = "RAPIDS"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if env.ArchiveURL == "" {
		env.ArchiveURL = DefaultArchiveURL
	}
	return &env, nil
}

func (e *Env) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// HomeDir returns RAPIDS_HOME when set, otherwise the user's home directory.
func (e *Env) HomeDir() (string, error) {
	if e != nil && e.Home != "" {
		return e.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return home, nil
}

// Profile returns the platform profile, honoring RAPIDS_PLATFORM.
func (e *Env) Profile() paths.Profile {
	if e != nil && e.Platform != "" {
		return paths.ProfileFor(e.Platform)
	}
	return paths.ProfileFor(runtime.GOOS)
}

func (e *Env) Resolver() (*paths.Resolver, error) {
	home, err := e.HomeDir()
	if err != nil {
		return nil, err
	}
	return paths.NewResolver(home, e.Profile()), nil
}
