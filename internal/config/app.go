package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/saxil/mareen/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"MAREEN_RUNTIME_PATH" envDefault:".mareen"`

	// Identity ("soul") file; defaults to soul.md inside the runtime path.
	IdentityFile string `env:"MAREEN_IDENTITY_FILE"`
	// Optional guard pattern overrides; defaults to guard.yaml inside the runtime path.
	GuardFile string `env:"MAREEN_GUARD_FILE"`

	// Token budget for the live conversation sent to the model.
	HistoryTokenBudget int `env:"MAREEN_HISTORY_TOKENS" envDefault:"3000"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := ParseAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c, nil
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "mareen.db")
}

func (c AppConfig) GetIdentityPath() string {
	if c.IdentityFile != "" {
		return c.IdentityFile
	}
	return filepath.Join(c.RuntimePath, "soul.md")
}

func (c AppConfig) GetGuardPath() string {
	if c.GuardFile != "" {
		return c.GuardFile
	}
	return filepath.Join(c.RuntimePath, "guard.yaml")
}
