package commands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jobdeck/jobdeck/internal/api"
	"github.com/jobdeck/jobdeck/internal/config"
	"github.com/jobdeck/jobdeck/internal/logger"
	"github.com/jobdeck/jobdeck/internal/models"
	"github.com/jobdeck/jobdeck/internal/session"
)

type Globals struct {
	Debug   bool
	Config  string
	Version string
}

// fileConfig is the optional YAML config file shape. File values override
// environment values.
type fileConfig struct {
	APIBaseURL string `yaml:"apiUrl"`
	HomeDir    string `yaml:"home"`
}

// app wires the session store and gateway client together for a command
// invocation.
type app struct {
	cfg     *config.Config
	client  *api.Client
	session *session.Store
}

func newApp(globals *Globals) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.Setup(globals.Debug || cfg.Debug)

	if globals.Config != "" {
		if err := applyConfigFile(globals.Config, cfg); err != nil {
			return nil, err
		}
	}

	home, err := cfg.ResolveHomeDir()
	if err != nil {
		return nil, err
	}

	sess := session.New(home)

	client, err := api.New(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		Token:   sess.Token,
	})
	if err != nil {
		return nil, err
	}

	sess.AttachGateway(client)

	return &app{cfg: cfg, client: client, session: sess}, nil
}

func applyConfigFile(path string, cfg *config.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.HomeDir != "" {
		cfg.HomeDir = fc.HomeDir
	}

	return nil
}

// activeRole reports the current session's role for the reconciler guard.
func (a *app) activeRole() models.Role {
	snap := a.session.Snapshot()
	if snap.Identity == nil {
		return ""
	}
	return snap.Identity.Role
}
