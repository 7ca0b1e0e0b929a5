package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/jobdeck/jobdeck/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login    commands.LoginCmd    `cmd:"" help:"Log in to JobDeck"`
		Register commands.RegisterCmd `cmd:"" help:"Create a JobDeck account"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Log out and clear the stored session"`
		Whoami   commands.WhoamiCmd   `cmd:"" help:"Show the current session"`
		Jobs     commands.JobsCmd     `cmd:"" help:"Browse the job board"`
		Saved    commands.SavedCmd    `cmd:"" help:"Manage saved jobs"`
		Config   string               `help:"Path to a YAML config file." type:"path"`
		Debug    bool                 `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Config: cli.Config, Version: version})
	cmd.FatalIfErrorf(err)
}
