package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/commands/allocations"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/commands/audit"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/commands/reconcile"
	versioncommand "github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/commands/version"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"audit": func() (cli.Command, error) {
			return &audit.Command{
				Command: baseCommand,
			}, nil
		},
		"repair": func() (cli.Command, error) {
			return &audit.RepairCommand{
				Command: baseCommand,
			}, nil
		},
		"reconcile": func() (cli.Command, error) {
			return &reconcile.Command{
				Command: baseCommand,
			}, nil
		},
		"allocations": func() (cli.Command, error) {
			return &allocations.Command{
				Command: baseCommand,
			}, nil
		},
		"allocations list": func() (cli.Command, error) {
			return &allocations.ListCommand{
				Command: baseCommand,
			}, nil
		},
		"allocations release": func() (cli.Command, error) {
			return &allocations.ReleaseCommand{
				Command: baseCommand,
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncommand.Command{
				Command: baseCommand,
				Version: version.Version,
			}, nil
		},
	}
}
