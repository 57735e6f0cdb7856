package allocations

import (
	"github.com/mitchellh/cli"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Inspect and release recorded numbering allocations"
}

func (c *Command) Help() string {
	return `Usage: sculptor allocations <subcommand> [options] [args]

  This command groups subcommands for working with the registry store
  of numbering-id allocations.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}
