package version

import (
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
)

type Command struct {
	*base.Command

	Version string
}

func (c *Command) Synopsis() string {
	return "Print the version of this binary"
}

func (c *Command) Help() string {
	return `Usage: sculptor version

  This command prints the version of this binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(c.Version)
	return 0
}
