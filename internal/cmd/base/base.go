package base

import (
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command carries the dependencies every CLI command shares.
type Command struct {
	// Log is the logger to use.
	Log hclog.Logger

	// UI is the terminal to output to.
	UI cli.Ui
}

// FlagSet wraps flag.FlagSet so command help can render its flags.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a new flag set.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help renders the flag set as the Options section of a command's help
// text.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&b, "\n  -%s", fl.Name)
		if fl.DefValue != "" && fl.DefValue != "false" {
			fmt.Fprintf(&b, " (default: %s)", fl.DefValue)
		}
		fmt.Fprintf(&b, "\n      %s\n", fl.Usage)
	})
	return b.String()
}
