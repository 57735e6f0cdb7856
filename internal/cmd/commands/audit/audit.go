package audit

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
	docaudit "github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/audit"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
)

type Command struct {
	*base.Command

	flagJSON  bool
	flagStyle string
}

func (c *Command) Synopsis() string {
	return "Analyze a document's bullet numbering structure"
}

func (c *Command) Help() string {
	return `Usage: sculptor audit [options] <document.docx>

  Inspect the document package and print every structural numbering
  issue found. Nothing is modified. Exits 0 when the document is clean,
  1 when issues were found and 2 on usage or IO errors.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("audit", flag.ExitOnError))

	f.BoolVar(
		&c.flagJSON, "json", false,
		"Print issues as a JSON array instead of one line per issue.",
	)
	f.StringVar(
		&c.flagStyle, "style", "",
		"Bullet style id to verify. Defaults to the engine's style.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 2
	}
	if len(flags.Args()) != 1 {
		ui.Error("exactly one document path is required")
		ui.Output(c.Help())
		return 2
	}
	path := flags.Args()[0]

	pkg, err := docpkg.Open(afero.NewOsFs(), path)
	if err != nil {
		ui.Error(fmt.Sprintf("error opening document: %v", err))
		return 2
	}

	auditor := docaudit.New(&docaudit.Config{
		BulletStyleID: c.flagStyle,
		Logger:        logger,
	})
	issues, err := auditor.Analyze(pkg)
	if err != nil {
		ui.Error(fmt.Sprintf("error analyzing document: %v", err))
		return 2
	}

	if c.flagJSON {
		out, err := json.MarshalIndent(issues, "", "  ")
		if err != nil {
			ui.Error(fmt.Sprintf("error encoding issues: %v", err))
			return 2
		}
		ui.Output(string(out))
	} else {
		for _, issue := range issues {
			ui.Output(issue.String())
		}
		ui.Output(fmt.Sprintf("%d issue(s) in %s", len(issues), path))
	}

	if len(issues) > 0 {
		return 1
	}
	return 0
}
