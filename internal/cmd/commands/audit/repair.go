package audit

import (
	"flag"
	"fmt"

	"github.com/spf13/afero"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
	docaudit "github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/audit"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
)

type RepairCommand struct {
	*base.Command

	flagDryRun bool
	flagOut    string
	flagStyle  string
}

func (c *RepairCommand) Synopsis() string {
	return "Apply auto-fixes for a document's numbering issues"
}

func (c *RepairCommand) Help() string {
	return `Usage: sculptor repair [options] <document.docx>

  Analyze the document and apply every auto-fixable repair: missing
  namespace declarations, level-less numbering references, empty or
  missing abstract definitions and the absent bullet style. Issues that
  need the full engine are reported and left alone. The document is
  rewritten in place unless -out is given.` +
		c.Flags().Help()
}

func (c *RepairCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("repair", flag.ExitOnError))

	f.BoolVar(
		&c.flagDryRun, "dry-run", false,
		"Only print what would be repaired without writing the document.",
	)
	f.StringVar(
		&c.flagOut, "out", "",
		"Write the repaired document to this path instead of in place.",
	)
	f.StringVar(
		&c.flagStyle, "style", "",
		"Bullet style id to verify. Defaults to the engine's style.",
	)

	return f
}

func (c *RepairCommand) Run(args []string) int {
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
	out := c.flagOut
	if out == "" {
		out = path
	}

	fs := afero.NewOsFs()
	pkg, err := docpkg.Open(fs, path)
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
	if len(issues) == 0 {
		ui.Output(fmt.Sprintf("%s is clean; nothing to repair", path))
		return 0
	}

	if c.flagDryRun {
		fixable := 0
		for _, issue := range issues {
			marker := "skip"
			if issue.AutoFixable {
				marker = "fix"
				fixable++
			}
			ui.Output(fmt.Sprintf("[%s] %s", marker, issue))
		}
		ui.Output(fmt.Sprintf("%d of %d issue(s) would be repaired", fixable, len(issues)))
		return 0
	}

	actions, err := auditor.Repair(pkg, issues)
	if err != nil {
		ui.Error(fmt.Sprintf("error repairing document: %v", err))
		return 2
	}
	applied := 0
	for _, action := range actions {
		ui.Output(action.String())
		if action.Applied {
			applied++
		}
	}

	if applied > 0 {
		if err := pkg.Save(fs, out); err != nil {
			ui.Error(fmt.Sprintf("error writing document: %v", err))
			return 2
		}
		ui.Output(fmt.Sprintf("repaired %d of %d issue(s); wrote %s", applied, len(actions), out))
	} else {
		ui.Output(fmt.Sprintf("repaired 0 of %d issue(s); document unchanged", len(actions)))
	}

	if applied < len(actions) {
		// Something needs the full engine (sculptor reconcile) or a
		// human decision.
		return 1
	}
	return 0
}
