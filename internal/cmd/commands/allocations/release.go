package allocations

import (
	"flag"
	"fmt"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/config"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/db"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/models"
)

type ReleaseCommand struct {
	*base.Command

	flagConfig   string
	flagDocument string
	flagDryRun   bool
}

func (c *ReleaseCommand) Synopsis() string {
	return "Release every active allocation of a document"
}

func (c *ReleaseCommand) Help() string {
	return `Usage: sculptor allocations release [options]

  This command marks every active numbering-id allocation of a document
  released, making the ids reusable by later builds. Run it when a
  document's processing is finished or abandoned.` +
		c.Flags().Help()
}

func (c *ReleaseCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("release", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL config file. Defaults apply when omitted.",
	)
	f.StringVar(
		&c.flagDocument, "document", "",
		"(Required) Document id whose allocations are released.",
	)
	f.BoolVar(
		&c.flagDryRun, "dry-run", false,
		"Only print what would be released without making changes.",
	)

	return f
}

func (c *ReleaseCommand) Run(args []string) int {
	ui := c.UI

	// Parse flags.
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	// Validate flags.
	if c.flagDocument == "" {
		ui.Error("document flag is required")
		return 1
	}
	documentID, err := docid.ParseDocumentID(c.flagDocument)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing document flag: %v", err))
		return 1
	}

	// Parse configuration.
	cfg := config.Default()
	if c.flagConfig != "" {
		cfg, err = config.NewConfig(c.flagConfig)
		if err != nil {
			ui.Error(fmt.Sprintf("error parsing config file: %v", err))
			return 1
		}
	}

	// Initialize the registry store.
	database, err := db.NewDB(cfg.RegistryStore)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing registry store: %v", err))
		return 1
	}

	if c.flagDryRun {
		var active models.BulletAllocations
		if err := active.FindActiveByDocument(database, documentID); err != nil {
			ui.Error(fmt.Sprintf("error fetching allocations: %v", err))
			return 1
		}
		for _, a := range active {
			ui.Output(fmt.Sprintf("would release numId=%d abstractNumId=%d section=%q",
				a.NumID, a.AbstractNumID, a.SectionName))
		}
		ui.Info(fmt.Sprintf("would release %d allocation(s) for document %s",
			len(active), documentID))
		return 0
	}

	released, err := models.ReleaseDocument(database, documentID)
	if err != nil {
		ui.Error(fmt.Sprintf("error releasing allocations: %v", err))
		return 1
	}
	ui.Info(fmt.Sprintf("released %d allocation(s) for document %s",
		released, documentID))

	return 0
}
