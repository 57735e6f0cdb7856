package allocations

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/config"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/db"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/models"
)

type ListCommand struct {
	*base.Command

	flagConfig   string
	flagDocument string
	flagStatus   string
	flagJSON     bool
}

func (c *ListCommand) Synopsis() string {
	return "List numbering allocations recorded in the registry store"
}

func (c *ListCommand) Help() string {
	return `Usage: sculptor allocations list [options]

  This command lists the numbering-id allocations recorded in the
  registry store, optionally filtered by document or status.` +
		c.Flags().Help()
}

func (c *ListCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL config file. Defaults apply when omitted.",
	)
	f.StringVar(
		&c.flagDocument, "document", "",
		"Only list allocations belonging to this document id.",
	)
	f.StringVar(
		&c.flagStatus, "status", "",
		"Only list allocations with this status (active, released, expired).",
	)
	f.BoolVar(
		&c.flagJSON, "json", false,
		"Print the allocations as JSON.",
	)

	return f
}

func (c *ListCommand) Run(args []string) int {
	ui := c.UI

	// Parse flags.
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	// Validate flags.
	switch c.flagStatus {
	case "",
		models.AllocationStatusActive,
		models.AllocationStatusReleased,
		models.AllocationStatusExpired:
	default:
		ui.Error(fmt.Sprintf("invalid status %q", c.flagStatus))
		return 1
	}
	var documentID docid.DocumentID
	if c.flagDocument != "" {
		var err error
		documentID, err = docid.ParseDocumentID(c.flagDocument)
		if err != nil {
			ui.Error(fmt.Sprintf("error parsing document flag: %v", err))
			return 1
		}
	}

	// Parse configuration.
	cfg := config.Default()
	if c.flagConfig != "" {
		var err error
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

	// Fetch the allocations.
	var allocations models.BulletAllocations
	switch {
	case !documentID.IsZero() && c.flagStatus == models.AllocationStatusActive:
		err = allocations.FindActiveByDocument(database, documentID)
	case !documentID.IsZero() && c.flagStatus == "":
		err = allocations.FindByDocument(database, documentID)
	default:
		q := database.Order("document_id, num_id")
		if !documentID.IsZero() {
			q = q.Where("document_id = ?", documentID)
		}
		if c.flagStatus != "" {
			q = q.Where("status = ?", c.flagStatus)
		}
		err = q.Find(&allocations).Error
	}
	if err != nil {
		ui.Error(fmt.Sprintf("error fetching allocations: %v", err))
		return 1
	}

	if c.flagJSON {
		out, err := json.MarshalIndent(allocations, "", "  ")
		if err != nil {
			ui.Error(fmt.Sprintf("error encoding allocations: %v", err))
			return 1
		}
		ui.Output(string(out))
		return 0
	}

	for _, a := range allocations {
		line := fmt.Sprintf("document=%s numId=%d abstractNumId=%d status=%s",
			a.DocumentID, a.NumID, a.AbstractNumID, a.Status)
		if a.SectionName != "" {
			line += fmt.Sprintf(" section=%q", a.SectionName)
		}
		if a.StyleName != "" {
			line += fmt.Sprintf(" style=%s", a.StyleName)
		}
		ui.Output(line)
	}
	ui.Output(fmt.Sprintf("%d allocation(s)", len(allocations)))

	return 0
}
