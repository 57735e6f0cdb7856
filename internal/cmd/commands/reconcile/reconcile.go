package reconcile

import (
	"context"
	"flag"
	"fmt"

	"github.com/spf13/afero"
	"gorm.io/gorm"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/cmd/base"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/config"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/db"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/models"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/numbering"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

type Command struct {
	*base.Command

	flagConfig  string
	flagOut     string
	flagPersist bool
}

func (c *Command) Synopsis() string {
	return "Sweep a document and repair its bullet numbering"
}

func (c *Command) Help() string {
	return `Usage: sculptor reconcile [options] <document.docx>

  Open the document, verify every bullet-styled paragraph against the
  numbering definitions and rebind anything absent, malformed or
  dangling. The document is rewritten in place unless -out is given.
  Exits 0 on a clean sweep, 1 when paragraph repairs failed and 2 on
  usage or IO errors.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("reconcile", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"Path to an HCL config file. Defaults apply when omitted.",
	)
	f.StringVar(
		&c.flagOut, "out", "",
		"Write the reconciled document to this path instead of in place.",
	)
	f.BoolVar(
		&c.flagPersist, "persist", false,
		"Record granted numbering ids in the configured registry store.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI
	ctx := context.Background()

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

	cfg := config.Default()
	if c.flagConfig != "" {
		var err error
		cfg, err = config.NewConfig(c.flagConfig)
		if err != nil {
			ui.Error(fmt.Sprintf("error parsing config file: %v", err))
			return 2
		}
	}

	allocatorCfg := cfg.AllocatorConfig()
	allocatorCfg.Logger = logger
	var database *gorm.DB
	if c.flagPersist {
		var err error
		database, err = db.NewDB(cfg.RegistryStore)
		if err != nil {
			ui.Error(fmt.Sprintf("error initializing registry store: %v", err))
			return 2
		}
		store, err := numbering.NewGormStore(numbering.GormStoreConfig{
			DB:     database,
			Logger: logger,
		})
		if err != nil {
			ui.Error(fmt.Sprintf("error initializing registry store: %v", err))
			return 2
		}
		allocatorCfg.Store = store
	}
	allocator, err := numbering.NewAllocator(allocatorCfg)
	if err != nil {
		ui.Error(fmt.Sprintf("error building allocator: %v", err))
		return 2
	}

	fs := afero.NewOsFs()
	pkg, err := docpkg.Open(fs, path)
	if err != nil {
		ui.Error(fmt.Sprintf("error opening document: %v", err))
		return 2
	}
	doc, err := wordml.Load(pkg)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading document: %v", err))
		return 2
	}

	reconcilerCfg := cfg.ReconcilerConfig()
	reconcilerCfg.Logger = logger

	session, err := numbering.NewSession(ctx, &numbering.SessionConfig{
		Document:   doc,
		Allocator:  allocator,
		Reconciler: numbering.NewReconciler(reconcilerCfg),
		Logger:     logger,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("error opening session: %v", err))
		return 2
	}

	report, err := session.Finalize(ctx)
	if err != nil {
		ui.Error(fmt.Sprintf("error reconciling document: %v", err))
		return 2
	}

	if err := doc.Save(); err != nil {
		ui.Error(fmt.Sprintf("error saving document parts: %v", err))
		return 2
	}
	if err := pkg.Save(fs, out); err != nil {
		ui.Error(fmt.Sprintf("error writing document: %v", err))
		return 2
	}

	if database != nil {
		run := &models.ReconciliationRun{
			DocumentID:      session.DocumentID(),
			TotalParagraphs: report.Total,
			Repaired:        report.Repaired,
			ErrorCount:      len(report.Errors),
			DurationMillis:  report.Duration.Milliseconds(),
			PeakMemoryBytes: report.MemoryDelta,
		}
		if err := run.Create(database); err != nil {
			ui.Warn(fmt.Sprintf("failed to record reconciliation run: %v", err))
		}
	}

	ui.Output(fmt.Sprintf("visited %d bullet(s), repaired %d in %s; wrote %s",
		report.Total, report.Repaired, report.Duration, out))
	for _, repairErr := range report.Errors {
		ui.Error(fmt.Sprintf("repair failed: %v", repairErr))
	}
	if len(report.Errors) > 0 {
		return 1
	}
	return 0
}
