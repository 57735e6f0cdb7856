package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/version"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/audit"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
)

// documentReport is the audit outcome for one document.
type documentReport struct {
	Path     string        `json:"path"`
	Issues   []audit.Issue `json:"issues"`
	Repaired int           `json:"repaired,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func main() {
	// Parse command-line flags
	styleID := flag.String("style", "", "Bullet style id to audit against (defaults to the engine's)")
	repair := flag.Bool("repair", false, "Apply automatic fixes and rewrite documents in place")
	jsonOut := flag.Bool("json", false, "Print reports as JSON")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	printVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(version.Version)
		os.Exit(0)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sculptor-audit [options] <document.docx> [...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Create logger
	level := hclog.Info
	if *verbose {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "sculptor-audit",
		Level: level,
	})

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, stopping", "signal", sig)
		cancel()
	}()

	auditor := audit.New(&audit.Config{
		BulletStyleID: *styleID,
		Logger:        logger,
	})
	fs := afero.NewOsFs()

	var reports []documentReport
	dirty := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			logger.Warn("interrupted, skipping remaining documents",
				"remaining", len(paths)-len(reports))
			break
		}
		report := auditOne(fs, auditor, path, *repair)
		if report.Error != "" || len(report.Issues) > 0 {
			dirty++
		}
		reports = append(reports, report)
	}

	if *jsonOut {
		out, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			logger.Error("failed to encode reports", "error", err)
			cancel()
			os.Exit(1)
		}
		fmt.Println(string(out))
	} else {
		for _, r := range reports {
			switch {
			case r.Error != "":
				fmt.Printf("%s: error: %s\n", r.Path, r.Error)
			case len(r.Issues) == 0 && r.Repaired > 0:
				fmt.Printf("%s: clean after %d repair(s)\n", r.Path, r.Repaired)
			case len(r.Issues) == 0:
				fmt.Printf("%s: clean\n", r.Path)
			default:
				for _, issue := range r.Issues {
					fmt.Printf("%s: %s\n", r.Path, issue.String())
				}
				fmt.Printf("%s: %d issue(s)\n", r.Path, len(r.Issues))
			}
		}
	}

	if dirty > 0 {
		cancel()
		os.Exit(1)
	}
}

// auditOne analyzes a single document, optionally repairing it in place.
// The returned issues reflect what remains after repair.
func auditOne(fs afero.Fs, auditor *audit.Auditor, path string, repair bool) documentReport {
	report := documentReport{Path: path}

	pkg, err := docpkg.Open(fs, path)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	issues, err := auditor.Analyze(pkg)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	if repair && len(issues) > 0 {
		actions, err := auditor.Repair(pkg, issues)
		if err != nil {
			report.Error = err.Error()
			report.Issues = issues
			return report
		}
		for _, action := range actions {
			if action.Applied {
				report.Repaired++
			}
		}
		if report.Repaired > 0 {
			if err := pkg.Save(fs, path); err != nil {
				report.Error = err.Error()
				report.Issues = issues
				return report
			}
		}
		issues, err = auditor.Analyze(pkg)
		if err != nil {
			report.Error = err.Error()
			return report
		}
	}

	report.Issues = issues
	return report
}
