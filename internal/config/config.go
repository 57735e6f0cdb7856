package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/numbering"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/sanitize"
)

// Config is the engine configuration from HCL:
//
//	allocator {
//	  base       = 100
//	  ceiling    = 32000
//	  worker_key = 3
//	}
//	guards {
//	  warn_duration_ms = 200
//	  warn_paragraphs  = 5000
//	  warn_memory_mb   = 30
//	}
//	sanitizer {
//	  locale    = "en"
//	  catalogue = "/etc/sculptor/markers.yaml"
//	}
//	registry_store {
//	  driver = "sqlite"
//	  path   = ".sculptor/allocations.db"
//	}
//
// Every block and attribute is optional; missing values take the engine
// defaults.
type Config struct {
	Allocator     *Allocator     `hcl:"allocator,block"`
	Guards        *Guards        `hcl:"guards,block"`
	Sanitizer     *Sanitizer     `hcl:"sanitizer,block"`
	RegistryStore *RegistryStore `hcl:"registry_store,block"`
}

// Allocator configures numbering id allocation.
type Allocator struct {
	Base           int `hcl:"base,optional"`
	Ceiling        int `hcl:"ceiling,optional"`
	WorkerKey      int `hcl:"worker_key,optional"`
	SaltPartitions int `hcl:"salt_partitions,optional"`
	SaltStride     int `hcl:"salt_stride,optional"`
}

// Guards configures the reconciliation sweep's warning thresholds.
type Guards struct {
	WarnDurationMS int `hcl:"warn_duration_ms,optional"`
	WarnParagraphs int `hcl:"warn_paragraphs,optional"`
	WarnMemoryMB   int `hcl:"warn_memory_mb,optional"`
}

// Sanitizer configures achievement text cleaning.
type Sanitizer struct {
	Locale    string  `hcl:"locale,optional"`
	Threshold float64 `hcl:"threshold,optional"`
	Catalogue string  `hcl:"catalogue,optional"`
	Strict    bool    `hcl:"strict,optional"`
}

// RegistryStore configures the allocation-record database.
type RegistryStore struct {
	Driver string `hcl:"driver,optional"`

	// SQLite
	Path string `hcl:"path,optional"`

	// PostgreSQL
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`
}

// Default returns a configuration with every engine default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// NewConfig parses and validates the HCL configuration file at path.
func NewConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Allocator == nil {
		c.Allocator = &Allocator{}
	}
	a := c.Allocator
	if a.Base == 0 {
		a.Base = numbering.DefaultBase
	}
	if a.Ceiling == 0 {
		a.Ceiling = numbering.DefaultCeiling
	}
	if a.SaltPartitions == 0 {
		a.SaltPartitions = numbering.DefaultSaltPartitions
	}
	if a.SaltStride == 0 {
		a.SaltStride = numbering.DefaultSaltStride
	}

	if c.Guards == nil {
		c.Guards = &Guards{}
	}
	g := c.Guards
	if g.WarnDurationMS == 0 {
		g.WarnDurationMS = int(numbering.DefaultWarnDuration / time.Millisecond)
	}
	if g.WarnParagraphs == 0 {
		g.WarnParagraphs = numbering.DefaultWarnParagraphs
	}
	if g.WarnMemoryMB == 0 {
		g.WarnMemoryMB = int(numbering.DefaultWarnMemoryBytes >> 20)
	}

	if c.Sanitizer == nil {
		c.Sanitizer = &Sanitizer{}
	}

	if c.RegistryStore == nil {
		c.RegistryStore = &RegistryStore{}
	}
	s := c.RegistryStore
	if s.Driver == "" {
		s.Driver = "sqlite"
	}
	if s.Driver == "sqlite" && s.Path == "" {
		s.Path = ".sculptor/allocations.db"
	}
	if s.Driver == "postgres" && s.SSLMode == "" {
		s.SSLMode = "disable"
	}
	if s.Driver == "postgres" && s.Port == 0 {
		s.Port = 5432
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := c.Allocator.validate(); err != nil {
		return fmt.Errorf("allocator: %w", err)
	}
	if err := c.Guards.validate(); err != nil {
		return fmt.Errorf("guards: %w", err)
	}
	if err := c.Sanitizer.validate(); err != nil {
		return fmt.Errorf("sanitizer: %w", err)
	}
	if err := c.RegistryStore.validate(); err != nil {
		return fmt.Errorf("registry_store: %w", err)
	}
	return nil
}

func (a *Allocator) validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Base, validation.Min(1)),
		validation.Field(&a.Ceiling, validation.Min(a.Base)),
		validation.Field(&a.WorkerKey, validation.Min(0)),
		validation.Field(&a.SaltPartitions, validation.Min(1)),
		validation.Field(&a.SaltStride, validation.Min(1)),
	)
}

func (g *Guards) validate() error {
	return validation.ValidateStruct(g,
		validation.Field(&g.WarnDurationMS, validation.Min(1)),
		validation.Field(&g.WarnParagraphs, validation.Min(1)),
		validation.Field(&g.WarnMemoryMB, validation.Min(1)),
	)
}

func (s *Sanitizer) validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Threshold, validation.Min(0.0), validation.Max(1.0)),
	)
}

func (s *RegistryStore) validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Driver, validation.In("sqlite", "postgres")),
		validation.Field(&s.Path,
			validation.Required.When(s.Driver == "sqlite").Error("path is required for sqlite")),
		validation.Field(&s.Host,
			validation.Required.When(s.Driver == "postgres").Error("host is required for postgres")),
		validation.Field(&s.DBName,
			validation.Required.When(s.Driver == "postgres").Error("dbname is required for postgres")),
	)
}

// AllocatorConfig converts the allocator block into the engine's form.
// The caller attaches its own logger and store.
func (c *Config) AllocatorConfig() *numbering.AllocatorConfig {
	a := c.Allocator
	return &numbering.AllocatorConfig{
		Base:           a.Base,
		Ceiling:        a.Ceiling,
		WorkerKey:      docid.WorkerKey(a.WorkerKey),
		SaltPartitions: a.SaltPartitions,
		SaltStride:     a.SaltStride,
	}
}

// ReconcilerConfig converts the guards block into the engine's form.
func (c *Config) ReconcilerConfig() *numbering.ReconcilerConfig {
	g := c.Guards
	return &numbering.ReconcilerConfig{
		WarnDuration:    time.Duration(g.WarnDurationMS) * time.Millisecond,
		WarnParagraphs:  g.WarnParagraphs,
		WarnMemoryBytes: int64(g.WarnMemoryMB) << 20,
	}
}

// SanitizerConfig converts the sanitizer block into the engine's form,
// loading the marker catalogue override when one is configured.
func (c *Config) SanitizerConfig(afs afero.Fs) (*sanitize.Config, error) {
	s := c.Sanitizer
	out := &sanitize.Config{
		Locale:    s.Locale,
		Threshold: s.Threshold,
	}
	if s.Catalogue != "" {
		markers, err := sanitize.LoadCatalogue(afs, s.Catalogue)
		if err != nil {
			return nil, err
		}
		out.Catalogue = markers
	}
	return out, nil
}
