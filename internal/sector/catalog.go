package sector

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Benchmark is the advisory range for one metric.
type Benchmark struct {
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Typical *float64 `json:"typical,omitempty" yaml:"typical,omitempty"`
}

// Config is the static catalog entry for one sector.
type Config struct {
	Name           string               `json:"name" yaml:"name"`
	Description    string               `json:"description,omitempty" yaml:"description,omitempty"`
	PrimaryMetrics []string             `json:"primaryMetrics" yaml:"primaryMetrics"`
	RequiredFields []string             `json:"requiredFields" yaml:"requiredFields"`
	OptionalFields []string             `json:"optionalFields,omitempty" yaml:"optionalFields,omitempty"`
	Benchmarks     map[string]Benchmark `json:"benchmarks,omitempty" yaml:"benchmarks,omitempty"`
	RiskFactors    []string             `json:"riskFactors,omitempty" yaml:"riskFactors,omitempty"`
	Formulas       map[string]string    `json:"formulas,omitempty" yaml:"formulas,omitempty"`
}

// Catalog is a read-only lookup of sector configuration.
type Catalog struct {
	Version string            `json:"version" yaml:"version"`
	Sectors map[Sector]Config `json:"sectors" yaml:"sectors"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = ParseCatalog(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// LoadCatalog reads a catalog from r.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read sector catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and checks a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse sector catalog: %w", err)
	}
	for s, cfg := range c.Sectors {
		if !s.Valid() {
			return nil, fmt.Errorf("sector catalog: unknown sector %q", s)
		}
		for name, b := range cfg.Benchmarks {
			if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
				return nil, fmt.Errorf("sector catalog: %s benchmark %s has min above max", s, name)
			}
		}
	}
	return &c, nil
}

// Lookup returns the configuration for s.
func (c *Catalog) Lookup(s Sector) (Config, bool) {
	if c == nil {
		return Config{}, false
	}
	cfg, ok := c.Sectors[s]
	return cfg, ok
}

// Entry pairs a sector with its configuration for listings.
type Entry struct {
	Sector Sector `json:"sector"`
	Config
}

// Entries lists the catalog in sector order.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.Sectors))
	for _, s := range all {
		if cfg, ok := c.Sectors[s]; ok {
			entries = append(entries, Entry{Sector: s, Config: cfg})
		}
	}
	return entries
}

// Missing lists sectors with no catalog entry.
func (c *Catalog) Missing() []Sector {
	var missing []Sector
	for _, s := range all {
		if _, ok := c.Sectors[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

func sortedMetricNames(m Metrics) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
