package pipeline

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rfq/internal"
	"rfq/internal/util"
)

//go:embed clauses.yaml
var builtinClauses []byte

// DynamicClause is rendered through Synthesize.
type DynamicClause struct {
	Marker   string   `yaml:"marker"`
	Keys     []string `yaml:"keys"`
	Singular string   `yaml:"singular"`
	Grouped  string   `yaml:"grouped"`
	Passive  string   `yaml:"passive"`
}

// ConditionalClause is rendered through RenderIfAnyMatch. Units match when
// their value contains Contains, or, with Contains empty, is non-blank.
type ConditionalClause struct {
	Marker   string `yaml:"marker"`
	Key      string `yaml:"key"`
	Contains string `yaml:"contains"`
	Template string `yaml:"template"`
	Fallback string `yaml:"fallback"`
}

type ClauseCatalog struct {
	Dynamic     []DynamicClause     `yaml:"dynamic"`
	Conditional []ConditionalClause `yaml:"conditional"`
}

// RenderedClause is the text destined for the template row holding Marker.
type RenderedClause struct {
	Marker string
	Texts  []string
}

// LoadClauseCatalog returns the built-in catalog, or the one at path when set.
func LoadClauseCatalog(path string) (ClauseCatalog, error) {
	data := builtinClauses
	source := "built-in clauses"
	if strings.TrimSpace(path) != "" {
		blob, err := os.ReadFile(path)
		if err != nil {
			return ClauseCatalog{}, fmt.Errorf("reading %s: %w", path, err)
		}
		data, source = blob, path
	}
	return ParseClauseCatalog(data, source)
}

func ParseClauseCatalog(data []byte, source string) (ClauseCatalog, error) {
	var catalog ClauseCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return ClauseCatalog{}, fmt.Errorf("parsing %s: %w", source, err)
	}
	if err := catalog.validate(); err != nil {
		return ClauseCatalog{}, fmt.Errorf("%s: %w", source, err)
	}
	return catalog, nil
}

func (c ClauseCatalog) validate() error {
	for i, d := range c.Dynamic {
		if d.Marker == "" || len(d.Keys) == 0 || d.Singular == "" || d.Grouped == "" {
			return fmt.Errorf("dynamic clause %d: marker, keys, singular and grouped are required", i+1)
		}
		for j, k := range d.Keys {
			c.Dynamic[i].Keys[j] = util.NormalizeKey(k)
		}
	}
	for i, s := range c.Conditional {
		if s.Marker == "" || s.Key == "" || s.Template == "" {
			return fmt.Errorf("conditional clause %d: marker, key and template are required", i+1)
		}
		c.Conditional[i].Key = util.NormalizeKey(s.Key)
	}
	return nil
}

// Markers lists every template marker in catalog order.
func (c ClauseCatalog) Markers() []string {
	out := make([]string, 0, len(c.Dynamic)+len(c.Conditional))
	for _, d := range c.Dynamic {
		out = append(out, d.Marker)
	}
	for _, cond := range c.Conditional {
		out = append(out, cond.Marker)
	}
	return out
}

// Render produces the clause texts for every catalog entry. Entries with
// nothing to say yield an empty Texts slice so the marker row can be dropped.
func (c ClauseCatalog) Render(s *Synthesizer, units []internal.Record) []RenderedClause {
	out := make([]RenderedClause, 0, len(c.Dynamic)+len(c.Conditional))
	for _, d := range c.Dynamic {
		out = append(out, RenderedClause{
			Marker: d.Marker,
			Texts:  s.Synthesize(units, d.Keys, d.Singular, d.Grouped, d.Passive),
		})
	}
	for _, cond := range c.Conditional {
		rc := RenderedClause{Marker: cond.Marker}
		if text, ok := s.RenderIfAnyMatch(units, cond.Key, cond.matcher(), cond.Template, cond.Fallback); ok {
			rc.Texts = []string{text}
		}
		out = append(out, rc)
	}
	return out
}

func (c ConditionalClause) matcher() func(string) bool {
	if c.Contains != "" {
		return func(v string) bool { return strings.Contains(v, c.Contains) }
	}
	return func(v string) bool { return strings.TrimSpace(v) != "" }
}
