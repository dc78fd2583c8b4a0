package pipeline

import (
	"sort"
	"strings"

	"rfq/internal"
	"rfq/internal/util"
)

const positionalMarker = "{}"

// Synthesizer renders clauses about a set of units, choosing between a
// blanket statement, one statement per value group, and a passive statement
// for units lacking the value.
type Synthesizer struct {
	translations Translations
}

func NewSynthesizer(translations Translations) *Synthesizer {
	return &Synthesizer{translations: translations}
}

type valueGroup struct {
	values  []string
	missing bool
	labels  []string
}

// Synthesize renders clauses for keys, a single field or a tuple of fields
// that must all be present. When every unit shares one non-empty value the
// singular template is rendered once without unit labels. Otherwise each
// value group gets the grouped template (labels first, then values) and the
// group of units missing a value gets the passive template, if any.
func (s *Synthesizer) Synthesize(units []internal.Record, keys []string, singular, grouped, passive string) []string {
	groups := groupByValue(units, keys)

	if len(groups) == 1 && !groups[0].missing {
		return []string{s.render(singular, keys, groups[0].values)}
	}

	out := []string{}
	for _, g := range groups {
		labels := sortedLabels(g.labels)
		switch {
		case g.missing && passive != "":
			out = append(out, util.FillPositional(passive, labels))
		case !g.missing:
			out = append(out, s.render(grouped, keys, g.values, labels))
		}
	}
	return out
}

// render translates values and case-adjusts every positional argument
// against the template text in front of its own marker.
func (s *Synthesizer) render(template string, keys, values []string, leading ...string) string {
	args := make([]string, 0, len(leading)+len(values))
	args = append(args, leading...)
	for i, v := range values {
		args = append(args, s.translations.Translate(v, keys[i]))
	}
	for i, arg := range args {
		args[i] = CaseAfter(util.PrefixBeforeNth(template, positionalMarker, i), arg)
	}
	return util.FillPositional(template, args...)
}

// RenderIfAnyMatch renders template with the labels of every unit whose value
// at key satisfies match, followed by the last matched value. Without a match
// the fallback is returned; ok is false when there is nothing to emit.
func (s *Synthesizer) RenderIfAnyMatch(units []internal.Record, key string, match func(string) bool, template, fallback string) (text string, ok bool) {
	seen := map[string]struct{}{}
	labels := []string{}
	matched := ""
	for _, u := range units {
		value := strings.TrimSpace(u[key])
		if !match(value) {
			continue
		}
		label := util.ShortLabel(u[internal.KeyGeneralInformation])
		if _, dup := seen[label]; !dup {
			seen[label] = struct{}{}
			labels = append(labels, label)
		}
		matched = value
	}

	if len(labels) > 0 {
		return util.FillPositional(template, sortedLabels(labels), matched), true
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// AllMissing reports whether no unit has a non-blank value for any of keys.
func AllMissing(keys []string, units []internal.Record) bool {
	for _, u := range units {
		for _, k := range keys {
			if !util.IsBlank(u[util.NormalizeKey(k)]) {
				return false
			}
		}
	}
	return true
}

// groupByValue partitions units by their trimmed values at keys, in order of
// first appearance. Units missing any of the keys share one "missing" group.
func groupByValue(units []internal.Record, keys []string) []*valueGroup {
	index := map[string]*valueGroup{}
	out := []*valueGroup{}
	for _, u := range units {
		values := make([]string, len(keys))
		missing := false
		for i, k := range keys {
			values[i] = strings.TrimSpace(u[k])
			if values[i] == "" {
				missing = true
			}
		}

		sig := "\x00missing"
		if !missing {
			sig = strings.Join(values, "\x1f")
		}
		g, ok := index[sig]
		if !ok {
			g = &valueGroup{missing: missing}
			if !missing {
				g.values = values
			}
			index[sig] = g
			out = append(out, g)
		}
		g.labels = append(g.labels, util.ShortLabel(u[internal.KeyGeneralInformation]))
	}
	return out
}

func sortedLabels(labels []string) string {
	sorted := append([]string(nil), labels...)
	sort.Strings(sorted)
	return strings.Join(sorted, ", ")
}
