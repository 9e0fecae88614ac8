// Package actions implements the user action registry: quick links with
// keyword triggers and pattern actions with capture templates. Actions
// are declared in actions.toml in the state directory.
//
// Script-filter and native-extension kinds belong to the external
// extension runtime and are rejected at load time.
package actions

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sahilm/fuzzy"

	"github.com/asheshgoplani/quickcast/internal/logging"
	"github.com/asheshgoplani/quickcast/internal/platform"
)

var log = logging.ForComponent(logging.CompApps)

// FileName is the registry file inside the state directory.
const FileName = "actions.toml"

// Kind discriminates action variants.
type Kind string

const (
	KindQuickLink Kind = "quicklink"
	KindPattern   Kind = "pattern"
)

// Action is one registered user action.
type Action struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Icon    string `toml:"icon"`
	Enabled bool   `toml:"enabled"`
	Kind    Kind   `toml:"kind"`

	// QuickLink fields: typing "<keyword> rest" opens URL with {query}
	// replaced by "rest".
	Keyword string `toml:"keyword"`
	URL     string `toml:"url"`

	// Pattern fields: Pattern is a whitespace-separated template with
	// {var} captures; Template is expanded with the captured values.
	Pattern  string `toml:"pattern"`
	Template string `toml:"template"`
}

// Result is one matched action ready for display.
type Result struct {
	ID       string
	Title    string
	Subtitle string
	URL      string
	Icon     string
	Score    int64
}

type registryFile struct {
	Actions []Action `toml:"actions"`
}

// Registry holds the loaded actions. Read-only after Load.
type Registry struct {
	actions []Action
}

// Load reads actions.toml. A missing file yields an empty registry.
// Unknown kinds are skipped with a warning, not fatal.
func Load() (*Registry, error) {
	dir, err := platform.DataDir()
	if err != nil {
		return &Registry{}, nil
	}
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads a registry from an explicit path.
func LoadFile(path string) (*Registry, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Registry{}, nil
	}

	var file registryFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return &Registry{}, fmt.Errorf("actions: parse %s: %w", path, err)
	}

	reg := &Registry{}
	for _, a := range file.Actions {
		switch a.Kind {
		case KindQuickLink:
			if a.Keyword == "" || a.URL == "" {
				log.Warn("quicklink_missing_fields", slog.String("id", a.ID))
				continue
			}
		case KindPattern:
			if a.Pattern == "" || a.Template == "" {
				log.Warn("pattern_missing_fields", slog.String("id", a.ID))
				continue
			}
		default:
			log.Warn("unsupported_action_kind",
				slog.String("id", a.ID), slog.String("kind", string(a.Kind)))
			continue
		}
		reg.actions = append(reg.actions, a)
	}
	return reg, nil
}

// Len reports the number of loaded actions.
func (r *Registry) Len() int { return len(r.actions) }

// nameSource adapts actions to fuzzy.Source.
type nameSource []Action

func (s nameSource) String(i int) string { return s[i].Name }
func (s nameSource) Len() int            { return len(s) }

// Search matches query against the registry. Keyword and pattern
// triggers win over plain name matches; disabled actions never match.
func (r *Registry) Search(query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	var out []Result
	enabled := make(nameSource, 0, len(r.actions))
	for _, a := range r.actions {
		if !a.Enabled {
			continue
		}
		enabled = append(enabled, a)

		switch a.Kind {
		case KindQuickLink:
			if arg, ok := keywordArg(query, a.Keyword); ok {
				out = append(out, Result{
					ID:       "action:" + a.ID,
					Title:    a.Name,
					Subtitle: arg,
					URL:      strings.ReplaceAll(a.URL, "{query}", url.QueryEscape(arg)),
					Icon:     a.Icon,
					Score:    keywordTriggerScore,
				})
			}
		case KindPattern:
			if caps, ok := matchPattern(a.Pattern, query); ok {
				out = append(out, Result{
					ID:       "action:" + a.ID,
					Title:    a.Name,
					Subtitle: query,
					URL:      expandTemplate(a.Template, caps),
					Icon:     a.Icon,
					Score:    patternTriggerScore,
				})
			}
		}
	}

	// Plain fuzzy name matches for actions not already triggered.
	triggered := make(map[string]struct{}, len(out))
	for _, res := range out {
		triggered[res.ID] = struct{}{}
	}
	for _, m := range fuzzy.FindFrom(query, enabled) {
		a := enabled[m.Index]
		id := "action:" + a.ID
		if _, ok := triggered[id]; ok {
			continue
		}
		out = append(out, Result{
			ID:    id,
			Title: a.Name,
			Icon:  a.Icon,
			URL:   defaultURL(a),
			Score: int64(m.Score),
		})
	}
	return out
}

// Trigger scores sit above any fuzzy name score so an exact keyword hit
// always leads its adapter's output.
const (
	keywordTriggerScore = 5000
	patternTriggerScore = 4000
)

// keywordArg reports whether query triggers keyword and returns the
// remainder ("gh foo" with keyword "gh" yields "foo").
func keywordArg(query, keyword string) (string, bool) {
	if query == keyword {
		return "", true
	}
	if rest, ok := strings.CutPrefix(query, keyword+" "); ok {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func defaultURL(a Action) string {
	if a.Kind == KindQuickLink {
		return strings.ReplaceAll(a.URL, "{query}", "")
	}
	return ""
}

// matchPattern matches input against a whitespace-split template.
// Tokens containing {var} capture the aligned input token (with literal
// prefix/suffix honored, e.g. "{temp}F" captures "100" from "100F");
// literal tokens must match exactly. Token counts must agree.
func matchPattern(pattern, input string) (map[string]string, bool) {
	patParts := strings.Fields(pattern)
	inParts := strings.Fields(input)
	if len(patParts) != len(inParts) || len(patParts) == 0 {
		return nil, false
	}

	caps := make(map[string]string)
	for i, pat := range patParts {
		in := inParts[i]

		open := strings.IndexByte(pat, '{')
		if open < 0 {
			if pat != in {
				return nil, false
			}
			continue
		}
		end := strings.IndexByte(pat, '}')
		if end < open {
			return nil, false
		}

		prefix := pat[:open]
		suffix := pat[end+1:]
		name := pat[open+1 : end]

		if !strings.HasPrefix(in, prefix) || !strings.HasSuffix(in, suffix) {
			return nil, false
		}
		value := in[len(prefix) : len(in)-len(suffix)]
		if value == "" {
			return nil, false
		}
		caps[name] = value
	}
	return caps, true
}

// expandTemplate substitutes {var} occurrences with captured values.
func expandTemplate(template string, caps map[string]string) string {
	out := template
	for name, value := range caps {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
