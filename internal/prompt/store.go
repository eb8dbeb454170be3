// Package prompt provides named, placeholder-parameterized text templates
// for every generation step. Lookups are total: an unknown name yields a
// synthesized fallback rather than an error, since a missing template should
// degrade the narrative rather than halt the game.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Template is a named prompt body with {key} placeholders.
type Template struct {
	Name string
	Body string
}

// Store holds the template set. Templates registered later override the
// built-in set, which lets deployments re-theme the game without a rebuild.
type Store struct {
	templates map[string]Template
	log       *zap.Logger
}

func NewStore(log *zap.Logger) *Store {
	s := &Store{
		templates: make(map[string]Template, len(builtin)),
		log:       log,
	}
	for name, body := range builtin {
		s.templates[name] = Template{Name: name, Body: body}
	}
	return s
}

// Register adds or replaces a template.
func (s *Store) Register(name, body string) {
	s.templates[name] = Template{Name: name, Body: body}
}

// Get returns the template for name. It never fails: an unknown name is
// logged and a generic template embedding the requested name is synthesized.
func (s *Store) Get(name string) Template {
	if t, ok := s.templates[name]; ok {
		return t
	}
	s.log.Warn("unknown prompt template, synthesizing fallback", zap.String("name", name))
	return Template{
		Name: name,
		Body: fmt.Sprintf("Write a short piece of narrative content for the game step %q. Context: {context}", name),
	}
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Fill substitutes {key} placeholders. Keys resolve from strCtx first, then
// from the string form of looseCtx values. Unresolved placeholders are left
// verbatim; templates are open-ended, so a stray brace pair is not an error.
func (s *Store) Fill(t Template, strCtx map[string]string, looseCtx map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(t.Body, func(match string) string {
		key := strings.Trim(match, "{}")
		if v, ok := strCtx[key]; ok {
			return v
		}
		if v, ok := looseCtx[key]; ok {
			return fmt.Sprint(v)
		}
		return match
	})
}
