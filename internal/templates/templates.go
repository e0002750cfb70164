// Package templates embeds the WGSL shader templates and renders them into
// final kernel source text. Templates are addressed by their path under the
// wgsl directory, e.g. "endomorphism/map.wgsl".
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed wgsl
var shaderFS embed.FS

// Context maps template keys to numbers, strings, lists of numbers, lists
// of strings, or booleans.
type Context map[string]any

// Set is a parsed collection of shader templates.
type Set struct {
	root *template.Template
}

// NewSet parses every embedded shader template. Rendering fails loudly on a
// context key a template references but the compiler did not populate.
func NewSet() (*Set, error) {
	root := template.New("wgsl").Option("missingkey=error")

	err := fs.WalkDir(shaderFS, "wgsl", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := shaderFS.ReadFile(path)
		if err != nil {
			return err
		}
		name := strings.TrimPrefix(path, "wgsl/")
		if _, err := root.New(name).Parse(string(data)); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	return &Set{root: root}, nil
}

// Render produces the kernel source for a template and context.
func (s *Set) Render(name string, ctx Context) (string, error) {
	tmpl := s.root.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("templates: unknown template %q", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, ctx); err != nil {
		return "", fmt.Errorf("templates: render %s: %w", name, err)
	}
	return sb.String(), nil
}

// Names lists the parsed template names. Handy for tests and tooling.
func (s *Set) Names() []string {
	var names []string
	for _, t := range s.root.Templates() {
		if strings.HasSuffix(t.Name(), ".wgsl") {
			names = append(names, t.Name())
		}
	}
	return names
}
