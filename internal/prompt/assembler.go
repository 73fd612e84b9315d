package prompt

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"paperdeck/internal/domain"
)

const (
	MarkdownTemplate = "MARKDOWN_TEMPLATE"
	CSSTemplate      = "CSS_TEMPLATE"
)

// Placeholder returns the token written in templates for name, e.g. {{CSS_TEMPLATE}}.
func Placeholder(name string) string {
	return "{{" + name + "}}"
}

// Assemble replaces every placeholder in template with its substitution. Each
// replacement is applied to the original template text only, so substituted
// content is never expanded again.
func Assemble(template string, subs map[string]string) string {
	if len(subs) == 0 {
		return template
	}
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, Placeholder(name), subs[name])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ReadTemplate loads one template resource.
func ReadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.TemplateError(fmt.Sprintf("read template %s", path), err)
	}
	return string(data), nil
}

// Load reads the template at templatePath and fills it from fragments, a map
// of placeholder name to fragment file. Only fragments the template actually
// references are read.
func Load(templatePath string, fragments map[string]string) (string, error) {
	template, err := ReadTemplate(templatePath)
	if err != nil {
		return "", err
	}
	return Resolve(template, fragments)
}

// Resolve fills an in-memory template from fragment files.
func Resolve(template string, fragments map[string]string) (string, error) {
	subs := make(map[string]string, len(fragments))
	for name, path := range fragments {
		if !strings.Contains(template, Placeholder(name)) {
			continue
		}
		content, err := ReadTemplate(path)
		if err != nil {
			return "", err
		}
		subs[name] = content
	}
	return Assemble(template, subs), nil
}
