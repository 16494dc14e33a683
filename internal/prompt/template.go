// ABOUTME: Configurable user-message template governing answer length and structure
// ABOUTME: Uses text/template with Context, Question, Language and Sentinel fields
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// DefaultTemplate asks for a short, validating answer built from the context
const DefaultTemplate = `Context passages are separated by "---".

Context:
{{.Context}}

Question: {{.Question}}

Write the answer in {{.Language}}:
- Open with one short validating sentence.
- Keep it between 120 and 220 words.
- Where it fits, reuse characteristic phrases from the context in quotation marks.
- Balance professional and accessible language.
If the context lacks what is needed, output exactly: {{.Sentinel}}`

// Data is the value the template is executed against
type Data struct {
	Context  string
	Question string
	Language string
	Sentinel string
}

// Template is a parsed prompt template
type Template struct {
	tmpl *template.Template
}

// Parse compiles text and checks that it uses both the context and the question
func Parse(text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("prompt template is empty")
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	t := &Template{tmpl: tmpl}

	probe, err := t.Render(Data{Context: "\x00ctx\x00", Question: "\x00q\x00", Language: "L", Sentinel: "S"})
	if err != nil {
		return nil, err
	}
	if !strings.Contains(probe, "\x00ctx\x00") {
		return nil, fmt.Errorf("prompt template must include {{.Context}}")
	}
	if !strings.Contains(probe, "\x00q\x00") {
		return nil, fmt.Errorf("prompt template must include {{.Question}}")
	}
	return t, nil
}

// MustDefault returns the parsed default template
func MustDefault() *Template {
	t, err := Parse(DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadFile parses a template from disk
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return Parse(string(data))
}

// Render executes the template
func (t *Template) Render(d Data) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}
	return buf.String(), nil
}
