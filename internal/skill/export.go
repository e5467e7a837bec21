package skill

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/charmbracelet/glamour"
)

const exportTemplate = `# Skill: {{.Name}}

{{.Instructions}}
{{if .Demos}}
## Examples
{{range $i, $d := .Demos}}
### Example {{inc $i}}{{if $d.Labeled}} (curated){{end}}

**Input ({{$d.Language}}):**

` + "```{{$d.Language}}\n{{$d.Code}}\n```" + `

**Review:**

{{$d.Response}}
{{end}}{{end}}`

// ExportMarkdown renders a skill plus its demonstrations back into a
// standalone markdown prompt. This is the artifact an optimized skill ships
// as: instructions followed by worked examples.
func ExportMarkdown(s *Skill, demos []Demonstration) (string, error) {
	tmpl, err := template.New("export").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(exportTemplate)
	if err != nil {
		return "", fmt.Errorf("parsing export template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]interface{}{
		"Name":         s.Name,
		"Instructions": s.Instructions,
		"Demos":        demos,
	}); err != nil {
		return "", fmt.Errorf("rendering skill export: %w", err)
	}
	return buf.String(), nil
}

// WriteMarkdown exports the skill to a file
func WriteMarkdown(path string, s *Skill, demos []Demonstration) error {
	markdown, err := ExportMarkdown(s, demos)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("writing skill file: %w", err)
	}
	return nil
}

// Preview renders exported skill markdown for terminal display
func Preview(markdown string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}

	out, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering preview: %w", err)
	}
	return out, nil
}
