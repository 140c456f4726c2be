package suggest

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/kalambet/reframe/internal/thought"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptFile struct {
	System   string            `yaml:"system"`
	Fields   map[string]string `yaml:"fields"`
	Generic  string            `yaml:"generic"`
	Insight  string            `yaml:"insight"`
	Analysis map[string]string `yaml:"analysis"`
	Journal  string            `yaml:"journal"`
}

// promptSet is the parsed template collection.
type promptSet struct {
	system   string
	fields   map[string]*template.Template
	generic  *template.Template
	insight  *template.Template
	analysis map[AnalysisKind]*template.Template
	journal  *template.Template
}

var prompts = mustLoadPrompts(promptsYAML)

func mustLoadPrompts(data []byte) *promptSet {
	p, err := loadPrompts(data)
	if err != nil {
		panic(fmt.Sprintf("suggest: loading prompts: %v", err))
	}
	return p
}

func loadPrompts(data []byte) (*promptSet, error) {
	var f promptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing prompts: %w", err)
	}
	if f.System == "" || f.Generic == "" || f.Insight == "" || f.Journal == "" {
		return nil, fmt.Errorf("prompts: system, generic, insight and journal are required")
	}

	p := &promptSet{
		system:   strings.TrimSpace(f.System),
		fields:   make(map[string]*template.Template, len(f.Fields)),
		analysis: make(map[AnalysisKind]*template.Template, len(f.Analysis)),
	}
	var err error
	for key, text := range f.Fields {
		if _, ok := thought.Lookup(key); !ok {
			return nil, fmt.Errorf("prompt for unknown field %q", key)
		}
		if p.fields[key], err = template.New(key).Parse(text); err != nil {
			return nil, fmt.Errorf("field prompt %q: %w", key, err)
		}
	}
	for kind, text := range f.Analysis {
		if p.analysis[AnalysisKind(kind)], err = template.New(kind).Parse(text); err != nil {
			return nil, fmt.Errorf("analysis prompt %q: %w", kind, err)
		}
	}
	if p.generic, err = template.New("generic").Parse(f.Generic); err != nil {
		return nil, fmt.Errorf("generic prompt: %w", err)
	}
	if p.insight, err = template.New("insight").Parse(f.Insight); err != nil {
		return nil, fmt.Errorf("insight prompt: %w", err)
	}
	if p.journal, err = template.New("journal").Parse(f.Journal); err != nil {
		return nil, fmt.Errorf("journal prompt: %w", err)
	}
	return p, nil
}

func render(t *template.Template, data any) string {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		// Templates only reference fields of the data structs below.
		panic(fmt.Sprintf("suggest: rendering %s: %v", t.Name(), err))
	}
	return sb.String()
}

// withSystem prefixes body with the CBT system context.
func withSystem(body string) string {
	return prompts.system + "\n" + body
}

// FieldPrompt builds the suggestion prompt for a field. Fields without a
// dedicated template, including situation, use the generic template with the
// field's prompt as the hint.
func FieldPrompt(key, context string) string {
	if t, ok := prompts.fields[key]; ok {
		return withSystem(render(t, struct{ Context string }{context}))
	}
	hint := key
	if f, ok := thought.Lookup(key); ok {
		hint = f.Prompt
	}
	return withSystem(render(prompts.generic, struct{ Context, Hint string }{context, strings.ToLower(hint)}))
}

// InsightPrompt builds the insight-panel prompt for step. Steps before the
// review ask for pointers about the current field; the review step asks for
// a conclusion.
func InsightPrompt(step int, context string) string {
	data := struct {
		Context  string
		Hint     string
		Terminal bool
	}{Context: context, Terminal: step >= thought.N}
	if !data.Terminal {
		f, ok := thought.FieldAt(step)
		if !ok {
			f, _ = thought.FieldAt(thought.N - 1)
		}
		data.Hint = strings.ToLower(f.Label)
	}
	return withSystem(render(prompts.insight, data))
}

// AnalysisKind selects one of the single-thought analysis prompts.
type AnalysisKind string

const (
	AnalyzeDistortions AnalysisKind = "distortions"
	AnalyzeChallenge   AnalysisKind = "challenge"
	AnalyzeBalanced    AnalysisKind = "balanced"
)

// AnalysisInput carries the record parts an analysis prompt refers to.
type AnalysisInput struct {
	ANTs            string
	Distortions     string
	EvidenceAgainst string
}

// AnalysisPrompt builds a standalone analysis prompt. It does not carry the
// system context.
func AnalysisPrompt(kind AnalysisKind, in AnalysisInput) (string, error) {
	t, ok := prompts.analysis[kind]
	if !ok {
		return "", fmt.Errorf("unknown analysis kind %q", kind)
	}
	return render(t, in), nil
}

// JournalPrompt builds the journal-insight prompt for an entry.
func JournalPrompt(content string) string {
	return render(prompts.journal, struct{ Content string }{content})
}
