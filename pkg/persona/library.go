package persona

import (
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/attainly/voicebridge/pkg/callstore"
	"github.com/attainly/voicebridge/pkg/domaincall"
)

// Library holds the parsed instruction templates, one per call mode.
type Library struct {
	templates map[callstore.CallType]*template.Template
	fallback  *template.Template
}

// file is the YAML shape of a persona file.
type file struct {
	Modes map[string]modeEntry `yaml:"modes"`
}

type modeEntry struct {
	Template string `yaml:"template"`
}

// templateData is what a mode template renders against.
type templateData struct {
	Name        string
	Timezone    string
	Personality string
	Topic       string
	TaskRef     string
	Now         string
}

// LoadFile reads a persona YAML file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persona: read %s: %w", path, err)
	}
	return Load(data)
}

// Load parses persona YAML.
func Load(data []byte) (*Library, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("persona: parse: %w", err)
	}
	lib := &Library{templates: make(map[callstore.CallType]*template.Template)}
	for name, entry := range f.Modes {
		tmpl, err := template.New(name).Parse(entry.Template)
		if err != nil {
			return nil, fmt.Errorf("persona: mode %s: %w", name, err)
		}
		lib.templates[callstore.CallType(name)] = tmpl
	}
	if lib.fallback = lib.templates[callstore.CallReflection]; lib.fallback == nil {
		var err error
		if lib.fallback, err = template.New("fallback").Parse(fallbackTemplate); err != nil {
			return nil, fmt.Errorf("persona: fallback: %w", err)
		}
	}
	return lib, nil
}

// Default returns the built-in template set.
func Default() *Library {
	lib, err := Load([]byte(defaultPersonaYAML))
	if err != nil {
		// The embedded defaults are covered by tests; a parse failure here
		// is a programming error.
		panic(err)
	}
	return lib
}

// Instructions resolves the full system prompt for one call: the mode's
// rendered template, the compact user-context block, and the briefing block
// when one was prepared.
func (l *Library) Instructions(mode Mode, uc *domaincall.UserContext, briefing *callstore.Briefing, now time.Time) (string, error) {
	tmpl := l.templates[mode.Kind]
	if tmpl == nil {
		tmpl = l.fallback
	}

	data := templateData{
		Topic:   mode.Topic,
		TaskRef: mode.TaskRef,
		Now:     now.Format("Monday, January 2 2006, 3:04 PM"),
	}
	if uc != nil {
		data.Name = uc.Name
		data.Timezone = uc.Timezone
		data.Personality = uc.Personality
	}
	if data.Name == "" {
		data.Name = "Friend"
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("persona: render %s: %w", mode.Kind, err)
	}

	if block := FormatUserContext(uc); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}
	if block := FormatBriefing(briefing); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}
	return b.String(), nil
}

// FormatUserContext renders active tasks, habits, and goals as compact text.
func FormatUserContext(uc *domaincall.UserContext) string {
	if uc == nil {
		return ""
	}
	var b strings.Builder
	if len(uc.Tasks) > 0 {
		b.WriteString("Open tasks:\n")
		for _, t := range uc.Tasks {
			b.WriteString("- ")
			b.WriteString(t.Title)
			if !t.DueAt.IsZero() {
				fmt.Fprintf(&b, " (due %s)", t.DueAt.Format("Jan 2 15:04"))
			}
			b.WriteByte('\n')
		}
	}
	if len(uc.Habits) > 0 {
		b.WriteString("Habits:\n")
		for _, h := range uc.Habits {
			fmt.Fprintf(&b, "- %s (streak %d)\n", h.Name, h.Streak)
		}
	}
	if len(uc.Goals) > 0 {
		b.WriteString("Goals:\n")
		for _, g := range uc.Goals {
			b.WriteString("- ")
			b.WriteString(g.Title)
			if !g.TargetDate.IsZero() {
				fmt.Fprintf(&b, " (target %s)", g.TargetDate.Format("Jan 2"))
			}
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBriefing renders the planner-prepared context block.
func FormatBriefing(br *callstore.Briefing) string {
	if br == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Call briefing:\n")
	if br.TriggerReason != "" {
		fmt.Fprintf(&b, "Why this call: %s\n", br.TriggerReason)
	}
	for _, p := range br.ObservedPatterns {
		fmt.Fprintf(&b, "Observed: %s\n", p)
	}
	for _, g := range br.ConversationGoals {
		fmt.Fprintf(&b, "Aim: %s\n", g)
	}
	if br.RecentContext != "" {
		fmt.Fprintf(&b, "Recently: %s\n", br.RecentContext)
	}
	return strings.TrimRight(b.String(), "\n")
}
