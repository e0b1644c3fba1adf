package model

import (
	"fmt"
	"strings"
	"time"
)

// Idea is a structured app idea as captured by the intake form. Any field
// may be empty; validation operations require at least a name or purpose.
type Idea struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Purpose        string    `json:"purpose"`
	TargetAudience string    `json:"target_audience"`
	MainFeatures   string    `json:"main_features"`
	DesignNotes    string    `json:"design_notes"`
	Monetization   string    `json:"monetization"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasContent reports whether the idea carries enough substance to be sent
// upstream. Mirrors the intake rule: at least a name or a purpose.
func (i Idea) HasContent() bool {
	return strings.TrimSpace(i.Name) != "" || strings.TrimSpace(i.Purpose) != ""
}

// Summary renders the idea as a compact block used to seed research queries.
func (i Idea) Summary() string {
	return fmt.Sprintf(`App Name: %s
Purpose: %s
Target Audience: %s
Main Features: %s
Monetization: %s`,
		orDefault(i.Name, "Untitled App"),
		orDefault(i.Purpose, "Not specified"),
		orDefault(i.TargetAudience, "Not specified"),
		orDefault(i.MainFeatures, "Not specified"),
		orDefault(i.Monetization, "Not specified"),
	)
}

// Brief renders the full idea form as the user-message block sent to the
// model, with multi-line fields rebulleted one item per line.
func (i Idea) Brief() string {
	var b strings.Builder
	fmt.Fprintf(&b, "App Name: %s\n\n", orDefault(i.Name, "Untitled App"))
	fmt.Fprintf(&b, "Purpose/Description: %s\n\n", orDefault(i.Purpose, "Not specified"))
	fmt.Fprintf(&b, "Target Audience: %s\n\n", orDefault(i.TargetAudience, "Not specified"))
	fmt.Fprintf(&b, "Main Features:\n%s\n\n", bulleted(i.MainFeatures))
	fmt.Fprintf(&b, "Design Notes:\n%s\n\n", bulleted(i.DesignNotes))
	fmt.Fprintf(&b, "Monetization Strategy:\n%s", orDefault(i.Monetization, "Not specified"))
	return b.String()
}

// bulleted turns a newline-separated field into markdown bullets, skipping
// blank lines. Returns a single "Not specified" bullet for empty input.
func bulleted(field string) string {
	var items []string
	for _, line := range strings.Split(field, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, "- "+line)
	}
	if len(items) == 0 {
		return "- Not specified"
	}
	return strings.Join(items, "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
