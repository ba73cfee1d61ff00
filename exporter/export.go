package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"proposal_assistant/generator"
)

// FileName is the name of the downloaded proposal.
const FileName = "Proposal-Magnapenta.txt"

var ErrNoProposal = errors.New("proposal has not been generated")

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

var md = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// PlainText strips bold markers and keeps everything else, line breaks
// included, as written by the model.
func PlainText(proposal string) string {
	return boldRe.ReplaceAllString(proposal, "$1")
}

// HTML renders the proposal markdown. Single newlines become <br>.
func HTML(proposal string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(proposal), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Markdown lays out every generated section under its stage title, for
// reviewing the whole framework in one document.
func Markdown(sections []generator.Section) string {
	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", sec.Stage.Title())
		switch sec.Shape() {
		case generator.ShapeModules:
			for j, m := range sec.Modules {
				if j > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "- **%s**: %s", m.Title, m.Description)
			}
		case generator.ShapeList:
			for j, item := range sec.Items {
				if j > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "%d. %s", j+1, item)
			}
		default:
			b.WriteString(strings.TrimSpace(sec.Text))
		}
	}
	return b.String()
}

// WriteProposal writes the plain-text export into dir and returns its path.
func WriteProposal(dir, proposal string) (string, error) {
	if strings.TrimSpace(proposal) == "" {
		return "", ErrNoProposal
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(PlainText(proposal)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
