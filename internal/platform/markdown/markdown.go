// Package markdown renders the policy documents shipped with the console.
package markdown

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed docs/*.md
var docsFS embed.FS

const LeavePolicy = "leave-policy"

// Raw HTML in documents is escaped; WithUnsafe is not set.
var renderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

func Render(source []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := renderer.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

var (
	docsMu sync.Mutex
	docs   = map[string]template.HTML{}
)

// Document renders an embedded document by name, once.
func Document(name string) (template.HTML, error) {
	docsMu.Lock()
	defer docsMu.Unlock()
	if html, ok := docs[name]; ok {
		return html, nil
	}
	source, err := docsFS.ReadFile("docs/" + name + ".md")
	if err != nil {
		return "", fmt.Errorf("document %q: %w", name, err)
	}
	html, err := Render(source)
	if err != nil {
		return "", err
	}
	docs[name] = html
	return html, nil
}
