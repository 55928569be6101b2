// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpand(t *testing.T) {
	got := expand("Hi {{display_name}} ({{user_id}}), role {{role}}.", map[string]string{
		"display_name": "Alice",
		"user_id":      "@alice:example.com",
		"role":         "unverified",
	})
	want := "Hi Alice (@alice:example.com), role unverified."
	if got != want {
		t.Errorf("expand = %q, want %q", got, want)
	}
}

func TestExpandLeavesUnknownPlaceholders(t *testing.T) {
	got := expand("Hello {{nobody}}", map[string]string{"display_name": "Alice"})
	if got != "Hello {{nobody}}" {
		t.Errorf("expand = %q", got)
	}
}

func TestLoadTemplatesDefaults(t *testing.T) {
	templates, err := loadTemplates("")
	if err != nil {
		t.Fatalf("loadTemplates: %v", err)
	}
	if !strings.Contains(templates.Welcome, "{{display_name}}") {
		t.Error("default welcome has no display_name placeholder")
	}
	if templates.Online == "" || templates.ScamWarning == "" {
		t.Error("default templates incomplete")
	}
}

func TestLoadTemplatesJSONCOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.jsonc")
	content := `{
	// Custom greeting for this deployment.
	"welcome": "Yo {{display_name}}!", // trailing comment
}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	templates, err := loadTemplates(path)
	if err != nil {
		t.Fatalf("loadTemplates: %v", err)
	}
	if templates.Welcome != "Yo {{display_name}}!" {
		t.Errorf("welcome = %q", templates.Welcome)
	}
	// Fields absent from the file keep their defaults.
	if templates.Online != defaultTemplates().Online {
		t.Errorf("online = %q", templates.Online)
	}
}

func TestLoadTemplatesMissingFileErrors(t *testing.T) {
	if _, err := loadTemplates(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Fatal("expected error for missing template file")
	}
}

func TestMarkdownMessage(t *testing.T) {
	content := markdownMessage("Hello **world**")
	if content.Body != "Hello **world**" {
		t.Errorf("plain body = %q", content.Body)
	}
	if content.Format != "org.matrix.custom.html" {
		t.Errorf("format = %q", content.Format)
	}
	if !strings.Contains(content.FormattedBody, "<strong>world</strong>") {
		t.Errorf("formatted body = %q", content.FormattedBody)
	}
}
