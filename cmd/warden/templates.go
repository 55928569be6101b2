// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/yuin/goldmark"

	"github.com/bureau-foundation/warden/messaging"
)

// Templates holds the user-facing broadcast texts. Each field is a
// markdown string with {{placeholder}} substitution applied before
// rendering.
type Templates struct {
	// Welcome greets a newly joined member. Placeholders:
	// {{display_name}}, {{user_id}}, {{role}}, {{contacts}}.
	Welcome string `json:"welcome"`

	// Online is announced when the bot joins a room with send rights.
	Online string `json:"online"`

	// ScamWarning is the default text for the reserved scam-warning
	// interval. Placeholder: {{contacts}}.
	ScamWarning string `json:"scam_warning"`
}

func defaultTemplates() Templates {
	return Templates{
		Welcome: "Welcome, **{{display_name}}**!\n\n" +
			"Your account `{{user_id}}` currently holds the **{{role}}** role. " +
			"New members are muted until an admin verifies them — " +
			"please contact {{contacts}} to get verified.",
		Online: "Moderation bot is online and watching this room.",
		ScamWarning: "⚠️ **Beware of scammers.** Admins never message you first " +
			"and never ask for payments or credentials. " +
			"When in doubt, ask {{contacts}} here in the room.",
	}
}

// loadTemplates returns the built-in texts overlaid with the JSONC file
// at path. An empty path means built-ins only. Fields absent from the
// file keep their defaults.
func loadTemplates(path string) (Templates, error) {
	templates := defaultTemplates()
	if path == "" {
		return templates, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return templates, fmt.Errorf("reading message templates %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), &templates); err != nil {
		return templates, fmt.Errorf("parsing message templates %s: %w", path, err)
	}
	return templates, nil
}

// expand substitutes {{key}} placeholders. Unknown placeholders are
// left in place.
func expand(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

// markdownMessage renders a markdown body into a message with an HTML
// formatted_body. The plain markdown text stays canonical; clients
// without HTML support fall back to it.
func markdownMessage(body string) messaging.MessageContent {
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(body), &html); err != nil {
		return messaging.NewTextMessage(body)
	}
	return messaging.NewHTMLMessage(body, strings.TrimSpace(html.String()))
}
