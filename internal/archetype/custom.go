package archetype

import (
	"strings"

	"github.com/stackwright/stackwright/pkg/models"
)

// Keyword groups for the custom archetype inference. Matching is plain
// substring presence over the lowercased request and attachment.
var (
	authKeywords = []string{
		"auth", "login", "signup", "sign up", "sign-in", "jwt",
		"password", "session", "oauth", "user account", "register",
	}
	frontendKeywords = []string{
		"frontend", "front-end", "ui", "react", "vue", "svelte",
		"website", "web page", "webpage", "dashboard", "html", "spa",
	}
	storageKeywords = []string{
		"database", "db", "sql", "sqlite", "postgres", "mysql",
		"mongo", "storage", "persist", "store", "record", "save",
	}
)

// inferCustomPhases derives a phase plan for the custom archetype from the
// request text. The derivation is deterministic: the same request always
// yields the same plan. Order is fixed as setup, database, auth, core,
// api, frontend, tests, validation, with the optional middle phases
// included only when their vocabulary appears.
func inferCustomPhases(requestText, attachment string) []models.PhaseTemplate {
	text := strings.ToLower(requestText + " " + attachment)

	wantsAuth := containsAny(text, authKeywords)
	wantsFrontend := containsAny(text, frontendKeywords)
	wantsStorage := containsAny(text, storageKeywords)

	phases := []models.PhaseTemplate{
		{
			ID:            "setup",
			Name:          "Project Setup",
			Description:   "Project scaffolding: dependency manifest, README and package layout.",
			ExpectedFiles: []string{"README.md"},
		},
	}

	if wantsStorage {
		phases = append(phases, models.PhaseTemplate{
			ID:          "database",
			Name:        "Database Layer",
			Description: "Schema definitions and data access for the entities implied by the request.",
			Optional:    true,
		})
	}

	if wantsAuth {
		phases = append(phases, models.PhaseTemplate{
			ID:          "auth",
			Name:        "Authentication",
			Description: "User registration, login and session or token handling.",
			Optional:    true,
		})
	}

	phases = append(phases,
		models.PhaseTemplate{
			ID:          "core",
			Name:        "Core Logic",
			Description: "The central business logic described by the request.",
		},
		models.PhaseTemplate{
			ID:          "api",
			Name:        "API Layer",
			Description: "HTTP endpoints exposing the core logic.",
		},
	)

	if wantsFrontend {
		phases = append(phases, models.PhaseTemplate{
			ID:          "frontend",
			Name:        "Frontend",
			Description: "User interface consuming the API.",
			Optional:    true,
		})
	}

	phases = append(phases,
		models.PhaseTemplate{
			ID:          "tests",
			Name:        "Test Suite",
			Description: "Automated tests covering the core logic and API.",
		},
		models.PhaseTemplate{
			ID:          "validation",
			Name:        "Validation Run",
			Description: "Run the generated test suite and report the results.",
			Kind:        models.KindValidation,
		},
	)

	return phases
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
