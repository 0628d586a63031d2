package archetype

import (
	"testing"

	"github.com/stackwright/stackwright/pkg/models"
)

func phaseIDs(templates []models.PhaseTemplate) []string {
	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}
	return ids
}

func TestInferCustomPhases(t *testing.T) {
	tests := []struct {
		name    string
		request string
		wantIDs []string
	}{
		{
			name:    "bare request",
			request: "a number guessing game",
			wantIDs: []string{"setup", "core", "api", "tests", "validation"},
		},
		{
			name:    "storage vocabulary",
			request: "a todo list backed by sqlite",
			wantIDs: []string{"setup", "database", "core", "api", "tests", "validation"},
		},
		{
			name:    "auth vocabulary",
			request: "an API where users login with JWT",
			wantIDs: []string{"setup", "auth", "core", "api", "tests", "validation"},
		},
		{
			name:    "frontend vocabulary",
			request: "a react dashboard for the metrics",
			wantIDs: []string{"setup", "core", "api", "frontend", "tests", "validation"},
		},
		{
			name:    "everything",
			request: "a webshop with a postgres database, user login and a vue frontend",
			wantIDs: []string{"setup", "database", "auth", "core", "api", "frontend", "tests", "validation"},
		},
		{
			name:    "case insensitive",
			request: "STORE customer RECORDS",
			wantIDs: []string{"setup", "database", "core", "api", "tests", "validation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := phaseIDs(inferCustomPhases(tt.request, ""))
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got phases %v, want %v", got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Fatalf("got phases %v, want %v", got, tt.wantIDs)
				}
			}
		})
	}
}

func TestInferCustomPhasesReadsAttachment(t *testing.T) {
	got := phaseIDs(inferCustomPhases("a service", "the data must persist across restarts"))
	want := []string{"setup", "database", "core", "api", "tests", "validation"}
	if len(got) != len(want) {
		t.Fatalf("got phases %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got phases %v, want %v", got, want)
		}
	}
}

func TestInferCustomPhasesDeterministic(t *testing.T) {
	req := "a shop with auth and a database"
	a := phaseIDs(inferCustomPhases(req, ""))
	b := phaseIDs(inferCustomPhases(req, ""))
	if len(a) != len(b) {
		t.Fatal("same request produced different plans")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same request produced different plans")
		}
	}
}

func TestInferCustomPhasesOptionalFlags(t *testing.T) {
	templates := inferCustomPhases("a shop with auth, a database and a react ui", "")

	optional := map[string]bool{}
	for _, tpl := range templates {
		optional[tpl.ID] = tpl.Optional
	}

	for _, id := range []string{"database", "auth", "frontend"} {
		if !optional[id] {
			t.Errorf("phase %s should be optional", id)
		}
	}
	for _, id := range []string{"setup", "core", "api", "tests", "validation"} {
		if optional[id] {
			t.Errorf("phase %s should not be optional", id)
		}
	}
}
