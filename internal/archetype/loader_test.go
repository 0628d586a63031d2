package archetype

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stackwright/stackwright/pkg/models"
)

const validArchetypeYAML = `
id: flask-redis
name: Flask + Redis
description: Python API with a Redis cache
tags: [python, flask, redis]
phases:
  - id: setup
    name: Project Setup
    expected_files: [requirements.txt]
  - id: cache
    name: Cache Layer
    optional: true
  - id: validation
    name: Validation Run
    kind: validation
`

func TestLoadDirRegistersArchetype(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "flask.yaml"), []byte(validArchetypeYAML), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog()
	if err := c.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	a, err := c.Get("flask-redis")
	if err != nil {
		t.Fatalf("loaded archetype not registered: %v", err)
	}
	if a.Name != "Flask + Redis" {
		t.Errorf("name = %q", a.Name)
	}
	if len(a.Phases) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(a.Phases))
	}
	if !a.Phases[1].Optional {
		t.Error("cache phase should be optional")
	}
	if a.Phases[2].Kind != models.KindValidation {
		t.Errorf("validation phase kind = %q", a.Phases[2].Kind)
	}
}

func TestLoadDirMissingDirIsNotAnError(t *testing.T) {
	c := NewCatalog()
	if err := c.LoadDir(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
}

func TestLoadDirIgnoresNonYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog()
	if err := c.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
}

func TestLoadDirValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing id",
			yaml:    "name: X\nphases: [{id: a, name: A}]",
			wantErr: "id is required",
		},
		{
			name:    "reserved custom id",
			yaml:    "id: custom\nname: X\nphases: [{id: a, name: A}]",
			wantErr: "reserved",
		},
		{
			name:    "missing name",
			yaml:    "id: x\nphases: [{id: a, name: A}]",
			wantErr: "name is required",
		},
		{
			name:    "no phases",
			yaml:    "id: x\nname: X",
			wantErr: "at least one phase",
		},
		{
			name:    "phase without id",
			yaml:    "id: x\nname: X\nphases: [{name: A}]",
			wantErr: "has no id",
		},
		{
			name:    "duplicate phase id",
			yaml:    "id: x\nname: X\nphases: [{id: a, name: A}, {id: a, name: B}]",
			wantErr: "duplicate phase id",
		},
		{
			name:    "unknown kind",
			yaml:    "id: x\nname: X\nphases: [{id: a, name: A, kind: teleport}]",
			wantErr: "unknown kind",
		},
		{
			name:    "broken yaml",
			yaml:    "id: [unclosed",
			wantErr: "parse yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}

			err := NewCatalog().LoadDir(dir)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
