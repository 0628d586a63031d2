package generate

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py")
	writeFile(t, dir, filepath.Join("app", "api.py"))
	writeFile(t, dir, filepath.Join(".git", "config"))
	writeFile(t, dir, filepath.Join(".stackwright", "logs", "run-debug.log"))

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("listed %v, want 2 files", files)
	}
	seen := map[string]bool{}
	for _, f := range files {
		seen[filepath.ToSlash(f)] = true
	}
	if !seen["main.py"] || !seen["app/api.py"] {
		t.Errorf("listed %v, want main.py and app/api.py", files)
	}
}

func TestListFilesMissingWorkspace(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatal(err)
	}
	if files != nil {
		t.Errorf("missing workspace listed %v", files)
	}
}

func TestCheckExpected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py")

	warnings := CheckExpected(dir, []string{
		"main.py",       // present
		"app/api.py",    // missing
		"infra/*.bicep", // wildcard, never checked
	})

	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if warnings[0] != "expected file not produced: app/api.py" {
		t.Errorf("warning = %q", warnings[0])
	}
}

func TestProjectName(t *testing.T) {
	tests := []struct {
		workspace string
		want      string
	}{
		{"/home/dev/todo-service", "todo-service"},
		{"/home/dev/Todo Service", "todo-service"},
		{"/home/dev/My_App!!v2", "my-app-v2"},
		{"/home/dev/trailing--", "trailing"},
		{"/home/dev/___", "project"},
		{"relative/path/api", "api"},
	}
	for _, tt := range tests {
		if got := ProjectName(tt.workspace); got != tt.want {
			t.Errorf("ProjectName(%q) = %q, want %q", tt.workspace, got, tt.want)
		}
	}
}
