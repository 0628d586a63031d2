package deploy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stackwright/stackwright/pkg/models"
)

// fakeRunner scripts command execution. Commands are matched on the
// binary name plus the first argument.
type fakeRunner struct {
	missing map[string]bool     // binaries absent from PATH
	fail    map[string]error    // command key -> error
	output  map[string][]byte   // command key -> Run output
	stream  map[string][]string // command key -> RunStream lines
	calls   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		missing: make(map[string]bool),
		fail:    make(map[string]error),
		output:  make(map[string][]byte),
		stream:  make(map[string][]string),
	}
}

func key(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + args[0]
}

func (f *fakeRunner) Run(ctx context.Context, workDir, name string, args ...string) ([]byte, error) {
	k := key(name, args)
	f.calls = append(f.calls, k)
	return f.output[k], f.fail[k]
}

func (f *fakeRunner) RunStream(ctx context.Context, workDir string, onLine func(string), name string, args ...string) error {
	k := key(name, args)
	f.calls = append(f.calls, k)
	for _, line := range f.stream[k] {
		onLine(line)
	}
	return f.fail[k]
}

func (f *fakeRunner) LookPath(name string) bool { return !f.missing[name] }

// recordingCompleter captures the resolved outcome and unblocks the test.
type recordingCompleter struct {
	index   int
	outcome models.Outcome
	done    chan struct{}
}

func newRecordingCompleter() *recordingCompleter {
	return &recordingCompleter{done: make(chan struct{})}
}

func (r *recordingCompleter) CompleteDeploymentPhase(index int, outcome models.Outcome) error {
	r.index = index
	r.outcome = outcome
	close(r.done)
	return nil
}

func (r *recordingCompleter) wait(t *testing.T) models.Outcome {
	t.Helper()
	select {
	case <-r.done:
		return r.outcome
	case <-time.After(5 * time.Second):
		t.Fatal("phase was never resolved")
		return models.Outcome{}
	}
}

func touch(t *testing.T, dir, rel string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTestCommandFor(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		configured string
		wantName   string
		wantArgs   []string
	}{
		{"explicit command wins", []string{"package.json"}, "make check", "make", []string{"check"}},
		{"node project", []string{"package.json"}, "", "npm", []string{"test"}},
		{"go project", []string{"go.mod"}, "", "go", []string{"test", "./..."}},
		{"python requirements", []string{"requirements.txt"}, "", "python3", []string{"-m", "pytest"}},
		{"python pyproject", []string{"pyproject.toml"}, "", "python3", []string{"-m", "pytest"}},
		{"nothing detected", nil, "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, dir, f)
			}
			g := NewGateway(Config{Runner: newFakeRunner(), TestCommand: tt.configured})

			name, args := g.testCommandFor(dir)
			if name != tt.wantName {
				t.Errorf("command = %q, want %q", name, tt.wantName)
			}
			if strings.Join(args, " ") != strings.Join(tt.wantArgs, " ") {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestStartValidationPass(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "go.mod")

	runner := newFakeRunner()
	runner.stream["go test"] = []string{"ok\tgithub.com/x/y\t0.1s"}
	g := NewGateway(Config{Runner: runner})

	var logs []string
	c := newRecordingCompleter()
	g.StartValidation(context.Background(), dir, 3, c, func(line string) { logs = append(logs, line) })

	outcome := c.wait(t)
	if !outcome.Success || outcome.Summary != "test suite passed" {
		t.Errorf("outcome = %+v", outcome)
	}
	if c.index != 3 {
		t.Errorf("resolved index = %d, want 3", c.index)
	}
	if outcome.Extra["command"] != "go test ./..." {
		t.Errorf("command = %v", outcome.Extra["command"])
	}
	if len(logs) == 0 {
		t.Error("expected streamed output forwarded to onLog")
	}
}

func TestStartValidationFailure(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "package.json")

	runner := newFakeRunner()
	runner.stream["npm test"] = []string{"1 failing"}
	runner.fail["npm test"] = errors.New("exit status 1")
	g := NewGateway(Config{Runner: runner})

	c := newRecordingCompleter()
	g.StartValidation(context.Background(), dir, 0, c, nil)

	outcome := c.wait(t)
	if outcome.Success {
		t.Fatal("failing suite reported as success")
	}
	if !strings.Contains(outcome.Summary, "test suite failed") || !strings.Contains(outcome.Summary, "1 failing") {
		t.Errorf("summary = %q", outcome.Summary)
	}
}

func TestStartValidationNoCommand(t *testing.T) {
	g := NewGateway(Config{Runner: newFakeRunner()})

	c := newRecordingCompleter()
	g.StartValidation(context.Background(), t.TempDir(), 0, c, nil)

	outcome := c.wait(t)
	if outcome.Success {
		t.Fatal("missing test command reported as success")
	}
	if outcome.Summary != "no test command detected for this workspace" {
		t.Errorf("summary = %q", outcome.Summary)
	}
}

func TestStartDockerDeploymentCompose(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "docker-compose.yml")
	touch(t, dir, "Dockerfile") // compose takes precedence

	runner := newFakeRunner()
	g := NewGateway(Config{Runner: runner})

	c := newRecordingCompleter()
	g.StartDockerDeployment(context.Background(), dir, 1, c, nil)

	outcome := c.wait(t)
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Extra["mode"] != "compose" {
		t.Errorf("mode = %v, want compose", outcome.Extra["mode"])
	}
	if len(runner.calls) != 1 || runner.calls[0] != "docker compose" {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestStartDockerDeploymentDockerfile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "todo-service")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, dir, "Dockerfile")

	runner := newFakeRunner()
	runner.output["docker run"] = []byte("abc123\n")
	g := NewGateway(Config{Runner: runner})

	c := newRecordingCompleter()
	g.StartDockerDeployment(context.Background(), dir, 0, c, nil)

	outcome := c.wait(t)
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Extra["mode"] != "run" {
		t.Errorf("mode = %v, want run", outcome.Extra["mode"])
	}
	if outcome.Extra["container_id"] != "abc123" {
		t.Errorf("container_id = %v", outcome.Extra["container_id"])
	}
	if outcome.Extra["image"] != "todo-service:latest" {
		t.Errorf("image = %v", outcome.Extra["image"])
	}
}

func TestStartDockerDeploymentMissingBinary(t *testing.T) {
	runner := newFakeRunner()
	runner.missing["docker"] = true
	g := NewGateway(Config{Runner: runner})

	c := newRecordingCompleter()
	g.StartDockerDeployment(context.Background(), t.TempDir(), 0, c, nil)

	outcome := c.wait(t)
	if outcome.Success || !strings.Contains(outcome.Summary, "not found in PATH") {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestStartDockerDeploymentNothingToRun(t *testing.T) {
	g := NewGateway(Config{Runner: newFakeRunner()})

	c := newRecordingCompleter()
	g.StartDockerDeployment(context.Background(), t.TempDir(), 0, c, nil)

	outcome := c.wait(t)
	if outcome.Success || outcome.Summary != "no Dockerfile or compose file in workspace" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestStartCloudDeployment(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, filepath.Join("infra", "main.bicep"))

	runner := newFakeRunner()
	g := NewGateway(Config{Runner: runner, ResourceGroup: "rg-demo"})

	c := newRecordingCompleter()
	g.StartCloudDeployment(context.Background(), dir, 2, c, nil)

	outcome := c.wait(t)
	if !outcome.Success {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Extra["resource_group"] != "rg-demo" {
		t.Errorf("resource_group = %v", outcome.Extra["resource_group"])
	}
	if outcome.Extra["template"] != filepath.Join("infra", "main.bicep") {
		t.Errorf("template = %v", outcome.Extra["template"])
	}
	if len(runner.calls) != 1 || runner.calls[0] != "az deployment" {
		t.Errorf("calls = %v", runner.calls)
	}
}

func TestStartCloudDeploymentNoResourceGroup(t *testing.T) {
	g := NewGateway(Config{Runner: newFakeRunner()})

	c := newRecordingCompleter()
	g.StartCloudDeployment(context.Background(), t.TempDir(), 0, c, nil)

	outcome := c.wait(t)
	if outcome.Success || outcome.Summary != "no Azure resource group configured" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestFindBicepTemplate(t *testing.T) {
	t.Run("prefers infra main.bicep", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, filepath.Join("infra", "main.bicep"))
		touch(t, dir, "main.bicep")
		touch(t, dir, filepath.Join("infra", "app.bicep"))

		if got := findBicepTemplate(dir); got != filepath.Join("infra", "main.bicep") {
			t.Errorf("template = %q", got)
		}
	})

	t.Run("falls back to first infra bicep", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, filepath.Join("infra", "storage.bicep"))
		touch(t, dir, filepath.Join("infra", "app.bicep"))

		if got := findBicepTemplate(dir); got != filepath.Join("infra", "app.bicep") {
			t.Errorf("template = %q", got)
		}
	})

	t.Run("root bicep last", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "site.bicep")

		if got := findBicepTemplate(dir); got != "site.bicep" {
			t.Errorf("template = %q", got)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		if got := findBicepTemplate(t.TempDir()); got != "" {
			t.Errorf("template = %q, want empty", got)
		}
	})
}
