package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// systemPrompt frames every generation call. Phase-specific detail arrives
// in the user prompt built by BuildPhasePrompt.
const systemPrompt = `You are a code generation assistant building one phase of a software project.
Write each output file with the write_file tool using workspace-relative paths.
Files from earlier phases already exist in the workspace; read them with read_file
when needed and never rewrite them unless the current phase requires a change.
When the phase is complete, reply with a short summary of what you produced.`

// ClaudeConfig contains configuration for the Anthropic-backed gateway.
type ClaudeConfig struct {
	// Model is the Claude model to use. Defaults to Sonnet.
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock switches to AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
	// MaxIterations bounds the tool loop per generation call. Defaults to 40.
	MaxIterations int
}

// ClaudeGateway implements Gateway against the Anthropic API. It is an
// explicitly owned dependency: construct one per host process, inject it
// into runs, and Close it on shutdown. Tests substitute a fake Gateway.
type ClaudeGateway struct {
	client        anthropic.Client
	model         anthropic.Model
	maxIterations int
}

// NewClaudeGateway creates a gateway from the given configuration.
func NewClaudeGateway(cfg ClaudeConfig) (*ClaudeGateway, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 40
	}

	return &ClaudeGateway{
		client:        anthropic.NewClient(opts...),
		model:         model,
		maxIterations: maxIter,
	}, nil
}

// Close releases the gateway. The SDK client holds no connections that
// outlive requests, so this is currently a no-op kept for the Gateway
// contract.
func (g *ClaudeGateway) Close() error {
	return nil
}

// Generate runs the tool loop for one phase prompt. Files written through
// the write_file tool are collected in write order and reported both
// through the progress callback and in the final result.
func (g *ClaudeGateway) Generate(ctx context.Context, req Request) (*Result, error) {
	req.emit(Progress{Kind: ProgressStatus, Message: fmt.Sprintf("generating phase %s", req.PhaseID)})

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}

	var written []string
	seen := make(map[string]bool)

	for i := 0; i < g.maxIterations; i++ {
		resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     g.model,
			MaxTokens: 8192,
			System: []anthropic.TextBlockParam{
				{Text: systemPrompt},
			},
			Messages: messages,
			Tools:    toolDefinitions(),
		})
		if err != nil {
			return nil, &GenerationError{Message: "API call failed", Err: err}
		}

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				if text := strings.TrimSpace(variant.Text); text != "" {
					req.emit(Progress{Kind: ProgressLog, Message: text})
				}
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				content, isErr := g.executeTool(req, variant.Name, variant.Input, seen, &written)
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))
				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, content, isErr))
			}
		}

		if resp.StopReason == anthropic.StopReasonEndTurn {
			var summary strings.Builder
			for _, block := range resp.Content {
				if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
					summary.WriteString(variant.Text)
				}
			}
			return &Result{
				Files:   written,
				Summary: strings.TrimSpace(summary.String()),
			}, nil
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		if len(toolResultBlocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
		}
	}

	return nil, &GenerationError{
		Message: fmt.Sprintf("max iterations (%d) reached for phase %s", g.maxIterations, req.PhaseID),
	}
}

// executeTool dispatches one tool call from the model. Returns the tool
// result content and whether it is an error result.
func (g *ClaudeGateway) executeTool(req Request, name string, input json.RawMessage, seen map[string]bool, written *[]string) (string, bool) {
	switch name {
	case "write_file":
		var args struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return fmt.Sprintf("invalid write_file input: %v", err), true
		}
		rel, err := sanitizePath(req.Workspace, args.Path)
		if err != nil {
			return err.Error(), true
		}
		full := filepath.Join(req.Workspace, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return fmt.Sprintf("create directory: %v", err), true
		}
		if err := os.WriteFile(full, []byte(args.Content), 0644); err != nil {
			return fmt.Sprintf("write file: %v", err), true
		}
		if !seen[rel] {
			seen[rel] = true
			*written = append(*written, rel)
		}
		req.emit(Progress{Kind: ProgressFile, Path: rel})
		return fmt.Sprintf("wrote %s (%d bytes)", rel, len(args.Content)), false

	case "read_file":
		var args struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(input, &args); err != nil {
			return fmt.Sprintf("invalid read_file input: %v", err), true
		}
		rel, err := sanitizePath(req.Workspace, args.Path)
		if err != nil {
			return err.Error(), true
		}
		data, err := os.ReadFile(filepath.Join(req.Workspace, rel))
		if err != nil {
			return fmt.Sprintf("read file: %v", err), true
		}
		return string(data), false

	case "list_files":
		files, err := ListFiles(req.Workspace)
		if err != nil {
			return fmt.Sprintf("list files: %v", err), true
		}
		if len(files) == 0 {
			return "(workspace is empty)", false
		}
		return strings.Join(files, "\n"), false

	default:
		return fmt.Sprintf("unknown tool %q", name), true
	}
}

// sanitizePath resolves a model-supplied path to a workspace-relative one
// and rejects anything that escapes the workspace.
func sanitizePath(workspace, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(workspace, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("path %q is outside the workspace", p)
		}
		p = rel
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the workspace", p)
	}
	return clean, nil
}

// toolDefinitions returns the tool schemas offered to the model.
func toolDefinitions() []anthropic.ToolUnionParam {
	return []anthropic.ToolUnionParam{
		{
			OfTool: &anthropic.ToolParam{
				Name:        "write_file",
				Description: anthropic.String("Write content to a workspace-relative path. Creates parent directories if needed."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"path": map[string]interface{}{
							"type":        "string",
							"description": "Workspace-relative path of the file to write",
						},
						"content": map[string]interface{}{
							"type":        "string",
							"description": "Full content of the file",
						},
					},
					Required: []string{"path", "content"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "read_file",
				Description: anthropic.String("Read a file from the workspace."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"path": map[string]interface{}{
							"type":        "string",
							"description": "Workspace-relative path of the file to read",
						},
					},
					Required: []string{"path"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "list_files",
				Description: anthropic.String("List all files currently in the workspace."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{},
				},
			},
		},
	}
}
