package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/antoniostano/gamemaster/internal/transcript"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Tool rounds are bounded so a confused model cannot loop the session.
const maxToolRounds = 4

// GeminiAdapter narrates through the Gemini API, feeding registered
// tool declarations alongside the persona instructions.
type GeminiAdapter struct {
	apiKey string
	model  string
}

func NewGeminiAdapter(apiKey, model string) (*GeminiAdapter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	return &GeminiAdapter{apiKey: apiKey, model: model}, nil
}

func (a *GeminiAdapter) StreamResponse(ctx context.Context, req MessageRequest, onDelta DeltaHandler) (MessageResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  a.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return MessageResponse{}, fmt.Errorf("gemini client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(req.Instructions) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: declarationsFor(req.Tools)}}
	}

	contents := contentsFromHistory(req.History)
	toolCalls := 0

	for round := 0; ; round++ {
		if round > maxToolRounds {
			return MessageResponse{}, errors.New("gemini tool loop did not converge")
		}

		resp, err := client.Models.GenerateContent(ctx, a.model, contents, cfg)
		if err != nil {
			return MessageResponse{}, fmt.Errorf("gemini generate: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return MessageResponse{}, errors.New("gemini returned no candidates")
		}
		content := resp.Candidates[0].Content

		calls := functionCallsOf(content)
		if len(calls) == 0 {
			text := textOf(content)
			if text != "" && onDelta != nil {
				if err := onDelta(text); err != nil {
					return MessageResponse{}, err
				}
			}
			return MessageResponse{Text: text, ToolCalls: toolCalls}, nil
		}

		if req.Dispatch == nil {
			return MessageResponse{}, errors.New("model requested a tool but no dispatcher is wired")
		}

		contents = append(contents, content)
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			toolCalls++
			result, err := req.Dispatch(ctx, call.Name, call.Args)
			if err != nil {
				// Tool failures are narrated, not fatal.
				result = fmt.Sprintf("tool %s failed: %v", call.Name, err)
			}
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{"result": result}))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
}

func contentsFromHistory(history []transcript.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == transcript.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	if len(contents) == 0 {
		// Session start: a single nudge makes the model open the scene
		// exactly as the persona instructions demand.
		contents = append(contents, genai.NewContentFromText("Begin.", genai.RoleUser))
	}
	return contents
}

func declarationsFor(specs []ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  schemaFromMap(spec.Parameters),
		})
	}
	return decls
}

// schemaFromMap converts the registry's plain-map parameter schema into
// the genai schema type. Only the object/string/number/integer/boolean
// subset our tools declare is supported.
func schemaFromMap(m map[string]any) *genai.Schema {
	if len(m) == 0 {
		return &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
	}

	schema := &genai.Schema{}
	if t, _ := m["type"].(string); t != "" {
		switch strings.ToLower(t) {
		case "object":
			schema.Type = genai.TypeObject
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		default:
			schema.Type = genai.TypeString
		}
	}
	if desc, _ := m["description"].(string); desc != "" {
		schema.Description = desc
	}
	if props, _ := m["properties"].(map[string]any); props != nil {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				schema.Properties[name] = schemaFromMap(sub)
			}
		}
	}
	if required, _ := m["required"].([]string); len(required) > 0 {
		schema.Required = required
	}
	return schema
}

func functionCallsOf(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func textOf(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
