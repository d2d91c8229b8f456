package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"dsr-ledger/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// AgentService turns free-text descriptions into DSR row drafts.
type AgentService interface {
	DraftEntry(ctx context.Context, text, date string) (*core.EntryDraft, error)
}

type Agent struct {
	client *openai.Client
	model  string
}

func NewAgent(apiKey, model string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	return &Agent{client: &client, model: model}
}

// DraftEntry asks the model to read a bill, party and amounts out of text.
func (a *Agent) DraftEntry(ctx context.Context, text, date string) (*core.EntryDraft, error) {
	prompt := buildPrompt(text, date)

	schemaMap, err := schemaMap()
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(a.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "dsr_entry_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A single daily sales report row"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var draft core.EntryDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}
	return &draft, nil
}

func buildPrompt(text, date string) string {
	return fmt.Sprintf(`You are a bookkeeping assistant for a shop's Daily Sales Report.
Read the description and fill one report row.
Rules:
1. bill is the bill or invoice number exactly as written. It is required.
2. credit is the amount billed on credit, payment the amount received, return the value of goods returned, discount any discount allowed.
3. Amounts are plain decimal strings without currency symbols (e.g. "1200.00"). Use "" when an amount is not mentioned.
4. If there is no bill number or no amount at all, set is_clarification to true and ask one short question.
5. Provide a confidence score (0.0-1.0) and a one-line reasoning.

Report date: %s

Description: %s`, date, text)
}

func schemaMap() (map[string]any, error) {
	schemaJSON, err := json.Marshal(generateSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(schemaJSON, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return m, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.EntryDraft
	return reflector.Reflect(v)
}
