package llm

import (
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// convertTools translates the neutral tool schema into OpenAI function
// definitions by round-tripping each parameter set through its OpenAPI form.
func convertTools(infos []*schema.ToolInfo) ([]openai.ChatCompletionToolParam, error) {
	tools := make([]openai.ChatCompletionToolParam, 0, len(infos))
	for _, info := range infos {
		fn := shared.FunctionDefinitionParam{
			Name:        info.Name,
			Description: openai.String(info.Desc),
		}

		if info.ParamsOneOf != nil {
			openAPI, err := info.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", info.Name, err)
			}
			if openAPI != nil {
				raw, err := json.Marshal(openAPI)
				if err != nil {
					return nil, fmt.Errorf("tool %s: marshal params: %w", info.Name, err)
				}
				var params map[string]any
				if err := json.Unmarshal(raw, &params); err != nil {
					return nil, fmt.Errorf("tool %s: unmarshal params: %w", info.Name, err)
				}
				fn.Parameters = shared.FunctionParameters(params)
			}
		}

		tools = append(tools, openai.ChatCompletionToolParam{Function: fn})
	}
	return tools, nil
}
