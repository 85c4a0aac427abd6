package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const starRaterInstructions = `You are a sentiment rater. Rate the sentiment of the user's text, in any language, on the same 1-5 star scale a product review would use. Respond with JSON only.`

// starRating is the structured output of the OpenAI-backed classifier. The
// star_label values mirror the labels of the pretrained star-rating model
// so the bucket mapping is shared between providers.
type starRating struct {
	StarLabel string `json:"star_label" jsonschema:"enum=1 star,enum=2 stars,enum=3 stars,enum=4 stars,enum=5 stars"`
}

var starRatingSchema = generateSchema[starRating]()

// OpenAIClassifier rates sentiment with a chat model constrained to the
// five star labels. Selected with SENTIMENT_PROVIDER=openai.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

func NewOpenAIClassifier() *OpenAIClassifier {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
	return &OpenAIClassifier{client: &client, model: model}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (string, error) {
	if c.client == nil {
		return "", errors.New("OpenAIClassifier: client is nil")
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "StarRating",
			Schema:      starRatingSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Star rating JSON"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(50),
		Instructions:    openai.String(starRaterInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := callWithRetry(ctx, c.client, params)
	if err != nil {
		return "", err
	}

	var out starRating
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.OutputText())), &out); err != nil {
		return "", fmt.Errorf("unmarshal star rating: %w", err)
	}
	return out.StarLabel, nil
}

func callWithRetry(ctx context.Context, client *openai.Client, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	rateLimitWaitTimes := []time.Duration{65 * time.Second, 100 * time.Second, 135 * time.Second}
	serverErrorWaitTimes := []time.Duration{5 * time.Second, 30 * time.Second, 60 * time.Second}

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := client.Responses.New(ctx, params)
		if err != nil {
			if isRateLimitError(err) {
				if attempt < maxRetries-1 {
					if err := sleepCtx(ctx, rateLimitWaitTimes[attempt]); err != nil {
						return nil, err
					}
					continue
				}
			} else if isServerError(err) {
				if attempt < maxRetries-1 {
					if err := sleepCtx(ctx, serverErrorWaitTimes[attempt]); err != nil {
						return nil, err
					}
					continue
				}
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("failed after %d attempts due to OpenAI API issues", maxRetries)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "server_error")
}

func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	ensureSchemaCompliance(m)
	return m
}

// ensureSchemaCompliance forces the strict-mode shape the structured
// output API expects: objects close additionalProperties and require
// every declared property.
func ensureSchemaCompliance(schema map[string]interface{}) {
	if schemaType, ok := schema["type"].(string); ok && schemaType == "object" {
		schema["additionalProperties"] = false
		if properties, ok := schema["properties"].(map[string]interface{}); ok {
			var required []string
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}
	if properties, ok := schema["properties"].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				ensureSchemaCompliance(propMap)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		ensureSchemaCompliance(items)
	}
}
