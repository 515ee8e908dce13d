package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/dedent"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	DefaultEstimateModel = "gemini-3-flash-preview"
	DefaultImageModel    = "gemini-2.5-flash-image"
)

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.50
	geminiOutputPricePerMillion = 3.00
)

var estimatePrompt = strings.TrimSpace(dedent.Dedent(`
	You are an experienced general contractor. Look at this job site photo and
	estimate the cost of the renovation work it calls for, in US dollars.

	Respond in JSON format with these fields:
	- total: the estimated total cost as a number
	- breakdown: a list of line items, each with "label" (short description of the
	  work or material) and "cost" (number)

	The line item costs must add up to the total. Use 3 to 8 line items.

	Example response:
	{"total": 4500, "breakdown": [{"label": "Demolition & Prep", "cost": 500}, {"label": "Materials (Tiles, Grout)", "cost": 1200}, {"label": "Labor (Installation)", "cost": 2500}, {"label": "Waste Disposal", "cost": 300}]}

	Respond ONLY with the JSON object, no markdown or other text.
`))

var renderPrompt = strings.TrimSpace(dedent.Dedent(`
	Show this exact job site after a professional renovation has been completed.
	Keep the camera angle, room layout and lighting of the original photo. Replace
	worn or damaged surfaces with new, clean, modern finishes. Return one image.
`))

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiEstimator asks Gemini for a cost breakdown of a site photo.
type GeminiEstimator struct {
	client *genai.Client
	model  string
	loader *photo.Loader
}

var _ Estimator = (*GeminiEstimator)(nil)

// NewGeminiEstimator creates an estimator. An empty model uses DefaultEstimateModel.
func NewGeminiEstimator(client *genai.Client, model string, loader *photo.Loader) *GeminiEstimator {
	if model == "" {
		model = DefaultEstimateModel
	}
	if loader == nil {
		loader = photo.NewLoader(nil)
	}
	return &GeminiEstimator{client: client, model: model, loader: loader}
}

func (g *GeminiEstimator) Estimate(ctx context.Context, image photo.Handle) (*Estimate, error) {
	data, mimeType, err := g.loader.Bytes(ctx, image)
	if err != nil {
		return nil, &EstimationError{Reason: "could not load photo", Err: err}
	}

	parts := []*genai.Part{
		genai.NewPartFromText(estimatePrompt),
		{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   estimateSchema,
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, &EstimationError{Reason: "no response from Gemini"}
	}

	estimate, err := parseEstimate(result.Text())
	if err != nil {
		return nil, &EstimationError{Reason: "unreadable estimate", Err: err}
	}

	usage := usageFrom(result.UsageMetadata)
	log.Info().
		Str("model", g.model).
		Dur("elapsed", time.Since(start)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Str("total", estimate.Total.String()).
		Int("items", len(estimate.Breakdown)).
		Msg("estimate llm call")

	return estimate, nil
}

var estimateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"total": {Type: genai.TypeNumber},
		"breakdown": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"label": {Type: genai.TypeString},
					"cost":  {Type: genai.TypeNumber},
				},
				Required: []string{"label", "cost"},
			},
		},
	},
	Required: []string{"total", "breakdown"},
}

type estimateResponse struct {
	Total     float64 `json:"total"`
	Breakdown []struct {
		Label string  `json:"label"`
		Cost  float64 `json:"cost"`
	} `json:"breakdown"`
}

// parseEstimate converts the model's JSON answer into an Estimate. A missing
// total is replaced with the sum of the line items.
func parseEstimate(text string) (*Estimate, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var resp estimateResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse estimate json: %w (response: %s)", err, jsonStr)
	}
	estimate := &Estimate{Total: MoneyFromFloat(resp.Total)}
	for _, item := range resp.Breakdown {
		label := strings.TrimSpace(item.Label)
		if label == "" {
			continue
		}
		estimate.Breakdown = append(estimate.Breakdown, BreakdownItem{Label: label, Cost: MoneyFromFloat(item.Cost)})
	}
	if len(estimate.Breakdown) == 0 {
		return nil, fmt.Errorf("estimate has no line items")
	}
	if estimate.Total <= 0 {
		estimate.Total = estimate.Sum()
	}
	return estimate, nil
}

// GeminiVisualizer asks a Gemini image model for a renovated version of a site photo.
type GeminiVisualizer struct {
	client *genai.Client
	model  string
	loader *photo.Loader
}

var _ Visualizer = (*GeminiVisualizer)(nil)

// NewGeminiVisualizer creates a visualizer. An empty model uses DefaultImageModel.
func NewGeminiVisualizer(client *genai.Client, model string, loader *photo.Loader) *GeminiVisualizer {
	if model == "" {
		model = DefaultImageModel
	}
	if loader == nil {
		loader = photo.NewLoader(nil)
	}
	return &GeminiVisualizer{client: client, model: model, loader: loader}
}

func (g *GeminiVisualizer) Render(ctx context.Context, image photo.Handle) (photo.Handle, error) {
	data, mimeType, err := g.loader.Bytes(ctx, image)
	if err != nil {
		return photo.Handle{}, &VisualizationError{Reason: "could not load photo", Err: err}
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
		genai.NewPartFromText(renderPrompt),
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, config)
	if err != nil {
		return photo.Handle{}, fmt.Errorf("failed to generate image: %w", err)
	}

	rendered, ok := firstImage(result)
	if !ok {
		return photo.Handle{}, &VisualizationError{Reason: "no image in Gemini response"}
	}

	usage := usageFrom(result.UsageMetadata)
	log.Info().
		Str("model", g.model).
		Dur("elapsed", time.Since(start)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Int("imageBytes", len(rendered.Data)).
		Msg("render llm call")

	return rendered, nil
}

func firstImage(result *genai.GenerateContentResponse) (photo.Handle, bool) {
	if result == nil {
		return photo.Handle{}, false
	}
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return photo.FromBytes(part.InlineData.Data, part.InlineData.MIMEType), true
			}
		}
	}
	return photo.Handle{}, false
}

func usageFrom(meta *genai.GenerateContentResponseUsageMetadata) Usage {
	if meta == nil {
		return Usage{}
	}
	usage := Usage{
		InputTokens:  int64(meta.PromptTokenCount),
		OutputTokens: int64(meta.CandidatesTokenCount),
		TotalTokens:  int64(meta.TotalTokenCount),
	}
	usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	return usage
}

func calculateGeminiCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}
