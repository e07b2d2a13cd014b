package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	moerr "github.com/matzehuels/moto/pkg/errors"
	"github.com/matzehuels/moto/pkg/httputil"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

// RecommendationCount is how many recommendations the prompt asks for.
const RecommendationCount = 3

// Result is one conversion audit.
type Result struct {
	Score           float64  `json:"score"`
	Recommendations []string `json:"recommendations"`
	Tips            string   `json:"tips"`
}

// ErrMalformed is returned when the model's answer does not match the schema.
var ErrMalformed = errors.New("audit: malformed response")

// Auditor produces an audit for a description.
type Auditor interface {
	Audit(ctx context.Context, description string) (*Result, error)
}

// ContentGenerator is the part of the genai client the auditor uses.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAuditor audits with a Gemini model.
type GeminiAuditor struct {
	models ContentGenerator
	model  string
}

// NewGeminiAuditor creates a client for the Gemini API. An empty model
// selects DefaultModel.
func NewGeminiAuditor(ctx context.Context, apiKey, model string) (*GeminiAuditor, error) {
	if apiKey == "" {
		return nil, moerr.New(moerr.ErrCodeAuditMissing, "no Gemini API key configured (set GEMINI_API_KEY)")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewGeminiAuditorWith(client.Models, model), nil
}

// NewGeminiAuditorWith builds an auditor over an existing generator.
func NewGeminiAuditorWith(models ContentGenerator, model string) *GeminiAuditor {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAuditor{models: models, model: model}
}

// Model returns the model name.
func (a *GeminiAuditor) Model() string { return a.model }

// Prompt returns the instruction sent for description.
func Prompt(description string) string {
	return fmt.Sprintf("Perform a conversion optimization audit for a website described as follows: %q. "+
		"Provide a conversion score (0-100), %d specific actionable recommendations, "+
		"and a general summary of design tips to improve buyer psychology.",
		description, RecommendationCount)
}

// Schema is the JSON response schema the model must follow.
func Schema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {Type: genai.TypeNumber},
			"recommendations": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"tips": {Type: genai.TypeString},
		},
		Required: []string{"score", "recommendations", "tips"},
	}
}

// Audit sends one request. Transient failures come back wrapped in
// httputil.RetryableError.
func (a *GeminiAuditor) Audit(ctx context.Context, description string) (*Result, error) {
	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(Prompt(description)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   Schema(),
	})
	if err != nil {
		err = fmt.Errorf("GenAI audit failed: %w", err)
		if transient(err) {
			return nil, httputil.Retryable(err)
		}
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}
	return Parse(resp.Text())
}

// Parse decodes and checks a model answer.
func Parse(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	var raw struct {
		Score           *float64 `json:"score"`
		Recommendations []string `json:"recommendations"`
		Tips            *string  `json:"tips"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case raw.Score == nil:
		return nil, fmt.Errorf("%w: missing score", ErrMalformed)
	case *raw.Score < 0 || *raw.Score > 100:
		return nil, fmt.Errorf("%w: score %v out of range", ErrMalformed, *raw.Score)
	case raw.Recommendations == nil:
		return nil, fmt.Errorf("%w: missing recommendations", ErrMalformed)
	case raw.Tips == nil:
		return nil, fmt.Errorf("%w: missing tips", ErrMalformed)
	}
	recs := raw.Recommendations[:0]
	for _, r := range raw.Recommendations {
		if r = strings.TrimSpace(r); r != "" {
			recs = append(recs, r)
		}
	}
	return &Result{Score: *raw.Score, Recommendations: recs, Tips: strings.TrimSpace(*raw.Tips)}, nil
}

func transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return httputil.StatusRetryable(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return httputil.StatusRetryable(apiErrPtr.Code)
	}
	return false
}
