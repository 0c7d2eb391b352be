package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/geoquest/routequest/internal/routequest"
)

// ErrNotConfigured is returned when the provider has no API key.
var ErrNotConfigured = errors.New("provider not configured")

// OpenAI calls the chat-completions REST API directly. The request asks
// the model for a JSON array of bilingual questions.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.model }

func (o *OpenAI) Available(_ context.Context) error {
	if o.apiKey == "" {
		return ErrNotConfigured
	}
	return nil
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// generatedQuestion is the JSON shape the model is instructed to emit.
type generatedQuestion struct {
	QuestionSV    string   `json:"question_sv"`
	OptionsSV     []string `json:"options_sv"`
	ExplanationSV string   `json:"explanation_sv"`
	QuestionEN    string   `json:"question_en"`
	OptionsEN     []string `json:"options_en"`
	ExplanationEN string   `json:"explanation_en"`
	CorrectOption int      `json:"correct_option"`
	Categories    []string `json:"categories"`
	Difficulty    string   `json:"difficulty"`
}

func (o *OpenAI) GenerateQuestions(ctx context.Context, req GenerateRequest) ([]routequest.Question, error) {
	if o.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if req.Count <= 0 {
		req.Count = 1
	}

	body, err := json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading openai response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding openai response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openai: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai: unexpected response (status %d)", resp.StatusCode)
	}

	var payload struct {
		Questions []generatedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("decoding generated questions: %w", err)
	}

	questions := make([]routequest.Question, 0, len(payload.Questions))
	for _, g := range payload.Questions {
		q := routequest.Question{
			Languages: map[string]routequest.Localized{
				"sv": {Text: g.QuestionSV, Options: g.OptionsSV, Explanation: g.ExplanationSV},
			},
			CorrectOption: g.CorrectOption,
			Categories:    g.Categories,
			Difficulty:    g.Difficulty,
			AIGenerated:   true,
		}
		if g.QuestionEN != "" {
			q.Languages["en"] = routequest.Localized{
				Text: g.QuestionEN, Options: g.OptionsEN, Explanation: g.ExplanationEN,
			}
		}
		if q.Difficulty == "" {
			q.Difficulty = "medium"
		}
		questions = append(questions, q)
	}
	return questions, nil
}

const systemPrompt = `You write outdoor quiz questions for a Swedish scavenger-hunt game.
Respond with a JSON object: {"questions": [...]}. Each question has
question_sv, options_sv (4 strings), explanation_sv, question_en,
options_en, explanation_en, correct_option (0-based index), categories
(array of strings) and difficulty (easy|medium|hard).`

func userPrompt(req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d questions.", req.Count)
	if len(req.Categories) > 0 {
		fmt.Fprintf(&b, " Categories: %s.", strings.Join(req.Categories, ", "))
	}
	if req.Difficulty != "" {
		fmt.Fprintf(&b, " Difficulty: %s.", req.Difficulty)
	}
	return b.String()
}
