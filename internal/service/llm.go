package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/domain"
)

const intentPrompt = `You are an intent classifier for a home-loan assistant.

Conversation so far:
%s

Classify the user's latest message into exactly one of:
- start_emi: the user wants to calculate an EMI
- start_eligibility: the user wants a loan eligibility check
- contact_request: the user wants a representative to contact them
- ask_policy: a question about home-loan policy, rates, documents or process
- greeting: a greeting with no request
- affirmative: the user is agreeing (yes)
- negative: the user is declining (no)
- thanks: the user is thanking or closing the conversation

User message: "%s"

Respond ONLY with JSON: {"intent": "<one of the labels above>"}`

const extractPrompt = `You are a slot extractor for a home-loan assistant.

The user was asked for: %s (%s).
Their message: "%s"

If the message states that value (possibly conversationally, e.g.
"around 50 lakhs a year"), respond ONLY with JSON: {"value": "<the value as a plain string>"}.
If the message does not contain the value, respond ONLY with: {"value": null}`

// LLMService is the language-understanding collaborator: an OpenRouter
// chat-completions client used for constrained intent classification and
// single-slot extraction. Calls honor the caller's context deadline and
// retry once on transient failure.
type LLMService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewLLMService(apiKey, model string) *LLMService {
	return &LLMService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    "https://openrouter.ai/api/v1",
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ClassifyIntent implements domain.LanguageService.
func (s *LLMService) ClassifyIntent(ctx context.Context, utterance string, history []domain.Turn) (domain.Intent, error) {
	var b strings.Builder
	// Recent turns only; the classifier needs tone, not the whole session.
	start := len(history) - 8
	if start < 0 {
		start = 0
	}
	for _, t := range history[start:] {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
	}

	content, err := s.complete(ctx, fmt.Sprintf(intentPrompt, b.String(), utterance))
	if err != nil {
		return domain.IntentUnknown, err
	}

	var out struct {
		Intent string `json:"intent"`
	}
	if err := scrapeJSON(content, &out); err != nil {
		return domain.IntentUnknown, domain.ErrCannotClassify
	}

	intent := domain.Intent(out.Intent)
	switch intent {
	case domain.IntentStartEMI, domain.IntentStartEligibility, domain.IntentContact,
		domain.IntentQuestion, domain.IntentGreeting, domain.IntentAffirmative,
		domain.IntentNegative, domain.IntentThanks:
		return intent, nil
	}
	return domain.IntentUnknown, domain.ErrCannotClassify
}

// ExtractSlot implements domain.LanguageService.
func (s *LLMService) ExtractSlot(ctx context.Context, utterance string, def domain.SlotDef) (string, error) {
	content, err := s.complete(ctx, fmt.Sprintf(extractPrompt, def.Name, def.Hint, utterance))
	if err != nil {
		return "", err
	}

	var out struct {
		Value *string `json:"value"`
	}
	if err := scrapeJSON(content, &out); err != nil || out.Value == nil {
		return "", domain.ErrCannotClassify
	}
	return *out.Value, nil
}

func (s *LLMService) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= config.LLMRetries; attempt++ {
		content, err := s.completeOnce(ctx, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isTransient(err) {
			break
		}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %v", domain.ErrCollaboratorTimeout, lastErr)
	}
	return "", fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, lastErr)
}

func (s *LLMService) completeOnce(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       s.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// scrapeJSON finds the first JSON object in model output that may be wrapped
// in prose or code fences.
func scrapeJSON(content string, v any) error {
	m := jsonObjectRe.FindString(content)
	if m == "" {
		return fmt.Errorf("no JSON object in output")
	}
	return json.Unmarshal([]byte(m), v)
}

func isTransient(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "status 429") ||
		strings.Contains(msg, "status 5") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout")
}
