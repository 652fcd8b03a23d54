// Package summarize turns meeting transcripts into derived texts (email
// summary, social post, automation output) via the OpenAI chat completions
// API.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"meetscribe/internal/models"
)

// Summarizer generates derived texts from a finalized meeting transcript.
// Calls are expensive and not idempotent; the completion poller must call
// these at most once per report.
type Summarizer interface {
	EmailSummary(ctx context.Context, report *models.EventReport) (string, error)
	PostSummary(ctx context.Context, report *models.EventReport) (string, error)
	AutomationOutput(ctx context.Context, report *models.EventReport, automation *models.Automation) (*models.ReportAutomation, error)
}

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 60 * time.Second
	maxTokens      = 1000
)

// OpenAIClient implements Summarizer against the chat completions endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a summarizer. baseURL and model fall back to
// defaults when empty.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// EmailSummary generates a professional email recap of the meeting.
func (c *OpenAIClient) EmailSummary(ctx context.Context, report *models.EventReport) (string, error) {
	if report.Transcript == "" {
		return "", fmt.Errorf("cannot summarize: transcript is empty")
	}

	prompt := fmt.Sprintf(`Based on the following meeting transcript, generate a professional email summary:

Meeting Details:
- Date: %s
- Attendees: %s
- Platform: %s

Transcript:
%s

Please create a concise email summary that includes:
1. Key discussion points
2. Decisions made
3. Action items
4. Next steps

Format as a professional email with appropriate subject line and closing.`,
		report.StartTime.Format(time.RFC1123),
		strings.Join(report.Attendees, ", "),
		platformLabel(report),
		report.Transcript)

	return c.complete(ctx, prompt)
}

// PostSummary generates a casual social media post about the meeting.
func (c *OpenAIClient) PostSummary(ctx context.Context, report *models.EventReport) (string, error) {
	if report.Transcript == "" {
		return "", fmt.Errorf("cannot summarize: transcript is empty")
	}

	prompt := fmt.Sprintf(`Based on the following meeting transcript, generate a social media post:

Meeting Details:
- Date: %s
- Attendees: %s
- Platform: %s

Transcript:
%s

Please create a Social Media post that:
1. Is more casual and friendly
2. Highlights interesting points or outcomes
3. Is engaging for a broader audience
4. Includes appropriate emojis
5. Is conversational in tone`,
		report.StartTime.Format(time.RFC1123),
		strings.Join(report.Attendees, ", "),
		platformLabel(report),
		report.Transcript)

	return c.complete(ctx, prompt)
}

// AutomationOutput generates the text and title for one automation template
// against one report.
func (c *OpenAIClient) AutomationOutput(ctx context.Context, report *models.EventReport, automation *models.Automation) (*models.ReportAutomation, error) {
	if report.Transcript == "" {
		return nil, fmt.Errorf("cannot generate automation content: transcript is empty")
	}

	var textPrompt strings.Builder
	fmt.Fprintf(&textPrompt, "Based on the following meeting transcript, generate content for a %s for %s:\n\n",
		strings.ToLower(strings.ReplaceAll(string(automation.AutomationType), "_", " ")),
		strings.ToLower(string(automation.MediaPlatform)))
	fmt.Fprintf(&textPrompt, "Automation Details:\n- Title: %s\n- Type: %s\n- Platform: %s\n- Description: %s\n",
		automation.Title, automation.AutomationType, automation.MediaPlatform, automation.Description)
	if automation.Example != "" {
		fmt.Fprintf(&textPrompt, "- Example: %s\n", automation.Example)
	}
	fmt.Fprintf(&textPrompt, "\nMeeting Details:\n- Date: %s\n- Attendees: %s\n- Platform: %s\n\n",
		report.StartTime.Format(time.RFC1123), strings.Join(report.Attendees, ", "), platformLabel(report))
	fmt.Fprintf(&textPrompt, "Transcript:\n%s\n", report.Transcript)

	text, err := c.complete(ctx, textPrompt.String())
	if err != nil {
		return nil, err
	}

	titlePrompt := fmt.Sprintf("Find a good title for %s with this text:\n\n%s",
		strings.ToLower(string(automation.MediaPlatform)), report.Transcript)
	title, err := c.complete(ctx, titlePrompt)
	if err != nil {
		return nil, err
	}

	return &models.ReportAutomation{
		ReportID:     report.ID,
		AutomationID: automation.ID,
		Title:        title,
		Text:         text,
	}, nil
}

func platformLabel(report *models.EventReport) string {
	if report.Platform == nil {
		return string(models.PlatformUnknown)
	}
	return string(*report.Platform)
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	log.Printf("🧠 [SUMMARIZE] Generated %d characters", len(content))
	return content, nil
}
