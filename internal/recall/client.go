// Package recall is the HTTP client for the Recall.ai meeting-bot API.
package recall

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

	"golang.org/x/time/rate"
)

// BotProvider is what the lifecycle code needs from the bot service. Join
// times are always computed in UTC.
type BotProvider interface {
	CreateBot(ctx context.Context, meetingURL string, joinAt time.Time) (string, error)
	DeleteBot(ctx context.Context, botID string) error
	IsTranscriptReady(ctx context.Context, botID string) (bool, error)
	FetchTranscript(ctx context.Context, botID string) (string, error)
}

const (
	defaultBaseURL = "https://us-west-2.recall.ai/api/v1"
	requestTimeout = 30 * time.Second
	botName        = "meetscribe_bot"

	// the API allows ~300 requests/min per workspace; stay well under it
	requestsPerSecond = 2
	requestBurst      = 5
)

// Client talks to the Recall.ai REST API. All calls are rate limited
// client-side so the periodic pollers cannot exhaust the API quota.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Recall API client. baseURL falls back to the US region
// endpoint when empty.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}
}

type createBotRequest struct {
	MeetingURL      string          `json:"meeting_url"`
	BotName         string          `json:"bot_name"`
	JoinAt          string          `json:"join_at,omitempty"`
	RecordingConfig recordingConfig `json:"recording_config"`
}

type recordingConfig struct {
	Transcript transcriptConfig `json:"transcript"`
}

type transcriptConfig struct {
	Provider map[string]struct{} `json:"provider"`
}

type botResponse struct {
	ID         string      `json:"id"`
	Recordings []recording `json:"recordings"`
}

type recording struct {
	MediaShortcuts struct {
		Transcript *struct {
			ID string `json:"id"`
		} `json:"transcript"`
	} `json:"media_shortcuts"`
}

type transcriptResponse struct {
	Data struct {
		DownloadURL string `json:"download_url"`
	} `json:"data"`
}

// CreateBot schedules a bot to join the meeting at joinAt. The API rejects
// join times in the past, which is why callers gate creation on the dispatch
// window first.
func (c *Client) CreateBot(ctx context.Context, meetingURL string, joinAt time.Time) (string, error) {
	body := createBotRequest{
		MeetingURL: meetingURL,
		BotName:    botName,
		JoinAt:     joinAt.UTC().Format(time.RFC3339),
		RecordingConfig: recordingConfig{
			Transcript: transcriptConfig{
				Provider: map[string]struct{}{"assembly_ai_streaming": {}},
			},
		},
	}

	var resp botResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/bot/", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create bot: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("bot creation returned no id")
	}

	log.Printf("🤖 [RECALL] Created bot %s for %s joining at %s", resp.ID, meetingURL, body.JoinAt)
	return resp.ID, nil
}

// DeleteBot cancels a scheduled bot.
func (c *Client) DeleteBot(ctx context.Context, botID string) error {
	if err := c.do(ctx, http.MethodDelete, c.baseURL+"/bot/"+botID+"/", nil, nil); err != nil {
		return fmt.Errorf("failed to delete bot %s: %w", botID, err)
	}
	log.Printf("🤖 [RECALL] Deleted bot %s", botID)
	return nil
}

// IsTranscriptReady reports whether the bot has finished and produced a
// downloadable transcript.
func (c *Client) IsTranscriptReady(ctx context.Context, botID string) (bool, error) {
	url, err := c.transcriptDownloadURL(ctx, botID)
	if err != nil {
		return false, err
	}
	return url != "", nil
}

// FetchTranscript downloads the finished transcript for the bot.
func (c *Client) FetchTranscript(ctx context.Context, botID string) (string, error) {
	downloadURL, err := c.transcriptDownloadURL(ctx, botID)
	if err != nil {
		return "", err
	}
	if downloadURL == "" {
		return "", fmt.Errorf("no transcript available for bot %s", botID)
	}

	// the download URL is pre-signed; our API key must not be attached
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build transcript request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcript download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}

// transcriptDownloadURL resolves the bot's transcript id and then its
// pre-signed download URL. "" means the transcript is not ready yet.
func (c *Client) transcriptDownloadURL(ctx context.Context, botID string) (string, error) {
	var bot botResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/bot/"+botID+"/", nil, &bot); err != nil {
		return "", fmt.Errorf("failed to retrieve bot %s: %w", botID, err)
	}

	transcriptID := ""
	for _, rec := range bot.Recordings {
		if rec.MediaShortcuts.Transcript != nil && rec.MediaShortcuts.Transcript.ID != "" {
			transcriptID = rec.MediaShortcuts.Transcript.ID
			break
		}
	}
	if transcriptID == "" {
		return "", nil
	}

	var transcript transcriptResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/transcript/"+transcriptID+"/", nil, &transcript); err != nil {
		return "", fmt.Errorf("failed to retrieve transcript %s: %w", transcriptID, err)
	}
	return transcript.Data.DownloadURL, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
