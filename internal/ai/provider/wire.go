package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// request/response types mirror each vendor's API structure.

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

func buildOpenAIRequest(cfg Config, system, user string, opts Options) (string, map[string]string, []byte, error) {
	base := openAIBaseURL
	if cfg.EndpointURL != "" {
		base = strings.TrimSuffix(cfg.EndpointURL, "/")
	}

	body, err := json.Marshal(openAIRequest{
		Model:       cfg.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", nil, nil, err
	}

	headers := map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	return base + "/chat/completions", headers, body, nil
}

func extractOpenAIText(data []byte) (string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system"`
	Messages    []openAIMessage `json:"messages"`
}

func buildAnthropicRequest(cfg Config, system, user string, opts Options) (string, map[string]string, []byte, error) {
	base := anthropicBaseURL
	if cfg.EndpointURL != "" {
		base = strings.TrimSuffix(cfg.EndpointURL, "/")
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       cfg.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		System:      system,
		Messages:    []openAIMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", nil, nil, err
	}

	headers := map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}
	return base + "/v1/messages", headers, body, nil
}

func extractAnthropicText(data []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("response has no text block")
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func buildGeminiRequest(cfg Config, system, user string, opts Options) (string, map[string]string, []byte, error) {
	base := geminiBaseURL
	if cfg.EndpointURL != "" {
		base = strings.TrimSuffix(cfg.EndpointURL, "/")
	}

	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: user}}}},
	}
	req.GenerationConfig.Temperature = opts.Temperature
	req.GenerationConfig.MaxOutputTokens = opts.MaxTokens

	body, err := json.Marshal(req)
	if err != nil {
		return "", nil, nil, err
	}

	headers := map[string]string{"x-goog-api-key": cfg.APIKey}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, cfg.Model)
	return url, headers, body, nil
}

func extractGeminiText(data []byte) (string, error) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			return part.Text, nil
		}
	}
	return "", fmt.Errorf("response has no text part")
}
