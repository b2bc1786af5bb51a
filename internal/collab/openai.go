package collab

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Sontakkepratham/Mindlens-sub001/internal/services"
)

const emotionPrompt = `Classify the dominant facial emotion in the image.
Reply with a single JSON object: {"primary_emotion": string, "confidence": number between 0 and 1, "secondary_markers": [string]}.
Use lowercase labels such as happy, sad, angry, fearful, surprised, disgusted, neutral.`

// OpenAIEmotion runs facial-emotion classification through an
// OpenAI-compatible vision model. The image is sent for inference only and
// is never stored by this collaborator.
type OpenAIEmotion struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmotion builds the collaborator. baseURL may be empty for the
// default API endpoint; model defaults to gpt-4o-mini.
func NewOpenAIEmotion(apiKey, baseURL, model string) *OpenAIEmotion {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIEmotion{client: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAIEmotion) Analyze(ctx context.Context, image []byte) (*services.EmotionAnalysisResult, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: emotionPrompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("emotion completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("emotion completion returned no choices")
	}
	return parseEmotionReply(resp.Choices[0].Message.Content, e.model)
}

func parseEmotionReply(content, model string) (*services.EmotionAnalysisResult, error) {
	content = strings.TrimSpace(content)
	// Models occasionally wrap the object in a code fence despite the prompt.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var reply struct {
		PrimaryEmotion   string   `json:"primary_emotion"`
		Confidence       float64  `json:"confidence"`
		SecondaryMarkers []string `json:"secondary_markers"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("parse emotion reply %q: %w", content, err)
	}
	if reply.PrimaryEmotion == "" {
		return nil, fmt.Errorf("emotion reply missing primary_emotion: %q", content)
	}
	if reply.Confidence < 0 {
		reply.Confidence = 0
	}
	if reply.Confidence > 1 {
		reply.Confidence = 1
	}
	return &services.EmotionAnalysisResult{
		PrimaryEmotion:   strings.ToLower(reply.PrimaryEmotion),
		Confidence:       reply.Confidence,
		SecondaryMarkers: reply.SecondaryMarkers,
		ModelVersion:     model,
	}, nil
}
