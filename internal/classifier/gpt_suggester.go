package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type gptTagsResponse struct {
	Tags []string `json:"tags"`
}

// GPTSuggester asks an OpenAI model for category tags describing a
// caption. It wraps a HashtagSuggester so explicit hashtags always
// come first, and degrades to hashtags alone when the API call fails.
type GPTSuggester struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	hashtags    *HashtagSuggester
	logger      *zap.Logger
}

func NewGPTSuggester(apiKey, model string, maxTokens int, temperature float64, maxTags int, logger *zap.Logger) *GPTSuggester {
	return &GPTSuggester{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		maxTags:     maxTags,
		hashtags:    NewHashtagSuggester(maxTags),
		logger:      logger,
	}
}

func (s *GPTSuggester) SuggestTags(ctx context.Context, caption string) ([]string, error) {
	tags, _ := s.hashtags.SuggestTags(ctx, caption)
	if strings.TrimSpace(caption) == "" {
		return tags, nil
	}

	prompt := fmt.Sprintf(`Suggest up to %d short category tags for a saved media item with this caption:

%s

Return a JSON object of this structure:
{"tags": ["tag1", "tag2", ...]}

Tags must be single lowercase words.`, s.maxTags, caption)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: float32(s.temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		s.logger.Warn("tag suggestion request failed, using hashtags only", zap.Error(err))
		return tags, nil
	}
	if len(resp.Choices) == 0 {
		return tags, nil
	}

	var parsed gptTagsResponse
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.Trim(content, "` \n")
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		s.logger.Warn("failed to parse tag suggestion response", zap.Error(err))
		return tags, nil
	}

	for _, tag := range parsed.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if s.maxTags > 0 && len(tags) >= s.maxTags {
			break
		}
	}
	return tags, nil
}
