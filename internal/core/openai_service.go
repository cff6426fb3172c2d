package core

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	oaoption "github.com/openai/openai-go/option"
	"gwi.com/research-assistant/internal/utils"
)

const (
	defaultOpenAIChatModel      = "gpt-4o-mini"
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
	openAIMaxBatch              = 512
)

// OpenAIService is the OpenAI-backed Embedder and Answerer.
type OpenAIService struct {
	client         openai.Client
	chatModel      string
	embeddingModel string
	temperature    float32
}

func NewOpenAIService(apiKey, chatModel, embeddingModel string, temperature float32, opts ...oaoption.RequestOption) *OpenAIService {
	if chatModel == "" {
		chatModel = defaultOpenAIChatModel
	}
	if embeddingModel == "" {
		embeddingModel = defaultOpenAIEmbeddingModel
	}
	opts = append([]oaoption.RequestOption{oaoption.WithAPIKey(apiKey)}, opts...)
	return &OpenAIService{
		client:         openai.NewClient(opts...),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		temperature:    temperature,
	}
}

func (s *OpenAIService) Close() {}

func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *OpenAIService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	for start := 0; start < len(texts); start += openAIMaxBatch {
		end := min(start+openAIMaxBatch, len(texts))

		resp, err := s.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts[start:end]},
			Model: openai.EmbeddingModel(s.embeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding request failed: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("openai returned %d embeddings for %d texts", len(resp.Data), end-start)
		}
		for _, d := range resp.Data {
			i := start + int(d.Index)
			if i < start || i >= end || len(d.Embedding) == 0 {
				return nil, fmt.Errorf("openai returned an unusable embedding at index %d", d.Index)
			}
			vectors[i] = utils.Float64To32(d.Embedding)
		}
	}
	return vectors, nil
}

func (s *OpenAIService) Answer(ctx context.Context, req AnswerRequest) (*Answer, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.chatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(answerSystemInstruction),
			openai.UserMessage(buildAnswerPrompt(req)),
		},
		Temperature: openai.Float(float64(s.temperature)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai answer request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("openai returned an empty answer")
	}
	return parseAnswer(resp.Choices[0].Message.Content), nil
}
