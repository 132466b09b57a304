package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel Gemini 기본 임베딩 모델
const DefaultGeminiModel = "text-embedding-004"

// GeminiEmbedder Gemini API를 사용하여 텍스트를 임베딩으로 변환하는 구조체
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// NewGeminiEmbedder 새로운 Gemini 임베딩 생성기를 생성합니다.
// 동기화에는 genai.TaskTypeRetrievalDocument, 검색 질의에는 genai.TaskTypeRetrievalQuery를 씁니다.
func NewGeminiEmbedder(ctx context.Context, apiKey, modelID string, taskType genai.TaskType) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("Gemini 클라이언트 생성 실패: %w", err)
	}

	if modelID == "" {
		modelID = DefaultGeminiModel
	}
	model := client.EmbeddingModel(modelID)
	model.TaskType = taskType

	return &GeminiEmbedder{
		client: client,
		model:  model,
	}, nil
}

// Embed 텍스트를 임베딩 벡터로 변환합니다
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: 임베딩 응답이 비어있습니다", ErrEmbedding)
	}

	values := resp.Embedding.Values
	result := make([]float32, len(values))
	copy(result, values)

	return result, nil
}

// Close 클라이언트를 닫습니다
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
