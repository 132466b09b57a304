package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// DefaultBedrockModel Bedrock 기본 임베딩 모델 (Amazon Titan v2)
const DefaultBedrockModel = "amazon.titan-embed-text-v2:0"

// invoker bedrockruntime.Client 중 임베딩에 쓰는 부분
type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockConfig Bedrock 접속 설정. 키가 비어있으면 AWS 기본 자격 증명 체인을 씁니다
type BedrockConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	ModelID   string
	Dimension int
}

// BedrockEmbedder Amazon Bedrock Titan 모델로 임베딩을 생성합니다
type BedrockEmbedder struct {
	client    invoker
	modelID   string
	dimension int
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize,omitempty"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewBedrockEmbedder 새로운 Bedrock 임베딩 생성기를 생성합니다
func NewBedrockEmbedder(ctx context.Context, cfg BedrockConfig) (*BedrockEmbedder, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("AWS 설정 로드 실패: %w", err)
	}

	return newBedrockEmbedder(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID, cfg.Dimension), nil
}

func newBedrockEmbedder(client invoker, modelID string, dimension int) *BedrockEmbedder {
	if modelID == "" {
		modelID = DefaultBedrockModel
	}
	return &BedrockEmbedder{
		client:    client,
		modelID:   modelID,
		dimension: dimension,
	}
}

// Embed 텍스트를 임베딩 벡터로 변환합니다
func (e *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := titanRequest{InputText: text}
	// v1 모델은 inputText 외의 필드를 거부함
	if strings.Contains(e.modelID, "titan-embed-text-v2") {
		req.Dimensions = e.dimension
		req.Normalize = true
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: 요청 직렬화 실패: %w", ErrEmbedding, err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: Bedrock 호출 실패: %w", ErrEmbedding, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: 응답 파싱 실패: %w", ErrEmbedding, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: 임베딩 응답이 비어있습니다", ErrEmbedding)
	}

	return resp.Embedding, nil
}
