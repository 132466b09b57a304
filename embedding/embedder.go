// Package embedding 텍스트를 고정 차원의 벡터로 변환하는 어댑터들을 제공합니다.
package embedding

import (
	"context"
	"errors"
)

var (
	// ErrEmbedding 임베딩 제공자 측 오류 (쿼터, 잘못된 입력, 네트워크)
	ErrEmbedding = errors.New("임베딩 생성 실패")
	// ErrDimension 응답 벡터의 차원이 설정과 다를 때
	ErrDimension = errors.New("임베딩 차원 불일치")
)

// Embedder 텍스트 하나를 벡터 하나로 변환합니다
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider 지원하는 임베딩 제공자
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderBedrock Provider = "bedrock"
)
