package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration 잘못된 설정. 어떤 외부 시스템에도 접근하기 전에 실행을 멈춥니다
	ErrConfiguration = errors.New("설정 오류")
	// ErrConnection 시작 시점 외부 시스템 연결 실패. 실행 전체가 중단됩니다
	ErrConnection = errors.New("연결 실패")

	// 아래는 페이지 단위 실패로, PageError에 감싸져 Stats.Failures에 남습니다
	ErrExtraction = errors.New("본문 추출 실패")
	ErrEmbedding  = errors.New("임베딩 실패")
	ErrStoreRead  = errors.New("저장소 조회 실패")
	ErrStoreWrite = errors.New("저장소 쓰기 실패")
)

// PageError 한 페이지의 처리 실패. State는 실패 직전까지 도달한 상태입니다
type PageError struct {
	PageID string
	State  State
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("페이지 %s (%s): %v", e.PageID, e.State, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
