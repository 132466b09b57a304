package pipeline

import (
	"time"

	"goc-notion-sync/models"
)

// Classification 저장소에 있는 기존 레코드와 비교한 페이지 분류
type Classification int

const (
	PageNew Classification = iota
	PageChanged
	PageUnchanged
)

func (c Classification) String() string {
	switch c {
	case PageNew:
		return "new"
	case PageChanged:
		return "changed"
	case PageUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Classify 기존 레코드가 없으면 NEW, 모든 레코드의 수정 시각이 current와 정확히 같으면 UNCHANGED,
// 하나라도 다르면 CHANGED입니다. 시각 정밀도 차이도 변경으로 봅니다
func Classify(current time.Time, prior []models.PriorRecord) Classification {
	if len(prior) == 0 {
		return PageNew
	}
	for _, r := range prior {
		if !r.LastEditedTime.Equal(current) {
			return PageChanged
		}
	}
	return PageUnchanged
}
