// Package chunker 페이지 본문을 겹치는 구간이 있는 청크로 나눕니다.
//
// 길이는 바이트가 아니라 문자(rune) 단위입니다. 잘라낼 위치는 남은 텍스트의 앞에서부터
// 탐욕적으로 정하며, 창(window) 안의 마지막 경계를 다음 우선순위로 고릅니다:
// 빈 줄 > 줄바꿈 > 문장 끝 > 공백 > 강제 절단.
package chunker

import (
	"errors"
	"fmt"
	"unicode"

	"goc-notion-sync/models"
)

// ErrInvalidOptions 청크 크기/오버랩 설정이 잘못되었을 때 반환됩니다
var ErrInvalidOptions = errors.New("잘못된 청킹 설정")

// boundary i 위치의 문자 뒤에서 자를 수 있는지 판단합니다
type boundary func(r []rune, i int) bool

var boundaries = []boundary{
	isBlankLine,
	isLineBreak,
	isSentenceEnd,
	isSpace,
}

// Split 텍스트를 maxSize 이하의 청크로 나눕니다.
// 두 번째 청크부터는 이전 청크 끝의 overlap 글자를 다시 포함하므로
// chunks[0] + chunks[1][overlap:] + ... 가 원문과 같습니다.
func Split(text string, maxSize, overlap int) ([]string, error) {
	if maxSize <= 0 || overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: max=%d overlap=%d", ErrInvalidOptions, maxSize, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	minLen := minChunkLen(maxSize, overlap)

	var chunks []string
	start := 0
	for {
		end := start + maxSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks, nil
		}

		cut := findCut(runes, start, end, minLen)
		chunks = append(chunks, string(runes[start:cut]))
		start = cut - overlap
	}
}

// Chunks Split 결과를 페이지 청크(1부터 번호)로 변환합니다
func Chunks(pageID, text string, maxSize, overlap int) ([]models.Chunk, error) {
	parts, err := Split(text, maxSize, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, models.Chunk{
			PageID: pageID,
			Index:  i + 1,
			Text:   part,
		})
	}
	return chunks, nil
}

// minChunkLen 경계를 받아들일 최소 청크 길이.
// overlap보다 길어야 다음 청크의 시작 위치가 항상 앞으로 이동합니다.
func minChunkLen(maxSize, overlap int) int {
	n := maxSize / 2
	if n <= overlap {
		n = overlap + 1
	}
	return n
}

// findCut [start, end) 창에서 잘라낼 위치를 찾습니다
func findCut(runes []rune, start, end, minLen int) int {
	lowest := start + minLen - 1
	for _, isBoundary := range boundaries {
		for i := end - 1; i >= lowest; i-- {
			if isBoundary(runes, i) {
				return i + 1
			}
		}
	}
	return end
}

func isBlankLine(r []rune, i int) bool {
	return r[i] == '\n' && i > 0 && r[i-1] == '\n'
}

func isLineBreak(r []rune, i int) bool {
	return r[i] == '\n'
}

func isSentenceEnd(r []rune, i int) bool {
	switch r[i] {
	case '。', '！', '？':
		return true
	}
	if !unicode.IsSpace(r[i]) || i == 0 {
		return false
	}
	switch r[i-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func isSpace(r []rune, i int) bool {
	return unicode.IsSpace(r[i])
}
