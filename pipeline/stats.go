package pipeline

import (
	"time"
)

// State 페이지 처리 상태
type State string

const (
	StateFetched             State = "fetched"
	StateExtracted           State = "extracted"
	StateClassifiedNew       State = "classified_new"
	StateClassifiedChanged   State = "classified_changed"
	StateClassifiedUnchanged State = "classified_unchanged"
	StateChunked             State = "chunked"
	StateEmbedded            State = "embedded"
	StateWritten             State = "written"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

func classifiedState(c Classification) State {
	switch c {
	case PageNew:
		return StateClassifiedNew
	case PageChanged:
		return StateClassifiedChanged
	default:
		return StateClassifiedUnchanged
	}
}

// Outcome 성공적으로 끝난 페이지의 결과
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeNoContent Outcome = "no_content"
)

// Failure 실패한 페이지 하나
type Failure struct {
	PageID string
	Title  string
	State  State
	Err    error
}

// Stats 동기화 실행 한 번의 집계
type Stats struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Found     int
	Inserted  int
	Updated   int
	Skipped   int
	NoContent int
	Failed    int
	Chunks    int

	Failures []Failure
}

// Processed 결과가 확정된 페이지 수
func (s *Stats) Processed() int {
	return s.Inserted + s.Updated + s.Skipped + s.NoContent + s.Failed
}

// Duration 실행 시간
func (s *Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Stats) record(o Outcome) {
	switch o {
	case OutcomeInserted:
		s.Inserted++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeNoContent:
		s.NoContent++
	}
}

func (s *Stats) fail(pageID, title string, state State, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{PageID: pageID, Title: title, State: state, Err: err})
}
