package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guarded 임베딩 호출에 속도 제한, 서킷 브레이커, 차원 검사를 씌운 래퍼.
// 재시도는 하지 않습니다.
type Guarded struct {
	next      Embedder
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	dimension int
}

// NewGuarded ratePerSec이 0 이하면 속도 제한 없이, dimension이 0이면 차원 검사 없이 동작합니다
func NewGuarded(next Embedder, ratePerSec float64, dimension int, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("서킷 브레이커 상태 변경", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Guarded{
		next:      next,
		limiter:   rate.NewLimiter(limit, 1),
		breaker:   breaker,
		dimension: dimension,
	}
}

// Embed 내부 어댑터를 호출하고 결과 차원을 확인합니다
func (g *Guarded) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, ErrEmbedding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	vector, _ := out.([]float32)
	if g.dimension > 0 && len(vector) != g.dimension {
		return nil, fmt.Errorf("%w: %w: got %d want %d", ErrEmbedding, ErrDimension, len(vector), g.dimension)
	}
	return vector, nil
}

// Close 내부 어댑터가 io.Closer면 닫습니다
func (g *Guarded) Close() error {
	if c, ok := g.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
