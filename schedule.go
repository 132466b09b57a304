package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// runScheduled interval마다 job을 실행합니다. 이전 실행이 끝나지 않았으면 다음 실행을 건너뜁니다.
// ctx가 취소되면 스케줄러를 멈추고 돌아옵니다
func runScheduled(ctx context.Context, interval time.Duration, logger *slog.Logger, job func(context.Context)) error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(interval).StartImmediately().Do(func() {
		if ctx.Err() != nil {
			return
		}
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("동기화 작업 등록 실패: %w", err)
	}

	logger.Info("주기적 동기화 시작", "interval", interval.String())
	s.StartAsync()

	<-ctx.Done()
	s.Stop()
	logger.Info("주기적 동기화 종료")
	return nil
}
