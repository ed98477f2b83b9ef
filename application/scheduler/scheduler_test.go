// application/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestEveryNextRun(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s := Every(5 * time.Minute)

	if got := s.nextRun(now); got != now.Add(5*time.Minute) {
		t.Errorf("nextRun = %v, want %v", got, now.Add(5*time.Minute))
	}
}

func TestDailyAtNextRun(t *testing.T) {
	s := DailyAt(9, 30)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "до времени запуска",
			now:  time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "после времени запуска",
			now:  time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
			want: time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "ровно во время запуска",
			now:  time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC),
			want: time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.nextRun(tt.now); !got.Equal(tt.want) {
				t.Errorf("nextRun(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestRegisterScheduling(t *testing.T) {
	s := New()

	immediate := &Job{
		Name:       "immediate",
		Schedule:   Every(time.Hour),
		RunOnStart: true,
		Handler:    func(ctx context.Context) error { return nil },
	}
	deferred := &Job{
		Name:     "deferred",
		Schedule: Every(time.Hour),
		Handler:  func(ctx context.Context) error { return nil },
	}

	s.Register(immediate)
	s.Register(deferred)

	// RunOnStart планирует первый запуск немедленно
	if immediate.Status().NextRun.After(time.Now().UTC()) {
		t.Errorf("задача с RunOnStart отложена до %v", immediate.Status().NextRun)
	}
	// Без RunOnStart первый запуск через полный интервал
	if !deferred.Status().NextRun.After(time.Now().UTC().Add(30 * time.Minute)) {
		t.Errorf("задача без RunOnStart запланирована слишком рано: %v", deferred.Status().NextRun)
	}
}

func TestJobRunsAndReschedules(t *testing.T) {
	s := New()

	var runs int32
	job := &Job{
		Name:       "counter",
		Schedule:   Every(time.Hour),
		RunOnStart: true,
		Handler: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	}
	s.Register(job)
	s.Start()
	defer s.Stop()

	deadline := time.After(3 * time.Second)
	for atomic.LoadInt32(&runs) == 0 {
		select {
		case <-deadline:
			t.Fatal("задача не запустилась при старте")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// После запуска задача перенесена на следующий интервал
	status := job.Status()
	if !status.NextRun.After(time.Now().UTC().Add(30 * time.Minute)) {
		t.Errorf("следующий запуск слишком рано: %v", status.NextRun)
	}
}
