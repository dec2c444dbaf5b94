package watch

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/postforge/internal/logfields"
)

// FullRebuildJob periodically injects a forced event so the loop runs a
// full pass even when no notification arrived.
type FullRebuildJob struct {
	scheduler gocron.Scheduler
}

// ScheduleFullRebuild starts a job sending a forced event every interval.
// It returns nil when interval is not positive.
func ScheduleFullRebuild(interval time.Duration, out chan<- Event) (*FullRebuildJob, error) {
	if interval <= 0 {
		return nil, nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(inject, out),
		gocron.WithName("full-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	slog.Info("Scheduled full rebuild", slog.Duration("interval", interval))
	return &FullRebuildJob{scheduler: s}, nil
}

// Stop shuts the scheduler down. It is safe on a nil job.
func (j *FullRebuildJob) Stop() error {
	if j == nil {
		return nil
	}
	return j.scheduler.Shutdown()
}

func inject(out chan<- Event) {
	select {
	case out <- Event{Force: true, At: time.Now()}:
	default:
		slog.Debug("Event channel full, skipping scheduled rebuild", logfields.Cause("schedule"))
	}
}
