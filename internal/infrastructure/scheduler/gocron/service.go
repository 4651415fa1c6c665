package timescheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hill399/linkedBtc/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

func (s *service) Unit() ports.TimeUnit {
	return ports.UnixTime
}

func (s *service) Now() (int64, error) {
	return time.Now().Unix(), nil
}

func (s *service) AfterNow(expiry int64) bool {
	return expiry > time.Now().Unix()
}

// ScheduleTaskOnce runs the task right away if at is already in the past.
func (s *service) ScheduleTaskOnce(at int64, task func()) error {
	delay := at - time.Now().Unix()
	if delay <= 0 {
		log.Debugf("task scheduled at %d is already due, running it now", at)
		go task()
		return nil
	}

	if _, err := s.scheduler.Every(int(delay)).Seconds().WaitForSchedule().
		LimitRunsTo(1).Do(task); err != nil {
		return fmt.Errorf("failed to schedule task at %d: %s", at, err)
	}
	return nil
}
