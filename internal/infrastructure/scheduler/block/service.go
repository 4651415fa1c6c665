package blockscheduler

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hill399/linkedBtc/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const tipHeightEndpoint = "/blocks/tip/height"

type Option func(*service)

func WithTickerInterval(interval time.Duration) Option {
	return func(s *service) {
		s.tickerInterval = interval
	}
}

// service schedules tasks by block height, polling the tip from an esplora
// instance.
type service struct {
	tipURL         string
	client         *http.Client
	lock           sync.Locker
	tasks          map[int64][]func()
	stopCh         chan struct{}
	stopOnce       sync.Once
	tickerInterval time.Duration
}

func NewScheduler(esploraURL string, opts ...Option) (ports.SchedulerService, error) {
	if len(esploraURL) == 0 {
		return nil, fmt.Errorf("esplora URL is required")
	}

	tipURL, err := url.JoinPath(esploraURL, tipHeightEndpoint)
	if err != nil {
		return nil, err
	}

	svc := &service{
		tipURL:         tipURL,
		client:         &http.Client{Timeout: 10 * time.Second},
		lock:           &sync.Mutex{},
		tasks:          make(map[int64][]func()),
		stopCh:         make(chan struct{}),
		tickerInterval: time.Second * 10,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

func (s *service) Start() {
	go func() {
		ticker := time.NewTicker(s.tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				tasks, err := s.popTasks()
				if err != nil {
					log.Errorf("error fetching tasks: %s", err)
					continue
				}

				if len(tasks) > 0 {
					log.Debugf("fetched %d tasks", len(tasks))
				}
				for _, task := range tasks {
					go task()
				}
			}
		}
	}()
}

func (s *service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *service) Unit() ports.TimeUnit {
	return ports.BlockHeight
}

func (s *service) Now() (int64, error) {
	return s.fetchTipHeight()
}

func (s *service) AfterNow(expiry int64) bool {
	tip, err := s.fetchTipHeight()
	if err != nil {
		return false
	}

	return expiry > tip
}

func (s *service) ScheduleTaskOnce(at int64, task func()) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.tasks[at] = append(s.tasks[at], task)
	return nil
}

func (s *service) popTasks() ([]func(), error) {
	tip, err := s.fetchTipHeight()
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	tasks := make([]func(), 0)
	for height, scheduled := range s.tasks {
		if height > tip {
			continue
		}

		tasks = append(tasks, scheduled...)
		delete(s.tasks, height)
	}

	return tasks, nil
}

func (s *service) fetchTipHeight() (int64, error) {
	resp, err := s.client.Get(s.tipURL)
	if err != nil {
		return 0, err
	}

	// nolint:all
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var tip int64
	if _, err := fmt.Fscanf(resp.Body, "%d", &tip); err != nil {
		return 0, err
	}

	log.Debugf("fetching tip height from %s, got %d", s.tipURL, tip)

	return tip, nil
}
