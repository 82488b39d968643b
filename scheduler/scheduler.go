// Package scheduler runs per-site collection jobs on a daily cron
// schedule, each in its site's own timezone.
package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Scheduler manages one daily cron job per site key.
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*siteJob
	started bool
}

type siteJob struct {
	cron    *cron.Cron
	entryID cron.EntryID
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{jobs: make(map[string]*siteJob)}
}

// Schedule registers a daily job for key at timeStr (HH:MM) in the
// given timezone, replacing any existing job for the same key.
func (s *Scheduler) Schedule(key, timezone, timeStr string, fn func()) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	hour, minute, err := parseTime(timeStr)
	if err != nil {
		return err
	}
	spec := fmt.Sprintf("%d %d * * *", minute, hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.jobs[key]; ok {
		old.cron.Stop()
		delete(s.jobs, key)
	}

	c := cron.New(cron.WithLocation(loc))
	entryID, err := c.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("add cron job for %s: %w", key, err)
	}

	s.jobs[key] = &siteJob{cron: c, entryID: entryID}
	if s.started {
		c.Start()
	}
	return nil
}

// Jobs returns the scheduled site keys.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.jobs))
	for k := range s.jobs {
		keys = append(keys, k)
	}
	return keys
}

// Next returns the next scheduled run for key, or the zero time if the
// key has no job or the scheduler is stopped.
func (s *Scheduler) Next(key string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[key]
	if !ok {
		return time.Time{}
	}
	return job.cron.Entry(job.entryID).Next
}

// Start begins all registered jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	for _, job := range s.jobs {
		job.cron.Start()
	}
	s.started = true
}

// Stop halts all jobs. Running job functions are not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	for _, job := range s.jobs {
		job.cron.Stop()
	}
	s.started = false
}

func parseTime(timeStr string) (int, int, error) {
	matches := timeRegex.FindStringSubmatch(timeStr)
	if len(matches) != 3 {
		return 0, 0, fmt.Errorf("invalid time format: %q (expected HH:MM)", timeStr)
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])

	return hour, minute, nil
}
