// Package refresh owns the background loop that periodically reconciles the
// workflow state and consults the rule-engine collaborators.
package refresh

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specdeck/specdeck/config"
	"github.com/specdeck/specdeck/errors"
	"github.com/specdeck/specdeck/logging"
	"github.com/specdeck/specdeck/pkg/events"
)

// pollInterval is the sleep slice between loop iterations, kept short so
// Stop is observed promptly rather than blocking a full refresh interval.
const pollInterval = 100 * time.Millisecond

// defaultStopTimeout bounds how long Stop waits for the loop to exit.
const defaultStopTimeout = 5 * time.Second

// Refresher re-scans the workflow state. Satisfied by *data.Manager.
type Refresher interface {
	RefreshAll() error
}

// Suggestion is one recommended follow-up command.
type Suggestion struct {
	Command string
	Reason  string
}

// SuggestionEngine proposes commands based on the current state.
type SuggestionEngine interface {
	Name() string
	Suggest() ([]Suggestion, error)
}

// Issue is one detected problem in the workflow tree.
type Issue struct {
	Severity string
	Message  string
}

// ErrorDetector scans for workflow problems.
type ErrorDetector interface {
	Name() string
	Detect() ([]Issue, error)
}

// Status is one collaborator health snapshot.
type Status struct {
	Name    string
	Healthy bool
	Detail  string
}

// StatusChecker reports the health of one external dependency.
type StatusChecker interface {
	Name() string
	Check() (Status, error)
}

// Results summarizes one refresh cycle.
type Results struct {
	Suggestions []Suggestion
	Issues      []Issue
	Statuses    []Status
	// Failures names the collaborators that errored or panicked this cycle.
	Failures []string
	Duration time.Duration
}

// Service runs refresh cycles: reconciler refresh, then suggestion engines,
// error detectors and status checkers, in fixed order. One failing
// collaborator never blocks the others or stops the loop.
type Service struct {
	refresher Refresher
	bus       *events.Bus
	interval  time.Duration
	logger    *logrus.Entry

	mu         sync.Mutex
	suggesters []SuggestionEngine
	detectors  []ErrorDetector
	checkers   []StatusChecker
	running    bool
	stop       chan struct{}
	done       chan struct{}
}

// New creates a Service configured from cfg.
func New(cfg *config.Config, refresher Refresher, bus *events.Bus) *Service {
	return &Service{
		refresher: refresher,
		bus:       bus,
		interval:  cfg.Sync.RefreshInterval(),
		logger:    logging.NewLogger("refresh-service"),
	}
}

// RegisterSuggestionEngine adds a suggestion collaborator. Safe to call
// while the loop is running; the next cycle picks it up.
func (s *Service) RegisterSuggestionEngine(e SuggestionEngine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggesters = append(s.suggesters, e)
}

// RegisterErrorDetector adds an error-detection collaborator.
func (s *Service) RegisterErrorDetector(d ErrorDetector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectors = append(s.detectors, d)
}

// RegisterStatusChecker adds a status-check collaborator.
func (s *Service) RegisterStatusChecker(c StatusChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers = append(s.checkers, c)
}

// Start launches the background loop. Idempotent: a second call while
// running is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)

	s.logger.WithField("interval", s.interval).Info("Refresh loop started")
}

// Stop signals the loop and waits for it with a bounded timeout. A loop that
// does not terminate in time is logged, never surfaced: shutdown always
// succeeds. Safe to call repeatedly and from any goroutine.
func (s *Service) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	select {
	case <-done:
		s.logger.Debug("Refresh loop stopped")
	case <-time.After(timeout):
		err := errors.StopTimeout("refresh-service", timeout.String())
		s.logger.WithError(err).Warn("Refresh loop did not stop in time")
	}
}

// RefreshNow runs one full cycle synchronously on the caller's goroutine.
// Safe to call concurrently with the background loop; both paths only invoke
// thread-safe collaborator methods.
func (s *Service) RefreshNow() Results {
	return s.runCycle("manual")
}

// loop wakes every pollInterval and runs a cycle once the refresh interval
// has elapsed.
func (s *Service) loop(stop, done chan struct{}) {
	defer close(done)

	next := time.Now().Add(s.interval)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if time.Now().Before(next) {
				continue
			}
			s.runCycle("interval")
			next = time.Now().Add(s.interval)
		}
	}
}

// runCycle executes the fixed collaborator sequence and publishes one
// summarizing state.updated event.
func (s *Service) runCycle(source string) Results {
	started := time.Now()
	var results Results

	s.mu.Lock()
	suggesters := append([]SuggestionEngine(nil), s.suggesters...)
	detectors := append([]ErrorDetector(nil), s.detectors...)
	checkers := append([]StatusChecker(nil), s.checkers...)
	s.mu.Unlock()

	if err := s.safely("refresh", func() error { return s.refresher.RefreshAll() }); err != nil {
		results.Failures = append(results.Failures, "refresh")
	}

	for _, engine := range suggesters {
		engine := engine
		err := s.safely(engine.Name(), func() error {
			suggestions, err := engine.Suggest()
			if err != nil {
				return err
			}
			results.Suggestions = append(results.Suggestions, suggestions...)
			return nil
		})
		if err != nil {
			results.Failures = append(results.Failures, engine.Name())
		}
	}

	for _, detector := range detectors {
		detector := detector
		err := s.safely(detector.Name(), func() error {
			issues, err := detector.Detect()
			if err != nil {
				return err
			}
			results.Issues = append(results.Issues, issues...)
			return nil
		})
		if err != nil {
			results.Failures = append(results.Failures, detector.Name())
		}
	}

	for _, checker := range checkers {
		checker := checker
		err := s.safely(checker.Name(), func() error {
			status, err := checker.Check()
			if err != nil {
				return err
			}
			results.Statuses = append(results.Statuses, status)
			return nil
		})
		if err != nil {
			results.Failures = append(results.Failures, checker.Name())
		}
	}

	results.Duration = time.Since(started)

	s.bus.Publish(events.EventStateUpdated, events.StatePayload{
		Reason: "refresh-cycle",
		Full:   true,
	}, "refresh-service:"+source)

	return results
}

// safely invokes one collaborator, converting panics into errors and logging
// every failure. The cycle continues regardless.
func (s *Service) safely(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collaborator panicked: %v", r)
			s.logger.WithFields(logrus.Fields{"collaborator": name, "panic": r}).Error("Collaborator panicked")
		}
	}()

	if err = fn(); err != nil {
		s.logger.WithError(err).WithField("collaborator", name).Error("Collaborator failed")
	}
	return err
}
