package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Task is an asynchronous unit of work a change listener ties to a switch.
// The context passed in is the one given to Coordinator.Switch.
type Task func(ctx context.Context) error

// SwitchEvent describes a single profile switch. One event value is
// constructed per switch and passed to every change listener.
type SwitchEvent struct {
	// Previous is the profile being replaced.
	Previous Profile

	// Profile is the profile that is now current. It is committed before
	// listeners run: Coordinator.Current already returns it.
	Profile Profile

	// PreserveData asks listeners to retain state tied to Previous for the
	// new profile. The coordinator passes it through without interpreting
	// it.
	PreserveData bool

	joiner *joiner
}

// Join registers a task the switch must wait for. It is valid only during
// the listener's synchronous invocation; once dispatch has finished, the
// joiner is sealed and late tasks are dropped with a warning.
func (e *SwitchEvent) Join(task Task) {
	e.joiner.add(task)
}

// joiner collects the tasks listeners attach to one switch and settles
// them afterwards.
type joiner struct {
	logger *slog.Logger

	mu     sync.Mutex
	sealed bool
	tasks  []Task
}

func newJoiner(logger *slog.Logger) *joiner {
	return &joiner{logger: logger}
}

func (j *joiner) add(task Task) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.sealed {
		j.logger.Warn("switch task registered after listener dispatch, dropping it")
		return
	}

	j.tasks = append(j.tasks, task)
}

// seal closes the joiner to further tasks and returns those collected so
// far, in registration order.
func (j *joiner) seal() []Task {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.sealed = true

	return j.tasks
}

// settle runs every task on its own goroutine and waits for all of them to
// finish, regardless of individual failures. Failures are aggregated with
// errors.Join in registration order; a nil return means every task
// succeeded.
func (j *joiner) settle(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs[i] = task(ctx)
		}()
	}

	wg.Wait()

	return errors.Join(errs...)
}
