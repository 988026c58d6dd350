// Copyright (c) 2026 FlowCore Organization
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/flowcoreio/flowcore/common/log"
	"github.com/flowcoreio/flowcore/common/log/tag"
	"github.com/flowcoreio/flowcore/common/uuid"
)

// workerProcess abstracts one runner child so the pool can be tested without
// spawning real processes.
type workerProcess interface {
	Id() string
	// Send writes one job request down the child's stdin
	Send(req JobRequest) error
	// Done streams completions from the child's stdout; closed on exit
	Done() <-chan JobDone
	// SignalStop closes stdin, the graceful termination signal
	SignalStop() error
	Kill() error
	Wait() error
}

type execWorker struct {
	id     string
	cmd    *exec.Cmd
	logger log.Logger

	stdin   io.WriteCloser
	encMu   sync.Mutex
	encoder *json.Encoder
	done    chan JobDone

	stopOnce sync.Once
	stopErr  error
}

// spawnRunner starts this same binary as a runner child. The worker id is
// handed to the child so its heartbeats and the manager's bookkeeping agree.
func spawnRunner(configPath string, logger log.Logger) (workerProcess, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("worker: locate executable: %w", err)
	}
	workerId := uuid.MustNewUUID()
	cmd := exec.Command(exe,
		"--config", configPath,
		"--service", "runner",
		"--worker-id", workerId,
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("worker: start runner: %w", err)
	}

	w := &execWorker{
		id:      workerId,
		cmd:     cmd,
		logger:  logger,
		stdin:   stdin,
		encoder: json.NewEncoder(stdin),
		// a runner executes one job at a time, so one slot is enough for a
		// completion that lands after the manager stopped listening; without
		// it the pump would block forever and never close the channel
		done: make(chan JobDone, 1),
	}
	go w.pump(stdout)
	logger.Info("runner spawned", tag.WorkerId(workerId))
	return w, nil
}

func (w *execWorker) pump(stdout io.Reader) {
	defer close(w.done)
	decoder := json.NewDecoder(stdout)
	for {
		var done JobDone
		if err := decoder.Decode(&done); err != nil {
			if err != io.EOF {
				w.logger.Warn("runner stdout closed", tag.WorkerId(w.id), tag.Error(err))
			}
			return
		}
		w.done <- done
	}
}

func (w *execWorker) Id() string { return w.id }

func (w *execWorker) Send(req JobRequest) error {
	w.encMu.Lock()
	defer w.encMu.Unlock()
	return w.encoder.Encode(req)
}

func (w *execWorker) Done() <-chan JobDone { return w.done }

func (w *execWorker) SignalStop() error {
	w.stopOnce.Do(func() {
		w.stopErr = w.stdin.Close()
	})
	return w.stopErr
}

func (w *execWorker) Kill() error {
	return w.cmd.Process.Kill()
}

func (w *execWorker) Wait() error {
	return w.cmd.Wait()
}
