// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package jail

import (
	"runtime"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/jail/config"
)

// Enter creates a session for cfg and enters it. If entering fails the
// session is torn down before the error is returned. The returned session
// must be exited from the calling goroutine, which stays locked to its OS
// thread afterwards and should return once it is done. Run handles this on
// its own goroutine.
func Enter(logger hclog.Logger, cfg *config.Config) (*Session, error) {
	s, err := New(logger, cfg)
	if err != nil {
		return nil, err
	}
	if err := enter(s); err != nil {
		return nil, err
	}
	return s, nil
}

func enter(s *Session) error {
	if err := s.Enter(); err != nil {
		if exitErr := s.Exit(); exitErr != nil {
			return multierror.Append(err, exitErr)
		}
		return err
	}
	return nil
}

// Run enters a jail for cfg, calls fn inside it and tears the jail down
// again, also when fn fails or panics. A panic in fn is re-raised on the
// calling goroutine once teardown has finished.
//
// fn runs on a dedicated goroutine locked to a fresh OS thread. The thread
// is discarded afterwards, so state fn leaves on it cannot leak into the
// rest of the program. Goroutines started by fn run outside the jail.
func Run(logger hclog.Logger, cfg *config.Config, fn func(*Session) error) error {
	s, err := New(logger, cfg)
	if err != nil {
		return err
	}
	return s.run(fn)
}

type runResult struct {
	err      error
	panicked bool
	panicVal any
}

func (s *Session) run(fn func(*Session) error) error {
	ch := make(chan runResult, 1)

	go func() {
		// never unlocked; the thread exits with the goroutine
		runtime.LockOSThread()

		var res runResult
		defer func() { ch <- res }()

		if err := enter(s); err != nil {
			res.err = err
			return
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					res.panicked = true
					res.panicVal = r
				}
			}()
			res.err = fn(s)
		}()

		if exitErr := s.Exit(); exitErr != nil {
			if res.err == nil {
				res.err = exitErr
			} else {
				res.err = multierror.Append(res.err, exitErr)
			}
		}
	}()

	res := <-ch
	if res.panicked {
		if res.err != nil {
			s.logger.Error("jail teardown failed after panic", "error", res.err)
		}
		panic(res.panicVal)
	}
	return res.err
}
