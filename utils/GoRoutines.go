package utils

import (
	"errors"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

type noPanicFunc func()
type noPanicFuncWErr func() error

func (f noPanicFunc) run() {
	defer internalRecover()
	f()
}

func (f noPanicFuncWErr) run() (err error) {
	defer func() {
		if recoverErr := recoverToErr(); recoverErr != nil {
			err = recoverErr
		}
	}()
	return f()
}

// SafeAsync runs the function in a new goroutine, a panic is logged instead of crashing the process.
func SafeAsync(function noPanicFunc) {
	go function.run()
}

// SafeSync converts a panic of the function into its returned error.
func SafeSync(function noPanicFuncWErr) error {
	return function.run()
}

func internalRecover() {
	if err := recover(); err != nil {
		log.Errorf("Background task failed with panic: %v", err)
		log.Tracef("Stacktrace: %v", string(debug.Stack()))
	}
}

func recoverToErr() error {
	if e := recover(); e != nil {
		log.Errorf("Task failed with panic: %v", e)
		log.Tracef("Stacktrace: %v", string(debug.Stack()))
		switch x := e.(type) {
		case string:
			return errors.New(x)
		case error:
			return x
		default:
			return errors.New("unknown panic error type")
		}
	}
	return nil
}
