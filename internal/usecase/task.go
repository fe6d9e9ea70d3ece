package usecase

import (
	"fmt"
	"runtime/debug"
)

// PanicError is returned by join when the task body panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("background task panicked: %v", e.Value)
}

// task runs fn on its own goroutine; its result is consumed once by join.
type task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func spawn[T any](fn func() (T, error)) *task[T] {
	t := &task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		t.value, t.err = fn()
	}()
	return t
}

func (t *task[T]) join() (T, error) {
	<-t.done
	return t.value, t.err
}

func (t *task[T]) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
