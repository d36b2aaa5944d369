package persistence

import "errors"

var (
	ErrExecutionNotFound  = errors.New("workflow execution not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrTimerNotFound      = errors.New("timer not found")
)

func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

func IsEnrollmentNotFound(err error) bool {
	return errors.Is(err, ErrEnrollmentNotFound)
}

func IsTimerNotFound(err error) bool {
	return errors.Is(err, ErrTimerNotFound)
}
