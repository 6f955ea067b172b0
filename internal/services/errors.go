package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/flora-backend/internal/platform/apierr"
)

var (
	ErrInvalidEnrollCode = apierr.BadRequest("invalid_enroll_code", errors.New("Invalid code"))
	ErrAlreadyEnrolled   = apierr.Conflict("already_enrolled", errors.New("already enrolled in this course"))
	ErrNotEnrolled       = apierr.NotFound("not_enrolled", errors.New("not enrolled in this course"))
	ErrNoDraft           = apierr.NotFound("no_draft", errors.New("no course draft for this session"))
	ErrCourseNotFound    = apierr.NotFound("course_not_found", errors.New("course not found"))
	ErrInvalidCourse     = apierr.BadRequest("invalid_course", errors.New("course title is required"))
)

// PersistenceFailure wraps a store error. A designer draft is never discarded
// because of one.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

// HTTPStatusCode lets apierr-style mapping treat store failures as upstream errors.
func (e *PersistenceFailure) HTTPStatusCode() int { return http.StatusBadGateway }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	return &PersistenceFailure{Op: op, Err: err}
}
