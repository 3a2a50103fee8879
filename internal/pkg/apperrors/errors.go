package apperrors

import "errors"

// Common errors
var (
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	ErrPermissionDenied = errors.New("permission denied")

	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrNotATutor          = errors.New("assigned user is not a tutor")
	ErrStudentNotFound    = errors.New("student not found")
	ErrStudentNotInScope  = errors.New("student is not assigned to you")
)

// Period errors
var (
	ErrPeriodNotFound  = errors.New("period not found")
	ErrNoActivePeriod  = errors.New("no active period")
	ErrPeriodOverlap   = errors.New("period dates are invalid")
	ErrPeriodNameTaken = errors.New("period with this name already exists")
)

// Ledger errors
var (
	ErrPointReasonNotFound = errors.New("point reason not found")
	ErrPointReasonInactive = errors.New("point reason is inactive")
	ErrPointReasonExists   = errors.New("point reason with this name already exists")
	ErrInsufficientPoints  = errors.New("insufficient points balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// Attendance errors
var (
	ErrSessionNotFound        = errors.New("attendance session not found")
	ErrSessionClosed          = errors.New("attendance session is closed")
	ErrCheckInTokenInvalid    = errors.New("invalid check-in token")
	ErrCheckInTokenExpired    = errors.New("check-in token expired")
	ErrAlreadyCheckedIn       = errors.New("student already checked in to this session")
	ErrTooManyCheckInAttempts = errors.New("too many check-in attempts")
)

// Event errors
var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventFull             = errors.New("event is full")
	ErrEventClosed           = errors.New("event is not open for registration")
	ErrRegistrationClosed    = errors.New("registration deadline has passed")
	ErrAlreadyRegistered     = errors.New("student already registered for this event")
	ErrNotRegistered         = errors.New("student is not registered for this event")
	ErrAlreadyMarkedAttended = errors.New("participant already marked as attended")
	ErrCapacityBelowCount    = errors.New("capacity cannot be lower than current registrations")
)

// Syllabus errors
var (
	ErrSyllabusNotFound    = errors.New("syllabus not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrLessonPositionUsed  = errors.New("lesson position already used in this syllabus")
	ErrClassroomNotFound   = errors.New("classroom not found")
	ErrLessonNotInSyllabus = errors.New("lesson does not belong to the classroom syllabus")
)

// Wish and report errors
var (
	ErrWishNotFound         = errors.New("wish not found")
	ErrWishStatusTransition = errors.New("wish cannot move to the requested status")
	ErrWeeklyReportNotFound = errors.New("weekly report not found")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError creates a validation error carrying a user-facing message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}
