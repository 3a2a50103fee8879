package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/logger"
)

type errorMapping struct {
	err     error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings is checked in order; the first sentinel matched with errors.Is wins
var errorMappings = []errorMapping{
	// 401
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},

	// 403
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled, "Account disabled"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrStudentNotInScope, http.StatusForbidden, dto.ErrorCodeOutOfScope, "Student is not in your group"},

	// 404
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Student not found"},
	{apperrors.ErrPeriodNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Period not found"},
	{apperrors.ErrPointReasonNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Point reason not found"},
	{apperrors.ErrSessionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Attendance session not found"},
	{apperrors.ErrEventNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Event not found"},
	{apperrors.ErrSyllabusNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Syllabus not found"},
	{apperrors.ErrLessonNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Lesson not found"},
	{apperrors.ErrClassroomNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Classroom not found"},
	{apperrors.ErrWishNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Wish not found"},
	{apperrors.ErrWeeklyReportNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Weekly report not found"},
	{apperrors.ErrNotRegistered, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Student is not registered for this event"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	// 409
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrPeriodNameTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Period name already exists"},
	{apperrors.ErrPeriodOverlap, http.StatusConflict, dto.ErrorCodeConflict, "Period overlaps an existing period"},
	{apperrors.ErrPointReasonExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Point reason already exists"},
	{apperrors.ErrNoActivePeriod, http.StatusConflict, dto.ErrorCodeNoActivePeriod, "No active period"},
	{apperrors.ErrInsufficientPoints, http.StatusConflict, dto.ErrorCodeInsufficientPoints, "Insufficient points"},
	{apperrors.ErrAlreadyCheckedIn, http.StatusConflict, dto.ErrorCodeAlreadyCheckedIn, "Already checked in"},
	{apperrors.ErrSessionClosed, http.StatusConflict, dto.ErrorCodeSessionClosed, "Attendance session is closed"},
	{apperrors.ErrEventFull, http.StatusConflict, dto.ErrorCodeEventFull, "Event is full"},
	{apperrors.ErrEventClosed, http.StatusConflict, dto.ErrorCodeEventClosed, "Event is not open"},
	{apperrors.ErrRegistrationClosed, http.StatusConflict, dto.ErrorCodeRegistrationClosed, "Registration deadline has passed"},
	{apperrors.ErrAlreadyRegistered, http.StatusConflict, dto.ErrorCodeAlreadyRegistered, "Already registered"},
	{apperrors.ErrAlreadyMarkedAttended, http.StatusConflict, dto.ErrorCodeConflict, "Attendance already marked"},
	{apperrors.ErrCapacityBelowCount, http.StatusConflict, dto.ErrorCodeConflict, "Capacity is below the registered count"},
	{apperrors.ErrLessonPositionUsed, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Lesson position already used"},
	{apperrors.ErrWishStatusTransition, http.StatusConflict, dto.ErrorCodeInvalidTransition, "Wish cannot move to that status"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	// 400
	{apperrors.ErrCheckInTokenInvalid, http.StatusBadRequest, dto.ErrorCodeCheckInTokenInvalid, "Invalid check-in token"},
	{apperrors.ErrCheckInTokenExpired, http.StatusBadRequest, dto.ErrorCodeCheckInTokenExpired, "Check-in token expired"},
	{apperrors.ErrInvalidAmount, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Invalid amount"},
	{apperrors.ErrPointReasonInactive, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Point reason is inactive"},
	{apperrors.ErrInvalidPassword, http.StatusBadRequest, dto.ErrorCodeInvalidPassword, "Current password is incorrect"},
	{apperrors.ErrNotATutor, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Target user is not a tutor"},
	{apperrors.ErrLessonNotInSyllabus, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Lesson does not belong to the classroom's syllabus"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Bad request"},

	// 429
	{apperrors.ErrTooManyCheckInAttempts, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests, "Too many failed check-in attempts, try again later"},
}

// HandleAPIError writes the error response matching err. Conflicts and throttling carry WARNING severity.
// Unknown errors are logged and become 500.
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			detail := dto.NewErrorDetail(m.code, m.message)
			if m.status == http.StatusConflict || m.status == http.StatusTooManyRequests {
				detail = detail.WithSeverity(dto.ErrorSeverityWarning)
			}
			if err.Error() != m.err.Error() {
				detail = detail.WithDetails(err.Error())
			}
			c.JSON(m.status, dto.NewErrorResponse(detail))
			return
		}
	}

	logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
	))
}
