package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
	"github.com/yigit/mentorhub/internal/pkg/websocket"
)

const checkInTokenBytes = 32

// QRRenderer turns a check-in token into a PNG. *qrcode.Generator implements it.
type QRRenderer interface {
	PNG(token string) ([]byte, error)
}

// AttendanceService manages attendance sessions and QR check-ins
type AttendanceService interface {
	CreateSession(ctx context.Context, actor authz.Actor, req *dto.CreateSessionRequest) (*models.AttendanceSession, error)
	ListSessions(ctx context.Context, actor authz.Actor, openOnly bool, page, size int) ([]*models.AttendanceSession, *dto.PaginationInfo, error)
	GetSession(ctx context.Context, actor authz.Actor, id int64) (*models.AttendanceSession, error)
	RegenerateToken(ctx context.Context, actor authz.Actor, id int64) (*models.AttendanceSession, error)
	CloseSession(ctx context.Context, actor authz.Actor, id int64) (*models.AttendanceSession, error)
	SessionQR(ctx context.Context, actor authz.Actor, id int64) ([]byte, error)
	ListRecords(ctx context.Context, actor authz.Actor, sessionID int64) ([]*models.StudentAttendance, error)
	CheckIn(ctx context.Context, actor authz.Actor, token string) (*dto.CheckInResult, error)
	MarkManual(ctx context.Context, actor authz.Actor, sessionID, studentID int64) (*dto.CheckInResult, error)
	// AuthorizeLiveFeed checks that actor may watch the session's live check-ins
	AuthorizeLiveFeed(ctx context.Context, actor authz.Actor, sessionID int64) error
}

type attendanceServiceImpl struct {
	attendanceRepo AttendanceStore
	periodRepo     PeriodStore
	userRepo       UserStore
	authz          *authz.AuthorizationService
	leaderboard    LeaderboardService
	throttle       CheckInThrottle
	publisher      Publisher
	qr             QRRenderer
	loc            *time.Location
	logger         zerolog.Logger
	now            func() time.Time
}

// NewAttendanceService creates a new AttendanceService. throttle and publisher may be nil.
func NewAttendanceService(
	attendanceRepo AttendanceStore,
	periodRepo PeriodStore,
	userRepo UserStore,
	authzService *authz.AuthorizationService,
	leaderboard LeaderboardService,
	throttle CheckInThrottle,
	publisher Publisher,
	qr QRRenderer,
	loc *time.Location,
	logger zerolog.Logger,
) AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		periodRepo:     periodRepo,
		userRepo:       userRepo,
		authz:          authzService,
		leaderboard:    leaderboard,
		throttle:       throttle,
		publisher:      publisher,
		qr:             qr,
		loc:            loc,
		logger:         logger,
		now:            time.Now,
	}
}

// generateCheckInToken returns 32 random bytes, hex encoded
func generateCheckInToken() (string, error) {
	b := make([]byte, checkInTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate check-in token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CreateSession opens a session whose token expires at the end of the current week
func (s *attendanceServiceImpl) CreateSession(ctx context.Context, actor authz.Actor, req *dto.CreateSessionRequest) (*models.AttendanceSession, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}

	tutorID := actor.UserID
	if actor.IsAdmin() {
		if req.TutorID == nil {
			return nil, fmt.Errorf("%w: tutorId is required", apperrors.ErrValidationFailed)
		}
		tutor, err := s.userRepo.GetUserByID(ctx, *req.TutorID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return nil, apperrors.ErrNotATutor
			}
			return nil, err
		}
		if tutor.RoleType != models.RoleTutor {
			return nil, apperrors.ErrNotATutor
		}
		tutorID = tutor.ID
	}

	date, err := helpers.ParseDate(req.SessionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sessionDate", apperrors.ErrValidationFailed)
	}
	token, err := generateCheckInToken()
	if err != nil {
		return nil, err
	}

	session := &models.AttendanceSession{
		TutorID:        tutorID,
		Title:          req.Title,
		SessionDate:    date,
		PointsReward:   req.PointsReward,
		CheckInToken:   token,
		TokenExpiresAt: helpers.EndOfWeek(s.now(), s.loc),
		CreatedBy:      actor.UserID,
	}
	if err := s.attendanceRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("sessionID", session.ID).Int64("tutorID", tutorID).Time("expiresAt", session.TokenExpiresAt).Msg("Attendance session created")
	return session, nil
}

func (s *attendanceServiceImpl) ListSessions(ctx context.Context, actor authz.Actor, openOnly bool, page, size int) ([]*models.AttendanceSession, *dto.PaginationInfo, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor, models.RoleAssistant); err != nil {
		return nil, nil, err
	}
	filter := dto.SessionFilter{OpenOnly: openOnly, Page: page, Size: size}
	if !actor.IsAdmin() {
		filter.TutorID = actor.ScopeTutorID()
		if filter.TutorID == nil {
			return nil, nil, apperrors.ErrPermissionDenied
		}
	}

	sessions, total, err := s.attendanceRepo.ListSessions(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	info := helpers.NewPaginationInfo(total, page, size)
	return sessions, &info, nil
}

// loadSession returns the session if actor is staff of its tutor group
func (s *attendanceServiceImpl) loadSession(ctx context.Context, actor authz.Actor, id int64) (*models.AttendanceSession, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor, models.RoleAssistant); err != nil {
		return nil, err
	}
	session, err := s.attendanceRepo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureTutorScope(actor, session.TutorID); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *attendanceServiceImpl) GetSession(ctx context.Context, actor authz.Actor, id int64) (*models.AttendanceSession, error) {
	return s.loadSession(ctx, actor, id)
}

// RegenerateToken replaces the check-in token; the old one stops working immediately
func (s *attendanceServiceImpl) RegenerateToken(ctx context.Context, actor authz.Actor, id int64) (*models.AttendanceSession, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.IsClosed {
		return nil, apperrors.ErrSessionClosed
	}

	token, err := generateCheckInToken()
	if err != nil {
		return nil, err
	}
	expiresAt := helpers.EndOfWeek(s.now(), s.loc)
	if err := s.attendanceRepo.RotateToken(ctx, id, token, expiresAt); err != nil {
		return nil, err
	}
	session.CheckInToken = token
	session.TokenExpiresAt = expiresAt

	s.publish(&websocket.Message{Type: websocket.MessageTypeTokenRotated, SessionID: id})
	return session, nil
}

func (s *attendanceServiceImpl) CloseSession(ctx context.Context, actor authz.Actor, id int64) (*models.AttendanceSession, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if err := s.attendanceRepo.CloseSession(ctx, id, at); err != nil {
		return nil, err
	}
	session.IsClosed = true
	session.ClosedAt = &at

	s.publish(&websocket.Message{Type: websocket.MessageTypeSessionClosed, SessionID: id, Timestamp: at})
	s.logger.Info().Int64("sessionID", id).Int("attendees", session.AttendeeCount).Msg("Attendance session closed")
	return session, nil
}

// SessionQR renders the current check-in link as a PNG
func (s *attendanceServiceImpl) SessionQR(ctx context.Context, actor authz.Actor, id int64) ([]byte, error) {
	session, err := s.loadSession(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.IsClosed {
		return nil, apperrors.ErrSessionClosed
	}
	return s.qr.PNG(session.CheckInToken)
}

func (s *attendanceServiceImpl) ListRecords(ctx context.Context, actor authz.Actor, sessionID int64) ([]*models.StudentAttendance, error) {
	if _, err := s.loadSession(ctx, actor, sessionID); err != nil {
		return nil, err
	}
	return s.attendanceRepo.ListRecords(ctx, sessionID)
}

// CheckIn redeems a QR token for the calling student
func (s *attendanceServiceImpl) CheckIn(ctx context.Context, actor authz.Actor, token string) (*dto.CheckInResult, error) {
	if err := authz.RequireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}

	if s.throttle != nil {
		blocked, err := s.throttle.Blocked(ctx, actor.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("userID", actor.UserID).Msg("Check-in throttle unavailable")
		} else if blocked {
			return nil, apperrors.ErrTooManyCheckInAttempts
		}
	}

	session, err := s.attendanceRepo.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			s.recordFailure(ctx, actor.UserID)
			return nil, apperrors.ErrCheckInTokenInvalid
		}
		return nil, err
	}
	if session.IsClosed {
		return nil, apperrors.ErrSessionClosed
	}
	now := s.now()
	if !now.Before(session.TokenExpiresAt) {
		s.recordFailure(ctx, actor.UserID)
		return nil, apperrors.ErrCheckInTokenExpired
	}

	student, err := s.userRepo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if student.TutorID == nil || *student.TutorID != session.TutorID {
		s.logger.Warn().Int64("studentID", student.ID).Int64("sessionID", session.ID).Msg("Check-in to another tutor's session")
		return nil, apperrors.ErrStudentNotInScope
	}

	return s.record(ctx, session, student, models.AttendanceQR, nil, now)
}

// MarkManual records attendance for a student without a token
func (s *attendanceServiceImpl) MarkManual(ctx context.Context, actor authz.Actor, sessionID, studentID int64) (*dto.CheckInResult, error) {
	session, err := s.loadSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsClosed {
		return nil, apperrors.ErrSessionClosed
	}
	student, err := s.authz.EnsureStudentInScope(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}
	if student.TutorID == nil || *student.TutorID != session.TutorID {
		return nil, apperrors.ErrStudentNotInScope
	}

	markedBy := actor.UserID
	return s.record(ctx, session, student, models.AttendanceManual, &markedBy, s.now())
}

func (s *attendanceServiceImpl) record(ctx context.Context, session *models.AttendanceSession, student *models.User, method models.AttendanceMethod, markedBy *int64, at time.Time) (*dto.CheckInResult, error) {
	period, err := s.periodRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	attendance := &models.StudentAttendance{
		SessionID:        session.ID,
		StudentID:        student.ID,
		Method:           method,
		MarkedBy:         markedBy,
		CheckedInAt:      at,
		StudentFirstName: student.FirstName,
		StudentLastName:  student.LastName,
	}

	var reward *models.PointsTransaction
	if session.PointsReward > 0 {
		ref := session.ID
		reward = &models.PointsTransaction{
			StudentID: student.ID,
			PeriodID:  period.ID,
			AwardedBy: markedBy,
			Amount:    session.PointsReward,
			Source:    models.SourceAttendance,
			SourceRef: &ref,
			Note:      session.Title,
		}
	}

	balance, err := s.attendanceRepo.RecordAttendance(ctx, attendance, reward)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		balance = student.PointsBalance
	} else {
		s.leaderboard.Record(ctx, period.ID, student.ID, reward.Amount)
	}

	session.AttendeeCount++
	s.publish(&websocket.Message{
		Type:      websocket.MessageTypeCheckIn,
		SessionID: session.ID,
		Timestamp: at,
		Payload: dto.CheckInEvent{
			SessionID:   session.ID,
			StudentID:   student.ID,
			FirstName:   student.FirstName,
			LastName:    student.LastName,
			Method:      method,
			CheckedInAt: at,
			Total:       session.AttendeeCount,
		},
	})

	s.logger.Info().Int64("sessionID", session.ID).Int64("studentID", student.ID).Str("method", string(method)).Msg("Attendance recorded")

	result := &dto.CheckInResult{Attendance: attendance, SessionTitle: session.Title, NewBalance: balance}
	if reward != nil {
		result.PointsAwarded = reward.Amount
	}
	return result, nil
}

func (s *attendanceServiceImpl) AuthorizeLiveFeed(ctx context.Context, actor authz.Actor, sessionID int64) error {
	_, err := s.loadSession(ctx, actor, sessionID)
	return err
}

func (s *attendanceServiceImpl) recordFailure(ctx context.Context, userID int64) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to record check-in failure")
	}
}

func (s *attendanceServiceImpl) publish(msg *websocket.Message) {
	if s.publisher != nil {
		s.publisher.Publish(msg)
	}
}
