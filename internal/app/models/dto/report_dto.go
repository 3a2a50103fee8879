package dto

import (
	"time"

	"github.com/yigit/mentorhub/internal/app/models"
)

// StudentPerformance aggregates one student's activity in a period
type StudentPerformance struct {
	StudentID        int64   `json:"studentId" example:"5"`
	FirstName        string  `json:"firstName" example:"Ada"`
	LastName         string  `json:"lastName" example:"Lovelace"`
	TutorID          *int64  `json:"tutorId,omitempty" example:"2"`
	PointsEarned     int64   `json:"pointsEarned" example:"140"`
	ExperienceEarned int64   `json:"experienceEarned" example:"300"`
	SessionsAttended int64   `json:"sessionsAttended" example:"9"`
	SessionsHeld     int64   `json:"sessionsHeld" example:"10"`
	AttendanceRate   float64 `json:"attendanceRate" example:"90"`
	EventsAttended   int64   `json:"eventsAttended" example:"2"`
}

// PerformanceReport is the per-student report for a period
type PerformanceReport struct {
	Period   *models.Period       `json:"period"`
	Students []StudentPerformance `json:"students"`
}

// AdminDashboard is the dashboard shown to admins
type AdminDashboard struct {
	UserCounts    map[models.RoleType]int64 `json:"userCounts"`
	ActivePeriod  *models.Period            `json:"activePeriod,omitempty"`
	OpenEvents    int64                     `json:"openEvents" example:"3"`
	PendingWishes int64                     `json:"pendingWishes" example:"4"`
}

// StaffDashboard is the dashboard shown to tutors and assistants
type StaffDashboard struct {
	TutorID          int64      `json:"tutorId" example:"2"`
	StudentCount     int64      `json:"studentCount" example:"14"`
	OpenSessions     int64      `json:"openSessions" example:"1"`
	PendingWishes    int64      `json:"pendingWishes" example:"2"`
	LatestReportWeek *time.Time `json:"latestReportWeek,omitempty"`
}

// StudentDashboard is the dashboard shown to students
type StudentDashboard struct {
	Balance        int64                `json:"balance" example:"140"`
	Level          models.LevelProgress `json:"level"`
	Rank           *int                 `json:"rank,omitempty" example:"4"`
	UpcomingEvents []*models.Event      `json:"upcomingEvents"`
}

// DashboardResponse holds exactly one of the role-specific dashboards
type DashboardResponse struct {
	Role    models.RoleType   `json:"role" example:"TUTOR"`
	Admin   *AdminDashboard   `json:"admin,omitempty"`
	Staff   *StaffDashboard   `json:"staff,omitempty"`
	Student *StudentDashboard `json:"student,omitempty"`
}
