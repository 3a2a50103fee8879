package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

// memoryWeeklyReports upserts on (tutor, week)
type memoryWeeklyReports struct {
	WeeklyReportStore
	reports   []*models.WeeklyReport
	listTutor *int64
}

func (m *memoryWeeklyReports) Upsert(_ context.Context, r *models.WeeklyReport) error {
	for _, existing := range m.reports {
		if existing.TutorID == r.TutorID && existing.WeekStart.Equal(r.WeekStart) {
			r.ID = existing.ID
			*existing = *r
			return nil
		}
	}
	r.ID = int64(len(m.reports) + 1)
	cp := *r
	m.reports = append(m.reports, &cp)
	return nil
}

func (m *memoryWeeklyReports) GetByID(_ context.Context, id int64) (*models.WeeklyReport, error) {
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperrors.ErrWeeklyReportNotFound
}

func (m *memoryWeeklyReports) List(_ context.Context, tutorID *int64, from, to *time.Time, _, _ int) ([]*models.WeeklyReport, int64, error) {
	m.listTutor = tutorID
	var out []*models.WeeklyReport
	for _, r := range m.reports {
		if tutorID != nil && r.TutorID != *tutorID {
			continue
		}
		if from != nil && r.WeekStart.Before(*from) {
			continue
		}
		if to != nil && r.WeekStart.After(*to) {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func newWeeklyReportTest() (WeeklyReportService, *memoryWeeklyReports) {
	f := newFixture()
	store := &memoryWeeklyReports{}
	return NewWeeklyReportService(store, f.logger), store
}

func TestUpsertReport_OnePerWeek(t *testing.T) {
	svc, store := newWeeklyReportTest()
	ctx := context.Background()

	first, err := svc.UpsertReport(ctx, tutorActor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-03", Summary: "Fractions"})
	require.NoError(t, err)

	second, err := svc.UpsertReport(ctx, tutorActor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-03", Summary: " Fractions and decimals "})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, store.reports, 1)
	assert.Equal(t, "Fractions and decimals", store.reports[0].Summary)
}

func TestUpsertReport_Rejections(t *testing.T) {
	svc, _ := newWeeklyReportTest()
	ctx := context.Background()

	_, err := svc.UpsertReport(ctx, tutorActor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-05", Summary: "Wednesday"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UpsertReport(ctx, assistantActor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-03", Summary: "x"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.UpsertReport(ctx, adminActor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-03", Summary: "x"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestListReports_TutorSeesOwn(t *testing.T) {
	svc, store := newWeeklyReportTest()
	ctx := context.Background()

	_, err := svc.UpsertReport(ctx, tutorActor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-03", Summary: "a"})
	require.NoError(t, err)
	_, err = svc.UpsertReport(ctx, otherTutor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-10", Summary: "b"})
	require.NoError(t, err)

	reports, info, err := svc.ListReports(ctx, tutorActor, dto.WeeklyReportFilter{TutorID: ptr(int64(4))})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, int64(2), *store.listTutor)
	assert.Equal(t, int64(1), info.TotalItems)

	from := "2025-03-10"
	reports, _, err = svc.ListReports(ctx, adminActor, dto.WeeklyReportFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, int64(4), reports[0].TutorID)

	bad := "next week"
	_, _, err = svc.ListReports(ctx, adminActor, dto.WeeklyReportFilter{To: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, _, err = svc.ListReports(ctx, studentActor, dto.WeeklyReportFilter{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestGetReport_HidesOtherTutors(t *testing.T) {
	svc, _ := newWeeklyReportTest()
	ctx := context.Background()

	report, err := svc.UpsertReport(ctx, otherTutor, &dto.UpsertWeeklyReportRequest{WeekStart: "2025-03-10", Summary: "b"})
	require.NoError(t, err)

	_, err = svc.GetReport(ctx, tutorActor, report.ID)
	assert.ErrorIs(t, err, apperrors.ErrWeeklyReportNotFound)

	got, err := svc.GetReport(ctx, adminActor, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Summary)
}
