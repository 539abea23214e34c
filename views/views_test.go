package views

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/fieldlens-backend/annotation"
	"github.com/rpupo63/fieldlens-backend/database"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/fixtures"
	"github.com/rpupo63/fieldlens-backend/models"
	"github.com/rpupo63/fieldlens-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)

func newTestViews(t *testing.T) (*Service, services.Services, *annotation.Overlay) {
	t.Helper()
	seed, err := fixtures.Load()
	require.NoError(t, err)
	db, err := database.NewMemory(seed)
	require.NoError(t, err)

	svc := services.New(db)
	overlay := annotation.NewOverlay(svc.Photos, time.Minute)
	v := New(svc.Projects, svc.Photos, svc.Team, overlay)
	v.now = func() time.Time { return fixedNow }
	return v, svc, overlay
}

func TestDashboard(t *testing.T) {
	v, _, _ := newTestViews(t)

	d, err := v.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, d.ActiveProjects)
	assert.Equal(t, 1, d.CompletedProjects)
	assert.Equal(t, 6, d.TotalPhotos)
	assert.Equal(t, 5, d.TotalTeamMembers)
	assert.Len(t, d.RecentPhotos, 6)
	assert.Len(t, d.Projects, 4)
}

func TestDashboard_Cancelled(t *testing.T) {
	v, _, _ := newTestViews(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Dashboard(ctx)
	assert.True(t, errs.IsCancelled(err))
}

func TestProjectDetail_Filters(t *testing.T) {
	v, _, _ := newTestViews(t)
	ctx := context.Background()

	tests := []struct {
		filter PhotoFilter
		ids    []int64
	}{
		{FilterAll, []int64{1, 2, 3}},
		{FilterRecent, []int64{2, 3}},
		{FilterAnnotated, []int64{1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			detail, err := v.ProjectDetail(ctx, 1, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, 3, detail.TotalCount)
			assert.Equal(t, 1, detail.Annotated)

			var ids []int64
			for _, p := range detail.Photos {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}

	_, err := v.ProjectDetail(ctx, 99, FilterAll)
	assert.True(t, errs.IsNotFound(err))
}

func TestParsePhotoFilter(t *testing.T) {
	f, err := ParsePhotoFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParsePhotoFilter("annotated")
	require.NoError(t, err)
	assert.Equal(t, FilterAnnotated, f)

	_, err = ParsePhotoFilter("starred")
	assert.True(t, errs.IsValidationFailure(err))
}

func TestPhotoView(t *testing.T) {
	v, svc, overlay := newTestViews(t)
	ctx := context.Background()

	_, _, err := overlay.Add(ctx, 2, annotation.Point{X: 50, Y: 50}, annotation.Bounds{Width: 100, Height: 100}, "Check joist", "Sarah Chen")
	require.NoError(t, err)

	view, err := v.Photo(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, view.Project)
	assert.Equal(t, int64(1), view.Project.ID)
	assert.Len(t, view.Draft.Annotations, 1)
	assert.Empty(t, view.Photo.Annotations)

	require.NoError(t, svc.Projects.Delete(ctx, 3))
	orphan, err := v.Photo(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, orphan.Project)
}

func TestTeamView(t *testing.T) {
	v, _, _ := newTestViews(t)

	team, err := v.Team(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, team.TotalMembers)
	assert.Equal(t, 1, team.ActiveProjects)
	assert.Equal(t, []RoleCount{
		{Role: models.RoleAdmin, Count: 1},
		{Role: models.RoleManager, Count: 1},
		{Role: models.RoleMember, Count: 2},
		{Role: models.RoleViewer, Count: 1},
	}, team.Roles)
}

func TestReportRequest_Validate(t *testing.T) {
	start := fixedNow.AddDate(0, 0, -3)
	end := fixedNow

	tests := []struct {
		name    string
		req     ReportRequest
		wantErr bool
	}{
		{"no project", ReportRequest{}, true},
		{"defaults", ReportRequest{ProjectID: 1}, false},
		{"unknown type", ReportRequest{ProjectID: 1, Type: "pie"}, true},
		{"unknown range", ReportRequest{ProjectID: 1, Range: "yesterday"}, true},
		{"custom without bounds", ReportRequest{ProjectID: 1, Range: RangeCustom}, true},
		{"custom reversed", ReportRequest{ProjectID: 1, Range: RangeCustom, Start: &end, End: &start}, true},
		{"custom", ReportRequest{ProjectID: 1, Range: RangeCustom, Start: &start, End: &end}, false},
		{"bad format", ReportRequest{ProjectID: 1, Format: "pdf"}, true},
		{"csv upper", ReportRequest{ProjectID: 1, Format: "CSV"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.True(t, errs.IsValidationFailure(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReport_Summary(t *testing.T) {
	v, _, _ := newTestViews(t)

	report, err := v.Report(context.Background(), ReportRequest{ProjectID: 1})
	require.NoError(t, err)

	assert.Equal(t, ReportSummary, report.Type)
	assert.Equal(t, RangeAll, report.Range)
	assert.Equal(t, 3, report.Summary.TotalPhotos)
	assert.Equal(t, 1, report.Summary.AnnotatedPhotos)
	assert.Equal(t, map[string]int{"John Doe": 2, "Sarah Chen": 1}, report.Summary.Contributors)
	assert.Equal(t, map[string]int{"interior": 1, "damage": 1, "framing": 1}, report.Summary.Tags)
	require.NotNil(t, report.Summary.FirstPhotoAt)
	assert.True(t, report.Summary.FirstPhotoAt.Before(*report.Summary.LastPhotoAt))
	assert.Empty(t, report.Photos)
}

func TestReport_LastWeekProgress(t *testing.T) {
	v, _, _ := newTestViews(t)

	report, err := v.Report(context.Background(), ReportRequest{ProjectID: 1, Type: ReportProgress, Range: RangeLastWeek})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.TotalPhotos)
	assert.Equal(t, []DailyCount{
		{Date: "2024-03-12", Photos: 1},
		{Date: "2024-03-15", Photos: 1},
	}, report.Progress)
}

func TestReport_MissingProject(t *testing.T) {
	v, _, _ := newTestViews(t)

	_, err := v.Report(context.Background(), ReportRequest{ProjectID: 42})
	assert.True(t, errs.IsNotFound(err))

	_, err = v.Report(context.Background(), ReportRequest{})
	assert.True(t, errs.IsNoProjectSelectedError(err))
}

func TestReport_WriteCSV(t *testing.T) {
	v, _, _ := newTestViews(t)

	report, err := v.Report(context.Background(), ReportRequest{ProjectID: 2, Type: ReportPhotoGallery})
	require.NoError(t, err)
	require.Len(t, report.Gallery, 2)

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "project,Maple Street Roof Replacement\n"))
	assert.Contains(t, out, "total_photos,2\n")
	assert.Contains(t, out, "tag,roof,2\n")
	assert.Contains(t, out, "\n\nphoto_id,timestamp,description,url,thumbnail_url\n")

	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"photo_id", "timestamp", "description", "url", "thumbnail_url"}, records[len(records)-3])
}

func TestReport_CustomRangeDateOnlyEnd(t *testing.T) {
	v, _, _ := newTestViews(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		total int
	}{
		{"midnight end covers the day", date(2024, 3, 10), date(2024, 3, 12), 2},
		{"single day", date(2024, 3, 15), date(2024, 3, 15), 1},
		{"exact instant end", date(2024, 3, 10), time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.Report(ctx, ReportRequest{ProjectID: 1, Range: RangeCustom, Start: &tt.start, End: &tt.end})
			require.NoError(t, err)
			assert.Equal(t, tt.total, report.Summary.TotalPhotos)
		})
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
