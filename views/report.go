package views

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/models"
	"golang.org/x/sync/errgroup"
)

type ReportType string

const (
	ReportSummary      ReportType = "summary"
	ReportDetailed     ReportType = "detailed"
	ReportProgress     ReportType = "progress"
	ReportPhotoGallery ReportType = "photo-gallery"
)

type DateRange string

const (
	RangeAll         DateRange = "all"
	RangeLastWeek    DateRange = "last-week"
	RangeLastMonth   DateRange = "last-month"
	RangeLastQuarter DateRange = "last-quarter"
	RangeCustom      DateRange = "custom"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

type ReportRequest struct {
	ProjectID int64      `json:"projectId"`
	Type      ReportType `json:"type"`
	Range     DateRange  `json:"range"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	Format    string     `json:"format,omitempty"`
}

// Validate fills defaults and rejects unknown options
func (r *ReportRequest) Validate() error {
	if r.ProjectID == 0 {
		return errs.NewNoProjectSelectedError()
	}
	if r.Type == "" {
		r.Type = ReportSummary
	}
	switch r.Type {
	case ReportSummary, ReportDetailed, ReportProgress, ReportPhotoGallery:
	default:
		return errs.NewInvalidFieldError("type", "expected summary, detailed, progress or photo-gallery")
	}
	if r.Range == "" {
		r.Range = RangeAll
	}
	switch r.Range {
	case RangeAll, RangeLastWeek, RangeLastMonth, RangeLastQuarter:
	case RangeCustom:
		if r.Start == nil || r.End == nil {
			return errs.NewMissingRequiredFieldError("start/end")
		}
		if r.End.Before(*r.Start) {
			return errs.NewInvalidFieldError("end", "must not be before start")
		}
	default:
		return errs.NewInvalidFieldError("range", "expected all, last-week, last-month, last-quarter or custom")
	}
	r.Format = strings.ToLower(r.Format)
	if r.Format == "" {
		r.Format = FormatJSON
	}
	if r.Format != FormatJSON && r.Format != FormatCSV {
		return errs.NewInvalidFieldError("format", "expected json or csv")
	}
	return nil
}

// window returns the inclusive time window of the range; nil bounds are open
func (r ReportRequest) window(now time.Time) (from, to *time.Time) {
	switch r.Range {
	case RangeLastWeek:
		t := now.AddDate(0, 0, -7)
		return &t, nil
	case RangeLastMonth:
		t := now.AddDate(0, -1, 0)
		return &t, nil
	case RangeLastQuarter:
		t := now.AddDate(0, -3, 0)
		return &t, nil
	case RangeCustom:
		return r.Start, endOfDay(r.End)
	}
	return nil, nil
}

// endOfDay widens a date-only bound at midnight to cover the whole day
func endOfDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	end := t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return &end
}

type ReportSummaryData struct {
	TotalPhotos      int            `json:"totalPhotos"`
	AnnotatedPhotos  int            `json:"annotatedPhotos"`
	TotalAnnotations int            `json:"totalAnnotations"`
	Contributors     map[string]int `json:"contributors"`
	Tags             map[string]int `json:"tags"`
	FirstPhotoAt     *time.Time     `json:"firstPhotoAt,omitempty"`
	LastPhotoAt      *time.Time     `json:"lastPhotoAt,omitempty"`
}

type DailyCount struct {
	Date        string `json:"date"`
	Photos      int    `json:"photos"`
	Annotations int    `json:"annotations"`
}

type GalleryItem struct {
	PhotoID      int64     `json:"photoId"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Description  string    `json:"description,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Report struct {
	Type        ReportType        `json:"type"`
	Range       DateRange         `json:"range"`
	From        *time.Time        `json:"from,omitempty"`
	To          *time.Time        `json:"to,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Project     models.Project    `json:"project"`
	Summary     ReportSummaryData `json:"summary"`
	Photos      []models.Photo    `json:"photos,omitempty"`
	Progress    []DailyCount      `json:"progress,omitempty"`
	Gallery     []GalleryItem     `json:"gallery,omitempty"`
}

// Report builds a report over the project's photos taken within the requested range
func (s *Service) Report(ctx context.Context, req ReportRequest) (Report, error) {
	if err := req.Validate(); err != nil {
		return Report{}, err
	}

	var project models.Project
	var photos []models.Photo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = s.projects.GetByID(gctx, req.ProjectID)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = s.photos.GetByProject(gctx, req.ProjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	now := s.now().UTC()
	from, to := req.window(now)
	report := Report{
		Type:        req.Type,
		Range:       req.Range,
		From:        from,
		To:          to,
		GeneratedAt: now,
		Project:     project,
		Summary: ReportSummaryData{
			Contributors: map[string]int{},
			Tags:         map[string]int{},
		},
	}

	var included []models.Photo
	for _, photo := range sortedByTime(photos) {
		if from != nil && photo.Timestamp.Before(*from) {
			continue
		}
		if to != nil && photo.Timestamp.After(*to) {
			continue
		}
		included = append(included, photo)
	}

	summary := &report.Summary
	for _, photo := range included {
		summary.TotalPhotos++
		if photo.IsAnnotated() {
			summary.AnnotatedPhotos++
		}
		summary.TotalAnnotations += len(photo.Annotations)
		summary.Contributors[photo.UploadedBy]++
		for _, tag := range photo.Tags {
			summary.Tags[tag]++
		}
	}
	if len(included) > 0 {
		first, last := included[0].Timestamp, included[len(included)-1].Timestamp
		summary.FirstPhotoAt, summary.LastPhotoAt = &first, &last
	}

	switch req.Type {
	case ReportDetailed:
		report.Photos = included
	case ReportProgress:
		report.Progress = dailyCounts(included)
	case ReportPhotoGallery:
		for _, photo := range included {
			report.Gallery = append(report.Gallery, GalleryItem{
				PhotoID:      photo.ID,
				URL:          photo.URL,
				ThumbnailURL: photo.ThumbnailURL,
				Description:  photo.Description,
				Timestamp:    photo.Timestamp,
			})
		}
	}
	return report, nil
}

func dailyCounts(photos []models.Photo) []DailyCount {
	var out []DailyCount
	for _, photo := range photos {
		day := photo.Timestamp.UTC().Format(time.DateOnly)
		if len(out) == 0 || out[len(out)-1].Date != day {
			out = append(out, DailyCount{Date: day})
		}
		out[len(out)-1].Photos++
		out[len(out)-1].Annotations += len(photo.Annotations)
	}
	return out
}

// WriteCSV renders the report as CSV. The first block is always the summary; the type
// specific rows follow after a blank line.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"project", r.Project.Name},
		{"client", r.Project.ClientName},
		{"report", string(r.Type)},
		{"range", string(r.Range)},
		{"generated_at", r.GeneratedAt.Format(time.RFC3339)},
		{"total_photos", strconv.Itoa(r.Summary.TotalPhotos)},
		{"annotated_photos", strconv.Itoa(r.Summary.AnnotatedPhotos)},
		{"total_annotations", strconv.Itoa(r.Summary.TotalAnnotations)},
	}
	for _, name := range slices.Sorted(maps.Keys(r.Summary.Contributors)) {
		rows = append(rows, []string{"contributor", name, strconv.Itoa(r.Summary.Contributors[name])})
	}
	for _, tag := range slices.Sorted(maps.Keys(r.Summary.Tags)) {
		rows = append(rows, []string{"tag", tag, strconv.Itoa(r.Summary.Tags[tag])})
	}

	switch r.Type {
	case ReportDetailed:
		rows = append(rows, nil, []string{"photo_id", "timestamp", "uploaded_by", "description", "annotations", "url"})
		for _, p := range r.Photos {
			notes := make([]string, 0, len(p.Annotations))
			for _, a := range p.Annotations {
				notes = append(notes, fmt.Sprintf("%s (%.1f%%, %.1f%%)", a.Content, a.Coordinates.X, a.Coordinates.Y))
			}
			rows = append(rows, []string{
				strconv.FormatInt(p.ID, 10),
				p.Timestamp.Format(time.RFC3339),
				p.UploadedBy,
				p.Description,
				strings.Join(notes, "; "),
				p.URL,
			})
		}
	case ReportProgress:
		rows = append(rows, nil, []string{"date", "photos", "annotations"})
		for _, d := range r.Progress {
			rows = append(rows, []string{d.Date, strconv.Itoa(d.Photos), strconv.Itoa(d.Annotations)})
		}
	case ReportPhotoGallery:
		rows = append(rows, nil, []string{"photo_id", "timestamp", "description", "url", "thumbnail_url"})
		for _, g := range r.Gallery {
			rows = append(rows, []string{
				strconv.FormatInt(g.PhotoID, 10),
				g.Timestamp.Format(time.RFC3339),
				g.Description,
				g.URL,
				g.ThumbnailURL,
			})
		}
	}

	// nil rows come out as blank separator lines
	return cw.WriteAll(rows)
}
