// Package services implements the entity services used by every view: projects, photos and
// team members over a database.Database, with simulated latency and change events.
package services

import (
	"context"
	"time"

	"github.com/rpupo63/fieldlens-backend/database"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Latency holds the artificial delay applied before each operation completes
type Latency struct {
	GetAll        time.Duration
	GetByID       time.Duration
	CreateProject time.Duration
	CreatePhoto   time.Duration
	CreateMember  time.Duration
	Update        time.Duration
	Delete        time.Duration
}

// DefaultLatency returns the standard delays multiplied by scale. A scale of 0 disables them.
func DefaultLatency(scale float64) Latency {
	if scale < 0 {
		scale = 0
	}
	d := func(ms int) time.Duration {
		return time.Duration(float64(ms) * scale * float64(time.Millisecond))
	}
	return Latency{
		GetAll:        d(300),
		GetByID:       d(200),
		CreateProject: d(400),
		CreatePhoto:   d(500),
		CreateMember:  d(400),
		Update:        d(350),
		Delete:        d(300),
	}
}

// Recorder observes completed service calls
type Recorder interface {
	ObserveCall(entity, operation string, duration time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCall(string, string, time.Duration, error) {}

type options struct {
	latency   Latency
	publisher events.Publisher
	recorder  Recorder
	mailer    Mailer
}

type Option func(*options)

func WithLatency(latency Latency) Option {
	return func(o *options) {
		o.latency = latency
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// WithMailer sends invitation e-mails when team members are created
func WithMailer(mailer Mailer) Option {
	return func(o *options) {
		o.mailer = mailer
	}
}

// Services groups the three entity services around one database
type Services struct {
	Projects *ProjectService
	Photos   *PhotoService
	Team     *TeamService
}

// New builds the entity services. Without options there is no latency and events are dropped.
func New(db database.Database, opts ...Option) Services {
	o := options{
		publisher: events.Nop{},
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	projects := &ProjectService{
		base: newBase("project", o),
		repo: db.ProjectRepo(),
	}
	photos := &PhotoService{
		base:     newBase("photo", o),
		repo:     db.PhotoRepo(),
		projects: db.ProjectRepo(),
	}
	team := &TeamService{
		base:   newBase("team member", o),
		repo:   db.TeamMemberRepo(),
		mailer: o.mailer,
	}
	return Services{Projects: projects, Photos: photos, Team: team}
}

type base struct {
	entity    string
	latency   Latency
	publisher events.Publisher
	recorder  Recorder
	logger    zerolog.Logger
}

func newBase(entity string, o options) base {
	return base{
		entity:    entity,
		latency:   o.latency,
		publisher: o.publisher,
		recorder:  o.recorder,
		logger:    log.With().Str("service", entity).Logger(),
	}
}

// wait blocks for d or until ctx is done. A done context always yields a cancellation error,
// even when d is zero.
func (b base) wait(ctx context.Context, operation string, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return errs.NewCancelledError(operation+" "+b.entity, err)
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errs.NewCancelledError(operation+" "+b.entity, ctx.Err())
	case <-timer.C:
		return nil
	}
}

// observe records the call and returns err unchanged
func (b base) observe(operation string, start time.Time, err error) error {
	b.recorder.ObserveCall(b.entity, operation, time.Since(start), err)
	if err != nil && !errs.IsNotFound(err) && !errs.IsValidationFailure(err) && !errs.IsCancelled(err) {
		b.logger.Error().Err(err).Str("operation", operation).Msg("Service call failed")
	}
	return err
}

func (b base) publish(eventType string, id, projectID int64, data any) {
	b.publisher.Publish(events.Event{
		Type:      eventType,
		ID:        id,
		ProjectID: projectID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

type userKeyType string

const userKey userKeyType = "userName"

// WithUser stores the acting user's display name in ctx
func WithUser(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userKey, name)
}

// UserFromContext returns the acting user's name, or fallback when none was set
func UserFromContext(ctx context.Context, fallback string) string {
	if name, ok := ctx.Value(userKey).(string); ok && name != "" {
		return name
	}
	return fallback
}

// DefaultUserName is recorded as uploader or author when the request carries no identity
const DefaultUserName = "Field User"
