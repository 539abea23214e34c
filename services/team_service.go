package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/rpupo63/fieldlens-backend/database"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rpupo63/fieldlens-backend/models"
)

const inviteTimeout = 15 * time.Second

type TeamService struct {
	base
	repo   database.TeamMemberRepo
	mailer Mailer
}

func (s *TeamService) GetAll(ctx context.Context) (members []models.TeamMember, err error) {
	defer func(start time.Time) { err = s.observe("getAll", start, err) }(time.Now())

	if err = s.wait(ctx, "list", s.latency.GetAll); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx)
}

func (s *TeamService) GetByID(ctx context.Context, id int64) (member models.TeamMember, err error) {
	defer func(start time.Time) { err = s.observe("getById", start, err) }(time.Now())

	if err = s.wait(ctx, "find", s.latency.GetByID); err != nil {
		return models.TeamMember{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create invites a new team member. Role defaults to member and the avatar is always cleared.
// When a mailer is configured an invitation is sent; a failed send does not fail the invite.
func (s *TeamService) Create(ctx context.Context, data models.TeamMember) (member models.TeamMember, err error) {
	defer func(start time.Time) { err = s.observe("create", start, err) }(time.Now())

	data.Name = strings.TrimSpace(data.Name)
	data.Email = strings.TrimSpace(data.Email)
	if data.Name == "" {
		return models.TeamMember{}, errs.NewMissingRequiredFieldError("name")
	}
	if data.Email == "" {
		return models.TeamMember{}, errs.NewMissingRequiredFieldError("email")
	}
	if err = validateEmail(data.Email); err != nil {
		return models.TeamMember{}, err
	}
	if data.Role == "" {
		data.Role = models.RoleMember
	}
	if !data.Role.Valid() {
		return models.TeamMember{}, errs.NewInvalidFieldError("role", "unknown role "+string(data.Role))
	}
	if data.Projects == nil {
		data.Projects = []int64{}
	}
	data.Avatar = nil

	if err = s.wait(ctx, "create", s.latency.CreateMember); err != nil {
		return models.TeamMember{}, err
	}

	member, err = s.repo.Add(ctx, data)
	if err != nil {
		return models.TeamMember{}, err
	}

	if s.mailer != nil {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inviteTimeout)
		if err := s.mailer.SendInvite(sendCtx, member, UserFromContext(ctx, DefaultUserName)); err != nil {
			s.logger.Warn().Err(err).Int64("memberId", member.ID).Msg("Failed to send invitation e-mail")
		}
		cancel()
	}

	s.publish(events.MemberInvited, member.ID, 0, member)
	return member, nil
}

func (s *TeamService) Update(ctx context.Context, id int64, patch models.TeamMemberPatch) (member models.TeamMember, err error) {
	defer func(start time.Time) { err = s.observe("update", start, err) }(time.Now())

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.TeamMember{}, errs.NewInvalidFieldError("name", "must not be empty")
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		patch.Email = &email
		if err = validateEmail(email); err != nil {
			return models.TeamMember{}, err
		}
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return models.TeamMember{}, errs.NewInvalidFieldError("role", "unknown role "+string(*patch.Role))
	}

	if err = s.wait(ctx, "update", s.latency.Update); err != nil {
		return models.TeamMember{}, err
	}

	member, err = s.repo.Update(ctx, id, patch)
	if err != nil {
		return models.TeamMember{}, err
	}
	s.publish(events.MemberUpdated, member.ID, 0, member)
	return member, nil
}

func (s *TeamService) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { err = s.observe("delete", start, err) }(time.Now())

	if err = s.wait(ctx, "delete", s.latency.Delete); err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(events.MemberRemoved, id, 0, nil)
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return errs.NewInvalidFieldError("email", "not a valid e-mail address")
	}
	return nil
}
