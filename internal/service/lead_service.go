package service

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/queue"
	"github.com/coworkdir/admin-api/internal/repository"
	"github.com/coworkdir/admin-api/internal/validate"
)

const leadNotFound = "Lead not found"

type LeadDTO struct {
	ID            uint64     `json:"id"`
	LeadID        string     `json:"leadId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	EnquiredFor   string     `json:"enquiredFor"`
	SpaceType     string     `json:"spaceType"`
	NumberOfSeats *int       `json:"numberOfSeats,omitempty"`
	Location      string     `json:"location,omitempty"`
	Message       string     `json:"message,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toLeadDTO(l *model.Lead) LeadDTO {
	return LeadDTO{
		ID:            l.ID,
		LeadID:        l.LeadID,
		Name:          l.Name,
		Email:         l.Email,
		Phone:         l.Phone,
		EnquiredFor:   l.EnquiredFor,
		SpaceType:     l.SpaceType,
		NumberOfSeats: l.NumberOfSeats,
		Location:      l.Location,
		Message:       l.Message,
		Date:          l.Date,
		Status:        l.Status,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// LeadInput carries a create or update body.  Status is ignored on create.
type LeadInput struct {
	Name          *string    `json:"name"`
	Email         *string    `json:"email"`
	Phone         *string    `json:"phone"`
	EnquiredFor   *string    `json:"enquiredFor"`
	SpaceType     *string    `json:"spaceType"`
	NumberOfSeats *int       `json:"numberOfSeats"`
	Location      *string    `json:"location"`
	Message       *string    `json:"message"`
	Date          *time.Time `json:"date"`
	Status        *string    `json:"status"`
}

func (in LeadInput) applyTo(l *model.Lead) {
	if in.Name != nil {
		l.Name = trimmed(in.Name)
	}
	if in.Email != nil {
		l.Email = strings.ToLower(trimmed(in.Email))
	}
	if in.Phone != nil {
		l.Phone = trimmed(in.Phone)
	}
	if in.EnquiredFor != nil {
		l.EnquiredFor = trimmed(in.EnquiredFor)
	}
	if in.SpaceType != nil {
		l.SpaceType = trimmed(in.SpaceType)
	}
	if in.NumberOfSeats != nil {
		l.NumberOfSeats = in.NumberOfSeats
	}
	if in.Location != nil {
		l.Location = trimmed(in.Location)
	}
	if in.Message != nil {
		l.Message = strings.TrimSpace(*in.Message)
	}
	if in.Date != nil {
		d := in.Date.UTC()
		l.Date = &d
	}
	if in.Status != nil {
		l.Status = trimmed(in.Status)
	}
}

func validateLead(l *model.Lead) error {
	return validate.Check(validation.Errors{
		"name":          validation.Validate(l.Name, validation.Required.Error("Name is required")),
		"email":         validation.Validate(l.Email, validation.Required.Error("Email is required"), is.EmailFormat.Error("Invalid email address")),
		"phone":         validation.Validate(l.Phone, validation.Required.Error("Phone number is required"), validate.Phone),
		"enquiredFor":   validation.Validate(l.EnquiredFor, validation.Required.Error("Enquired space is required")),
		"spaceType":     validation.Validate(l.SpaceType, validation.Required.Error("Space type is required")),
		"numberOfSeats": validation.Validate(l.NumberOfSeats, validate.MinInt(1, "Number of seats must be at least 1")),
		"status":        validation.Validate(l.Status, validation.Required.Error("Status is required"), validate.OneOf(model.LeadStatuses...)),
	}.Filter())
}

// LeadService manages enquiries.  Leads have no duplicate check: the same
// visitor may enquire as often as they like.
type LeadService struct {
	leads LeadStore
	pub   queue.Publisher
	log   *zap.Logger
}

func NewLeadService(leads LeadStore, pub queue.Publisher, log *zap.Logger) *LeadService {
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	return &LeadService{leads: leads, pub: pub, log: log}
}

type LeadQuery struct {
	ListQuery
	Status   string
	Location string
	Search   string
}

func (s *LeadService) List(ctx context.Context, q LeadQuery) ([]LeadDTO, Pagination, error) {
	if q.Status != "" {
		if err := validate.Check(validation.Errors{
			"status": validation.Validate(q.Status, validate.OneOf(model.LeadStatuses...)),
		}.Filter()); err != nil {
			return nil, Pagination{}, err
		}
	}
	p := repository.Page{Page: q.Page, Limit: q.Limit}.Normalize()
	rows, total, err := s.leads.FindAll(ctx, repository.LeadFilter{
		Status:   q.Status,
		Location: strings.TrimSpace(q.Location),
		Search:   strings.TrimSpace(q.Search),
	}, p)
	if err != nil {
		return nil, Pagination{}, fail(err, leadNotFound)
	}
	out := make([]LeadDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toLeadDTO(&rows[i]))
	}
	return out, paginate(p, total), nil
}

// Get accepts a numeric id or an LD-... business key.
func (s *LeadService) Get(ctx context.Context, ref string) (LeadDTO, error) {
	l, err := s.find(ctx, ref)
	if err != nil {
		return LeadDTO{}, err
	}
	return toLeadDTO(l), nil
}

func (s *LeadService) find(ctx context.Context, ref string) (*model.Lead, error) {
	var (
		l   *model.Lead
		err error
	)
	if id, ok := numericRef(ref); ok {
		l, err = s.leads.FindByID(ctx, id)
	} else {
		l, err = s.leads.FindByLeadID(ctx, strings.TrimSpace(ref))
	}
	if err != nil {
		return nil, fail(err, leadNotFound)
	}
	return l, nil
}

// Create stores a public enquiry and announces it.  A failed announcement
// is logged and never fails the request.
func (s *LeadService) Create(ctx context.Context, in LeadInput) (LeadDTO, error) {
	in.Status = nil
	l := model.Lead{Status: model.LeadStatusNew}
	in.applyTo(&l)
	if err := validateLead(&l); err != nil {
		return LeadDTO{}, err
	}
	if err := s.leads.Create(ctx, &l); err != nil {
		return LeadDTO{}, fail(err, leadNotFound)
	}
	s.log.Info("lead created", zap.String("lead_id", l.LeadID))
	s.announce(ctx, &l)
	return toLeadDTO(&l), nil
}

func (s *LeadService) announce(ctx context.Context, l *model.Lead) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := s.pub.Publish(pctx, queue.Event{
		Type:       queue.EventLeadCreated,
		OccurredAt: time.Now().UTC(),
		Lead: &queue.LeadPayload{
			LeadID:        l.LeadID,
			Name:          l.Name,
			Email:         l.Email,
			Phone:         l.Phone,
			EnquiredFor:   l.EnquiredFor,
			SpaceType:     l.SpaceType,
			NumberOfSeats: l.NumberOfSeats,
			Location:      l.Location,
			Message:       l.Message,
		},
	})
	if err != nil {
		s.log.Warn("lead notification not published", zap.String("lead_id", l.LeadID), zap.Error(err))
	}
}

// Update applies a full edit, status included.
func (s *LeadService) Update(ctx context.Context, ref string, in LeadInput) (LeadDTO, error) {
	cur, err := s.find(ctx, ref)
	if err != nil {
		return LeadDTO{}, err
	}
	next := *cur
	in.applyTo(&next)
	if err := validateLead(&next); err != nil {
		return LeadDTO{}, err
	}
	if err := s.leads.UpdateByID(ctx, cur.ID, &next); err != nil {
		return LeadDTO{}, fail(err, leadNotFound)
	}
	return toLeadDTO(&next), nil
}

// UpdateStatus sets any status from any other.  There is no workflow:
// admins correct mistakes by hand.
func (s *LeadService) UpdateStatus(ctx context.Context, ref, status string) (LeadDTO, error) {
	status = strings.TrimSpace(status)
	if err := validate.Check(validation.Errors{
		"status": validation.Validate(status, validation.Required.Error("Status is required"), validate.OneOf(model.LeadStatuses...)),
	}.Filter()); err != nil {
		return LeadDTO{}, err
	}
	cur, err := s.find(ctx, ref)
	if err != nil {
		return LeadDTO{}, err
	}
	l, err := s.leads.UpdateStatus(ctx, cur.ID, status)
	if err != nil {
		return LeadDTO{}, fail(err, leadNotFound)
	}
	return toLeadDTO(l), nil
}

func (s *LeadService) Delete(ctx context.Context, ref string) error {
	l, err := s.find(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.leads.SoftDeleteByID(ctx, l.ID); err != nil {
		return fail(err, leadNotFound)
	}
	s.log.Info("lead deleted", zap.String("lead_id", l.LeadID))
	return nil
}
