package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/repository"
	"github.com/coworkdir/admin-api/internal/validate"
)

const spaceNotFound = "Space not found"

// SpaceDTO is the public shape of a space.  City is the location name;
// Location is the street address.
type SpaceDTO struct {
	ID               uint64         `json:"id"`
	SpaceID          string         `json:"spaceId"`
	SpaceName        string         `json:"spaceName"`
	SpaceType        string         `json:"spaceType"`
	CityID           uint64         `json:"cityId"`
	City             string         `json:"city"`
	SpaceCategory    string         `json:"spaceCategory"`
	ShortDescription string         `json:"shortDescription"`
	LongDescription  string         `json:"longDescription"`
	Amenities        []string       `json:"amenities"`
	Pricing          *model.Pricing `json:"pricing,omitempty"`
	Location         *model.Address `json:"location,omitempty"`
	Contact          *model.Contact `json:"contact,omitempty"`
	Images           []string       `json:"images"`
	Status           string         `json:"status"`
	IsFeatured       bool           `json:"isFeatured"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func toSpaceDTO(sp *model.Space) SpaceDTO {
	d := SpaceDTO{
		ID:               sp.ID,
		SpaceID:          sp.SpaceID,
		SpaceName:        sp.SpaceName,
		SpaceType:        sp.SpaceType,
		CityID:           sp.CityID,
		City:             sp.CityName,
		SpaceCategory:    sp.SpaceCategory,
		ShortDescription: sp.ShortDescription,
		LongDescription:  sp.LongDescription,
		Amenities:        sp.Amenities,
		Pricing:          sp.Pricing,
		Location:         sp.Address,
		Contact:          sp.Contact,
		Images:           sp.Images,
		Status:           sp.Status,
		IsFeatured:       sp.IsFeatured,
		CreatedAt:        sp.CreatedAt,
		UpdatedAt:        sp.UpdatedAt,
	}
	if d.Amenities == nil {
		d.Amenities = []string{}
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	return d
}

// SpaceInput carries a create or update body.  Nil fields are left as they
// are on update; on create they take their defaults.
type SpaceInput struct {
	SpaceName        *string        `json:"spaceName"`
	SpaceType        *string        `json:"spaceType"`
	City             *uint64        `json:"city"`
	SpaceCategory    *string        `json:"spaceCategory"`
	ShortDescription *string        `json:"shortDescription"`
	LongDescription  *string        `json:"longDescription"`
	Amenities        []string       `json:"amenities"`
	Pricing          *model.Pricing `json:"pricing"`
	Location         *model.Address `json:"location"`
	Contact          *model.Contact `json:"contact"`
	Images           []string       `json:"images"`
	Status           *string        `json:"status"`
	IsFeatured       *bool          `json:"isFeatured"`
}

func (in SpaceInput) applyTo(sp *model.Space) {
	if in.SpaceName != nil {
		sp.SpaceName = trimmed(in.SpaceName)
	}
	if in.SpaceType != nil {
		sp.SpaceType = trimmed(in.SpaceType)
	}
	if in.City != nil {
		sp.CityID = *in.City
	}
	if in.SpaceCategory != nil {
		sp.SpaceCategory = trimmed(in.SpaceCategory)
	}
	if in.ShortDescription != nil {
		sp.ShortDescription = *in.ShortDescription
	}
	if in.LongDescription != nil {
		sp.LongDescription = *in.LongDescription
	}
	if in.Amenities != nil {
		sp.Amenities = in.Amenities
	}
	if in.Pricing != nil {
		sp.Pricing = in.Pricing
	}
	if in.Location != nil {
		sp.Address = in.Location
	}
	if in.Contact != nil {
		c := *in.Contact
		c.Email = strings.ToLower(strings.TrimSpace(c.Email))
		sp.Contact = &c
	}
	if in.Images != nil {
		sp.Images = in.Images
	}
	if in.Status != nil {
		sp.Status = trimmed(in.Status)
	}
	if in.IsFeatured != nil {
		sp.IsFeatured = *in.IsFeatured
	}
}

// validateSpace checks the whole document, not just the fields a request
// touched.
func validateSpace(sp *model.Space) error {
	return validate.Check(validation.Errors{
		"spaceName":     validation.Validate(sp.SpaceName, validation.Required.Error("Space name is required"), validation.Length(1, 200)),
		"spaceType":     validation.Validate(sp.SpaceType, validation.Required.Error("Space type is required")),
		"city":          validation.Validate(sp.CityID, validation.Required.Error("City is required")),
		"spaceCategory": validation.Validate(sp.SpaceCategory, validation.Required.Error("Space category is required")),
		"status":        validation.Validate(sp.Status, validation.Required, validate.OneOf(model.SpaceStatuses...)),
		"images":        validation.Validate(sp.Images, validation.Each(is.URL.Error("must be a valid URL"))),
		"pricing":       validatePricing(sp.Pricing),
		"location":      validateAddress(sp.Address),
		"contact":       validateContact(sp.Contact),
	}.Filter())
}

func validatePricing(p *model.Pricing) error {
	if p == nil {
		return nil
	}
	return validation.Errors{
		"hotDesk":       validation.Validate(p.HotDesk, validate.Positive),
		"dedicatedDesk": validation.Validate(p.DedicatedDesk, validate.Positive),
		"privateOffice": validation.Validate(p.PrivateOffice, validate.Positive),
	}.Filter()
}

func validateAddress(a *model.Address) error {
	if a == nil {
		return nil
	}
	return validation.Errors{
		"address": validation.Validate(a.Address, validation.Required.Error("Address is required")),
		"pincode": validation.Validate(a.Pincode, validation.Required.Error("Pincode is required")),
	}.Filter()
}

func validateContact(c *model.Contact) error {
	if c == nil {
		return nil
	}
	return validation.Errors{
		"name":  validation.Validate(c.Name, validation.Required.Error("Contact name is required")),
		"email": validation.Validate(c.Email, validation.Required.Error("Invalid email address"), is.EmailFormat.Error("Invalid email address")),
		"phone": validation.Validate(c.Phone, validation.Required.Error("Phone number must be at least 10 digits"), validate.Phone),
	}.Filter()
}

// SpaceService manages listings.
type SpaceService struct {
	spaces    SpaceStore
	locations LocationStore
	log       *zap.Logger
}

func NewSpaceService(spaces SpaceStore, locations LocationStore, log *zap.Logger) *SpaceService {
	return &SpaceService{spaces: spaces, locations: locations, log: log}
}

// SpaceQuery is a list request.
type SpaceQuery struct {
	ListQuery
	Status string
	City   string
	Search string
}

func (s *SpaceService) List(ctx context.Context, q SpaceQuery) ([]SpaceDTO, Pagination, error) {
	if q.Status != "" {
		if err := validate.Check(validation.Errors{
			"status": validation.Validate(q.Status, validate.OneOf(model.SpaceStatuses...)),
		}.Filter()); err != nil {
			return nil, Pagination{}, err
		}
	}
	p := repository.Page{Page: q.Page, Limit: q.Limit}.Normalize()
	rows, total, err := s.spaces.FindAll(ctx, repository.SpaceFilter{
		Status: q.Status,
		City:   strings.TrimSpace(q.City),
		Search: strings.TrimSpace(q.Search),
	}, p)
	if err != nil {
		return nil, Pagination{}, fail(err, spaceNotFound)
	}
	out := make([]SpaceDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toSpaceDTO(&rows[i]))
	}
	return out, paginate(p, total), nil
}

func (s *SpaceService) Featured(ctx context.Context) ([]SpaceDTO, error) {
	rows, err := s.spaces.FindFeatured(ctx)
	if err != nil {
		return nil, fail(err, spaceNotFound)
	}
	out := make([]SpaceDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toSpaceDTO(&rows[i]))
	}
	return out, nil
}

// Get accepts a numeric id or an SP-... business key.
func (s *SpaceService) Get(ctx context.Context, ref string) (SpaceDTO, error) {
	sp, err := s.find(ctx, ref)
	if err != nil {
		return SpaceDTO{}, err
	}
	return toSpaceDTO(sp), nil
}

func (s *SpaceService) find(ctx context.Context, ref string) (*model.Space, error) {
	var (
		sp  *model.Space
		err error
	)
	if id, ok := numericRef(ref); ok {
		sp, err = s.spaces.FindByID(ctx, id)
	} else {
		sp, err = s.spaces.FindBySpaceID(ctx, strings.TrimSpace(ref))
	}
	if err != nil {
		return nil, fail(err, spaceNotFound)
	}
	return sp, nil
}

func (s *SpaceService) Create(ctx context.Context, in SpaceInput) (SpaceDTO, error) {
	sp := model.Space{Status: model.SpaceStatusPending}
	in.applyTo(&sp)
	if err := validateSpace(&sp); err != nil {
		return SpaceDTO{}, err
	}
	city, err := s.city(ctx, sp.CityID)
	if err != nil {
		return SpaceDTO{}, err
	}
	if err := s.ensureUnique(ctx, sp.SpaceName, city, 0); err != nil {
		return SpaceDTO{}, err
	}
	if err := s.spaces.Create(ctx, &sp); err != nil {
		return SpaceDTO{}, fail(err, spaceNotFound)
	}
	s.log.Info("space created", zap.String("space_id", sp.SpaceID), zap.Uint64("id", sp.ID))
	return toSpaceDTO(&sp), nil
}

// Update merges in onto the stored space and re-validates the result.
func (s *SpaceService) Update(ctx context.Context, ref string, in SpaceInput) (SpaceDTO, error) {
	cur, err := s.find(ctx, ref)
	if err != nil {
		return SpaceDTO{}, err
	}
	next := *cur
	in.applyTo(&next)
	if err := validateSpace(&next); err != nil {
		return SpaceDTO{}, err
	}

	nameChanged := !strings.EqualFold(next.SpaceName, cur.SpaceName)
	if next.CityID != cur.CityID || nameChanged {
		city, err := s.city(ctx, next.CityID)
		if err != nil {
			return SpaceDTO{}, err
		}
		if err := s.ensureUnique(ctx, next.SpaceName, city, cur.ID); err != nil {
			return SpaceDTO{}, err
		}
	}
	if err := s.spaces.UpdateByID(ctx, cur.ID, &next); err != nil {
		return SpaceDTO{}, fail(err, spaceNotFound)
	}
	return toSpaceDTO(&next), nil
}

// Delete soft-deletes a space.  Its business key stays reserved.
func (s *SpaceService) Delete(ctx context.Context, ref string) error {
	sp, err := s.find(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.spaces.SoftDeleteByID(ctx, sp.ID); err != nil {
		return fail(err, spaceNotFound)
	}
	s.log.Info("space deleted", zap.String("space_id", sp.SpaceID))
	return nil
}

// HardDelete removes the row for good.  A numeric ref also reaches
// soft-deleted rows; a business key only finds live ones.
func (s *SpaceService) HardDelete(ctx context.Context, ref string) error {
	id, ok := numericRef(ref)
	if !ok {
		sp, err := s.find(ctx, ref)
		if err != nil {
			return err
		}
		id = sp.ID
	}
	if err := s.spaces.HardDeleteByID(ctx, id); err != nil {
		return fail(err, spaceNotFound)
	}
	s.log.Warn("space permanently deleted", zap.Uint64("id", id))
	return nil
}

func (s *SpaceService) city(ctx context.Context, id uint64) (*model.Location, error) {
	loc, err := s.locations.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Validation("Validation failed", apperr.FieldError{Field: "city", Message: "City not found"})
	}
	if err != nil {
		return nil, apperr.Unexpected(err)
	}
	return loc, nil
}

func (s *SpaceService) ensureUnique(ctx context.Context, name string, city *model.Location, excludeID uint64) error {
	exists, err := s.spaces.ExistsByNameAndCity(ctx, name, city.ID, excludeID)
	if err != nil {
		return fail(err, spaceNotFound)
	}
	if exists {
		return apperr.Conflict(fmt.Sprintf(`A space with name "%s" already exists in %s`, name, city.Name))
	}
	return nil
}
