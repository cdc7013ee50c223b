package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/apperr"
	"github.com/coworkdir/admin-api/internal/model"
	"github.com/coworkdir/admin-api/internal/queue"
)

func validLead() LeadInput {
	return LeadInput{
		Name:        str("Ravi"),
		Email:       str(" Ravi@Example.com "),
		Phone:       str("9876543210"),
		EnquiredFor: str("Hub One"),
		SpaceType:   str("Hot desk"),
	}
}

func TestLeadCreatePublishesAndDefaultsStatus(t *testing.T) {
	pub := &capturePublisher{}
	svc := NewLeadService(newMemLeads(), pub, zap.NewNop())

	in := validLead()
	in.Status = str(model.LeadStatusConverted)
	got, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^LD-2025-\d{3,}$`), got.LeadID)
	assert.Equal(t, model.LeadStatusNew, got.Status)
	assert.Equal(t, "ravi@example.com", got.Email)

	require.Len(t, pub.events, 1)
	assert.Equal(t, queue.EventLeadCreated, pub.events[0].Type)
	assert.Equal(t, got.LeadID, pub.events[0].Lead.LeadID)
}

func TestLeadCreateSurvivesPublishFailure(t *testing.T) {
	svc := NewLeadService(newMemLeads(), &capturePublisher{err: errors.New("broker down")}, zap.NewNop())
	_, err := svc.Create(context.Background(), validLead())
	assert.NoError(t, err)
}

func TestLeadCreateAllowsDuplicates(t *testing.T) {
	svc := NewLeadService(newMemLeads(), nil, zap.NewNop())
	a, err := svc.Create(context.Background(), validLead())
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), validLead())
	require.NoError(t, err)
	assert.NotEqual(t, a.LeadID, b.LeadID)
}

func TestLeadValidationMessages(t *testing.T) {
	svc := NewLeadService(newMemLeads(), nil, zap.NewNop())
	zero := 0
	_, err := svc.Create(context.Background(), LeadInput{Email: str("nope"), Phone: str("123"), NumberOfSeats: &zero})

	ae, ok := apperr.As(err)
	require.True(t, ok)
	msgs := map[string]string{}
	for _, f := range ae.Fields {
		msgs[f.Field] = f.Message
	}
	assert.Equal(t, map[string]string{
		"name":          "Name is required",
		"email":         "Invalid email address",
		"phone":         "Phone number must be at least 10 digits",
		"enquiredFor":   "Enquired space is required",
		"spaceType":     "Space type is required",
		"numberOfSeats": "Number of seats must be at least 1",
	}, msgs)
}

func TestLeadStatusIsPermissive(t *testing.T) {
	svc := NewLeadService(newMemLeads(), nil, zap.NewNop())
	ctx := context.Background()
	l, err := svc.Create(ctx, validLead())
	require.NoError(t, err)

	for _, st := range []string{"converted", "new", "lost", "qualified"} {
		got, err := svc.UpdateStatus(ctx, l.LeadID, st)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}
	_, err = svc.UpdateStatus(ctx, l.LeadID, "won")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.UpdateStatus(ctx, "LD-2025-999", "new")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestLeadUpdateAndDelete(t *testing.T) {
	svc := NewLeadService(newMemLeads(), nil, zap.NewNop())
	ctx := context.Background()
	l, err := svc.Create(ctx, validLead())
	require.NoError(t, err)

	got, err := svc.Update(ctx, "1", LeadInput{Location: str("Kakkanad"), Status: str("contacted")})
	require.NoError(t, err)
	assert.Equal(t, "Kakkanad", got.Location)
	assert.Equal(t, "contacted", got.Status)
	assert.Equal(t, l.LeadID, got.LeadID)

	require.NoError(t, svc.Delete(ctx, l.LeadID))
	_, err = svc.Get(ctx, l.LeadID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.Update(ctx, l.LeadID, LeadInput{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
