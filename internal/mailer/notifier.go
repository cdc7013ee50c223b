package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coworkdir/admin-api/internal/queue"
)

// Notifier turns queue events into mail.  It implements queue.Handler.
type Notifier struct {
	send       Sender
	adminEmail string
	log        *zap.Logger
}

func NewNotifier(s Sender, adminEmail string, log *zap.Logger) *Notifier {
	return &Notifier{send: s, adminEmail: adminEmail, log: log}
}

func (n *Notifier) Handle(ctx context.Context, ev queue.Event) error {
	switch ev.Type {
	case queue.EventPasswordResetRequested:
		if ev.Reset == nil {
			return fmt.Errorf("%s: missing reset payload", ev.Type)
		}
		m, err := PasswordReset(ev.Reset.To, ev.Reset.Name, ev.Reset.ResetURL)
		if err != nil {
			return err
		}
		return n.send.Send(ctx, m)

	case queue.EventLeadCreated:
		if ev.Lead == nil {
			return fmt.Errorf("%s: missing lead payload", ev.Type)
		}
		if n.adminEmail == "" {
			n.log.Debug("lead alert skipped: no admin address", zap.String("lead_id", ev.Lead.LeadID))
			return nil
		}
		d := LeadData{
			LeadID:      ev.Lead.LeadID,
			Name:        ev.Lead.Name,
			Email:       ev.Lead.Email,
			Phone:       ev.Lead.Phone,
			EnquiredFor: ev.Lead.EnquiredFor,
			SpaceType:   ev.Lead.SpaceType,
			Location:    ev.Lead.Location,
			Message:     ev.Lead.Message,
		}
		if ev.Lead.NumberOfSeats != nil {
			d.Seats = *ev.Lead.NumberOfSeats
		}
		m, err := NewLead(n.adminEmail, d)
		if err != nil {
			return err
		}
		return n.send.Send(ctx, m)

	default:
		n.log.Warn("unknown notification type", zap.String("type", ev.Type))
		return nil
	}
}
