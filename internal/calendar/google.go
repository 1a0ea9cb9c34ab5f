package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/lumen-aesthetics/receptionist/internal/appointments"
	"github.com/lumen-aesthetics/receptionist/internal/schedule"
	"github.com/lumen-aesthetics/receptionist/pkg/logging"
)

// Client talks to the Google Calendar shared by the front desk. It is a
// best-effort auxiliary: the appointments table is authoritative and
// callers tolerate failures here.
type Client struct {
	svc        *gcal.Service
	calendarID string
	logger     *logging.Logger
}

var _ appointments.Calendar = (*Client)(nil)

// NewClient builds a calendar client from service-account credentials.
func NewClient(ctx context.Context, calendarID string, credentialsJSON []byte, logger *logging.Logger) (*Client, error) {
	if calendarID == "" {
		return nil, errors.New("calendar: calendar ID required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: build service: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID, logger: logger}, nil
}

// BusyBetween runs a free/busy query over [from, to).
func (c *Client) BusyBetween(ctx context.Context, from, to time.Time) ([]schedule.Interval, error) {
	resp, err := c.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: c.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, nil
	}
	busy := make([]schedule.Interval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			c.logger.Warn("calendar: skipping unparseable busy start", "value", p.Start)
			continue
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			c.logger.Warn("calendar: skipping unparseable busy end", "value", p.End)
			continue
		}
		busy = append(busy, schedule.Interval{Start: start, End: end})
	}
	return busy, nil
}

// InsertEvent creates the booked appointment on the shared calendar.
// The event carries no attendees: inviting the client's address from a
// service account gets rejected, so contact details ride in the
// description instead.
func (c *Client) InsertEvent(ctx context.Context, ev appointments.CalendarEvent) (string, error) {
	event := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
	}
	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}
	return created.Id, nil
}
