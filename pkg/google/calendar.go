package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/klokku/prayer-sync/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Calendar creates events in one Google calendar.
type Calendar struct {
	service    *gcal.Service
	calendarId string
	timezone   string
}

func NewCalendar(service *gcal.Service, calendarId string, timezone string) *Calendar {
	return &Calendar{
		service:    service,
		calendarId: calendarId,
		timezone:   timezone,
	}
}

// NewService builds the Calendar API client on top of an authorized HTTP client.
func NewService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*gcal.Service, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %v", err)
		log.Error(err)
		return nil, err
	}
	return service, nil
}

func (c *Calendar) Create(ctx context.Context, event calendar.Event) error {
	log.Debugf("Adding event: %+v, to calendar: %s", event, c.calendarId)
	_, err := c.service.Events.Insert(c.calendarId, &gcal.Event{
		Id:      event.ID,
		Summary: event.Summary,
		ColorId: event.ColorId,
		Start: &gcal.EventDateTime{
			DateTime: event.StartTime.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.EndTime.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
	}).Context(ctx).Do()

	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return fmt.Errorf("%w: '%s' at %s", calendar.ErrAlreadyExists, event.Summary, event.StartTime.Format(time.RFC3339))
		}
		err := fmt.Errorf("unable to insert event in Google Calendar: %w", err)
		log.Error(err)
		return err
	}
	log.Infof("Created event: '%s' on %s", event.Summary, event.StartTime.Format("02 Jan 2006"))
	return nil
}

func (c *Calendar) Close() error {
	return nil
}
