package bookings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var bookingsTracer = otel.Tracer("pcms.internal.bookings")

const (
	summariesPath = "/summaries"
	bookingPath   = "/online-booking"
	// cache entities
	SummaryEntity = "summaries"
	BookingEntity = "online-booking"
)

// Store reads and updates bookings.
type Store interface {
	Summaries(ctx context.Context, month calendar.Month) ([]DaySummary, error)
	Get(ctx context.Context, id string) (Booking, error)
	List(ctx context.Context, params apiclient.ListParams) (apiclient.Page[Booking], error)
	Update(ctx context.Context, id string, patch Patch) error
}

// APIStore implements Store over the business API.
type APIStore struct {
	client *apiclient.Client
}

func NewAPIStore(client *apiclient.Client) *APIStore {
	return &APIStore{client: client}
}

func (s *APIStore) Summaries(ctx context.Context, month calendar.Month) ([]DaySummary, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.summaries")
	defer span.End()
	span.SetAttributes(attribute.String("pcms.month", string(month)))

	var raw json.RawMessage
	if err := s.client.Get(ctx, summariesPath, url.Values{"month": {string(month)}}, &raw); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("bookings: summaries %s: %w", month, err)
	}
	page, err := apiclient.DecodePage[DaySummary](raw, "summaries")
	if err != nil {
		return nil, fmt.Errorf("bookings: summaries %s: %w", month, err)
	}
	return page.Items, nil
}

func (s *APIStore) Get(ctx context.Context, id string) (Booking, error) {
	var wrapped struct {
		Booking
		Data *Booking `json:"data"`
	}
	if err := s.client.Get(ctx, bookingPath+"/"+url.PathEscape(id), nil, &wrapped); err != nil {
		return Booking{}, fmt.Errorf("bookings: get %s: %w", id, err)
	}
	if wrapped.Data != nil {
		return *wrapped.Data, nil
	}
	return wrapped.Booking, nil
}

func (s *APIStore) List(ctx context.Context, params apiclient.ListParams) (apiclient.Page[Booking], error) {
	page, err := apiclient.List[Booking](ctx, s.client, bookingPath, "bookings", params)
	if err != nil {
		return page, fmt.Errorf("bookings: list: %w", err)
	}
	return page, nil
}

func (s *APIStore) Update(ctx context.Context, id string, patch Patch) error {
	ctx, span := bookingsTracer.Start(ctx, "bookings.update")
	defer span.End()
	span.SetAttributes(attribute.String("pcms.booking_id", id))

	if err := s.client.Do(ctx, http.MethodPatch, bookingPath+"/"+url.PathEscape(id), patch, nil); err != nil {
		span.RecordError(err)
		return fmt.Errorf("bookings: update %s: %w", id, err)
	}
	return nil
}
