package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
)

const (
	weeklyPath   = "/weekly-schedules"
	overridePath = "/override-schedules"
	// cache entities
	WeeklyEntity   = "weekly-schedules"
	OverrideEntity = "override-schedules"
)

// WeeklyStore persists weekly records.
type WeeklyStore interface {
	ListWeekly(ctx context.Context) ([]WeeklySchedule, error)
	CreateWeekly(ctx context.Context, rec WeeklySchedule) error
	UpdateWeekly(ctx context.Context, day Weekday, rec WeeklySchedule) error
	DeleteWeekly(ctx context.Context, day Weekday) error
}

// OverrideStore persists override records.
type OverrideStore interface {
	ListOverrides(ctx context.Context) ([]OverrideSchedule, error)
	CreateOverride(ctx context.Context, rec OverrideSchedule) error
	UpdateOverride(ctx context.Context, date calendar.Date, rec OverrideSchedule) error
	DeleteOverride(ctx context.Context, date calendar.Date) error
}

// APIStore implements both stores over the business API.
type APIStore struct {
	client *apiclient.Client
}

func NewAPIStore(client *apiclient.Client) *APIStore {
	return &APIStore{client: client}
}

func (s *APIStore) ListWeekly(ctx context.Context) ([]WeeklySchedule, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, weeklyPath, nil, &raw); err != nil {
		return nil, fmt.Errorf("schedule: list weekly: %w", err)
	}
	page, err := apiclient.DecodePage[WeeklySchedule](raw, "weeklySchedules")
	if err != nil {
		return nil, fmt.Errorf("schedule: list weekly: %w", err)
	}
	return page.Items, nil
}

func (s *APIStore) CreateWeekly(ctx context.Context, rec WeeklySchedule) error {
	if err := s.client.Do(ctx, http.MethodPost, weeklyPath, rec, nil); err != nil {
		return fmt.Errorf("schedule: create weekly %s: %w", rec.Day, err)
	}
	return nil
}

func (s *APIStore) UpdateWeekly(ctx context.Context, day Weekday, rec WeeklySchedule) error {
	if err := s.client.Do(ctx, http.MethodPut, weeklyPath+"/"+url.PathEscape(string(day)), rec, nil); err != nil {
		return fmt.Errorf("schedule: update weekly %s: %w", day, err)
	}
	return nil
}

func (s *APIStore) DeleteWeekly(ctx context.Context, day Weekday) error {
	if err := s.client.Do(ctx, http.MethodDelete, weeklyPath+"/"+url.PathEscape(string(day)), nil, nil); err != nil {
		return fmt.Errorf("schedule: delete weekly %s: %w", day, err)
	}
	return nil
}

func (s *APIStore) ListOverrides(ctx context.Context) ([]OverrideSchedule, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, overridePath, nil, &raw); err != nil {
		return nil, fmt.Errorf("schedule: list overrides: %w", err)
	}
	page, err := apiclient.DecodePage[OverrideSchedule](raw, "overrideSchedules")
	if err != nil {
		return nil, fmt.Errorf("schedule: list overrides: %w", err)
	}
	return page.Items, nil
}

func (s *APIStore) CreateOverride(ctx context.Context, rec OverrideSchedule) error {
	if err := s.client.Do(ctx, http.MethodPost, overridePath, rec, nil); err != nil {
		return fmt.Errorf("schedule: create override %s: %w", rec.Date, err)
	}
	return nil
}

func (s *APIStore) UpdateOverride(ctx context.Context, date calendar.Date, rec OverrideSchedule) error {
	if err := s.client.Do(ctx, http.MethodPut, overridePath+"/"+string(date), rec, nil); err != nil {
		return fmt.Errorf("schedule: update override %s: %w", date, err)
	}
	return nil
}

func (s *APIStore) DeleteOverride(ctx context.Context, date calendar.Date) error {
	if err := s.client.Do(ctx, http.MethodDelete, overridePath+"/"+string(date), nil, nil); err != nil {
		return fmt.Errorf("schedule: delete override %s: %w", date, err)
	}
	return nil
}
