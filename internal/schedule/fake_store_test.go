package schedule

import (
	"context"
	"sync"

	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
)

type call struct {
	op  string
	key string
	rec any
}

type fakeStore struct {
	mu        sync.Mutex
	weekly    []WeeklySchedule
	overrides []OverrideSchedule
	calls     []call
	lists     int
	failWith  error
	block     chan struct{}
}

func (f *fakeStore) record(c call) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.failWith
}

func (f *fakeStore) mutations() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeStore) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeStore) ListWeekly(context.Context) ([]WeeklySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]WeeklySchedule(nil), f.weekly...), nil
}

func (f *fakeStore) CreateWeekly(_ context.Context, rec WeeklySchedule) error {
	if err := f.record(call{op: "create", key: string(rec.Day), rec: rec}); err != nil {
		return err
	}
	f.mu.Lock()
	f.weekly = append(f.weekly, rec)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) UpdateWeekly(_ context.Context, day Weekday, rec WeeklySchedule) error {
	if err := f.record(call{op: "update", key: string(day), rec: rec}); err != nil {
		return err
	}
	f.mu.Lock()
	for i := range f.weekly {
		if f.weekly[i].Day == day {
			f.weekly[i] = rec
		}
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) DeleteWeekly(_ context.Context, day Weekday) error {
	if err := f.record(call{op: "delete", key: string(day)}); err != nil {
		return err
	}
	f.mu.Lock()
	kept := f.weekly[:0]
	for _, r := range f.weekly {
		if r.Day != day {
			kept = append(kept, r)
		}
	}
	f.weekly = kept
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) ListOverrides(context.Context) ([]OverrideSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]OverrideSchedule(nil), f.overrides...), nil
}

func (f *fakeStore) CreateOverride(_ context.Context, rec OverrideSchedule) error {
	if err := f.record(call{op: "create", key: string(rec.Date), rec: rec}); err != nil {
		return err
	}
	f.mu.Lock()
	f.overrides = append(f.overrides, rec)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) UpdateOverride(_ context.Context, date calendar.Date, rec OverrideSchedule) error {
	if err := f.record(call{op: "update", key: string(date), rec: rec}); err != nil {
		return err
	}
	f.mu.Lock()
	for i := range f.overrides {
		if f.overrides[i].Date == date {
			f.overrides[i] = rec
		}
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) DeleteOverride(_ context.Context, date calendar.Date) error {
	if err := f.record(call{op: "delete", key: string(date)}); err != nil {
		return err
	}
	f.mu.Lock()
	kept := f.overrides[:0]
	for _, r := range f.overrides {
		if r.Date != date {
			kept = append(kept, r)
		}
	}
	f.overrides = kept
	f.mu.Unlock()
	return nil
}
