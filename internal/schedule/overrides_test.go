package schedule

import (
	"context"
	"testing"

	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverrides(store *fakeStore) *OverrideEditor {
	return NewOverrideEditor(store, querycache.New(0, nil), "Closed today", nil)
}

func TestOverrideDayOffRendersSingleEvent(t *testing.T) {
	store := &fakeStore{}
	ed := newOverrides(store)
	ctx := context.Background()

	view, err := ed.Open(ctx, "2025-12-25")
	require.NoError(t, err)
	assert.Equal(t, PhaseCreating, view.Phase)
	form := view.Form
	form.IsDayOff = true
	form.Message = "Christmas"
	_, err = ed.Submit(ctx, form)
	require.NoError(t, err)

	month, err := ed.Month(ctx, "2025-12")
	require.NoError(t, err)
	cell, ok := month.Grid.Cell("2025-12-25")
	require.True(t, ok)
	assert.True(t, cell.Highlighted)
	require.Len(t, cell.Events, 1)
	assert.Equal(t, "Day Off", cell.Events[0].Title)
	assert.Equal(t, "Christmas", cell.Events[0].Tooltip)
	assert.True(t, cell.Events[0].AllDay)

	other, _ := month.Grid.Cell("2025-12-24")
	assert.False(t, other.Highlighted)
}

func TestOverrideOpenDayRendersEventPerSlot(t *testing.T) {
	store := &fakeStore{overrides: []OverrideSchedule{{
		Date:         "2025-05-03",
		Availability: Availability{Slots: []string{"10:00", "12:00", "15:00"}},
	}}}
	ed := newOverrides(store)

	month, err := ed.Month(context.Background(), "2025-05")
	require.NoError(t, err)
	cell, _ := month.Grid.Cell("2025-05-03")
	require.Len(t, cell.Events, 3)
	for _, ev := range cell.Events {
		assert.Equal(t, "10:00, 12:00, 15:00", ev.Tooltip)
		assert.Equal(t, KindSlot, ev.Kind)
	}
	assert.Equal(t, "12:00", cell.Events[1].Title)
}

func TestOverrideTimestampDatesStayOnTheirDay(t *testing.T) {
	var rec OverrideSchedule
	require.NoError(t, rec.Date.UnmarshalJSON([]byte(`"2025-05-01T00:00:00.000Z"`)))
	store := &fakeStore{overrides: []OverrideSchedule{{Date: rec.Date, Availability: Availability{IsDayOff: true, Message: "Off"}}}}
	ed := newOverrides(store)

	month, err := ed.Month(context.Background(), "2025-05")
	require.NoError(t, err)
	may1, _ := month.Grid.Cell("2025-05-01")
	apr30, _ := month.Grid.Cell("2025-04-30")
	assert.True(t, may1.Highlighted)
	assert.False(t, apr30.Highlighted)
}

func TestOverrideHighlightsFollowFetch(t *testing.T) {
	store := &fakeStore{overrides: []OverrideSchedule{{Date: "2025-06-10", Availability: Availability{IsDayOff: true, Message: "Off"}}}}
	ed := newOverrides(store)
	ctx := context.Background()

	_, err := ed.Open(ctx, "2025-06-10")
	require.NoError(t, err)
	_, err = ed.RequestDelete()
	require.NoError(t, err)
	_, err = ed.ConfirmDelete(ctx)
	require.NoError(t, err)

	month, err := ed.Month(ctx, "2025-06")
	require.NoError(t, err)
	cell, _ := month.Grid.Cell("2025-06-10")
	assert.False(t, cell.Highlighted)
	assert.Empty(t, cell.Events)
}

func TestOverrideEditUsesPut(t *testing.T) {
	existing := OverrideSchedule{ID: "o1", Date: "2025-07-04", Availability: Availability{IsDayOff: true, Message: "Holiday"}}
	store := &fakeStore{overrides: []OverrideSchedule{existing}}
	ed := newOverrides(store)
	ctx := context.Background()

	view, err := ed.Open(ctx, "2025-07-04")
	require.NoError(t, err)
	assert.Equal(t, PhaseEditing, view.Phase)
	form := view.Form
	form.IsDayOff = false
	form.Slots = []string{" 11:00 "}
	_, err = ed.Submit(ctx, form)
	require.NoError(t, err)

	calls := store.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, "update", calls[0].op)
	sent := calls[0].rec.(OverrideSchedule)
	assert.Equal(t, "o1", sent.ID)
	assert.Equal(t, calendar.Date("2025-07-04"), sent.Date)
	assert.Equal(t, []string{"11:00"}, sent.Slots)
}

func TestEventsForEmptyOpenDay(t *testing.T) {
	assert.Empty(t, Events(OverrideSchedule{Date: "2025-01-01"}))
}
