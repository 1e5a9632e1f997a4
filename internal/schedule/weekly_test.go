package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWeekly(store *fakeStore) *WeeklyEditor {
	return NewWeeklyEditor(store, querycache.New(0, nil), "Closed today", nil)
}

func TestWeeklySubmitWithoutSlotsIsRejectedLocally(t *testing.T) {
	store := &fakeStore{}
	ed := newWeekly(store)
	ctx := context.Background()

	view, err := ed.Open(ctx, Monday)
	require.NoError(t, err)
	assert.Equal(t, PhaseCreating, view.Phase)
	assert.False(t, view.Form.IsDayOff)
	assert.Equal(t, "Closed today", view.Form.Message)
	assert.Empty(t, view.Form.Slots)

	view, err = ed.Submit(ctx, view.Form)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "add at least one slot", verr.Fields["slots"])
	assert.Equal(t, PhaseCreating, view.Phase)
	assert.Equal(t, "add at least one slot", view.FieldErrors["slots"])
	assert.Empty(t, store.mutations(), "no request may be sent")
}

func TestWeeklyCreateShowsBadge(t *testing.T) {
	store := &fakeStore{}
	ed := newWeekly(store)
	ctx := context.Background()

	view, err := ed.Open(ctx, Monday)
	require.NoError(t, err)
	form := view.Form
	form.Slots = []string{"10:00 AM - 11:00 AM"}

	view, err = ed.Submit(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, PhaseClosed, view.Phase)

	calls := store.mutations()
	require.Len(t, calls, 1)
	assert.Equal(t, "create", calls[0].op)
	assert.Equal(t, "Monday", calls[0].key)

	board, err := ed.Board(ctx)
	require.NoError(t, err)
	require.Len(t, board.Days, 7)
	assert.Equal(t, Sunday, board.Days[0].Day)
	monday := board.Days[1]
	assert.True(t, monday.HasRecord)
	assert.True(t, monday.CanDelete)
	assert.Equal(t, []string{"10:00 AM - 11:00 AM"}, monday.Slots)
	assert.False(t, board.Days[2].CanDelete)
	assert.True(t, board.Days[2].CanEdit)
}

func TestWeeklyRoundTripSendsLoadedRecord(t *testing.T) {
	tests := []struct {
		name   string
		loaded WeeklySchedule
	}{
		{"open day", WeeklySchedule{ID: "w1", Day: Tuesday, Availability: Availability{Slots: []string{"09:00", "13:00"}}}},
		{"day off without slots", WeeklySchedule{ID: "w2", Day: Monday, Availability: Availability{IsDayOff: true, Message: "Closed Mondays "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{weekly: []WeeklySchedule{tt.loaded}}
			ed := newWeekly(store)
			ctx := context.Background()

			view, err := ed.Open(ctx, tt.loaded.Day)
			require.NoError(t, err)
			assert.Equal(t, PhaseEditing, view.Phase)

			_, err = ed.Submit(ctx, view.Form)
			require.NoError(t, err)
			calls := store.mutations()
			require.Len(t, calls, 1)
			assert.Equal(t, "update", calls[0].op)
			assert.Equal(t, tt.loaded, calls[0].rec)

			sent, err := json.Marshal(calls[0].rec)
			require.NoError(t, err)
			want, err := json.Marshal(tt.loaded)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(sent))
		})
	}
}

func TestWeeklyDayOffNeedsMessage(t *testing.T) {
	store := &fakeStore{}
	ed := newWeekly(store)
	ctx := context.Background()
	view, _ := ed.Open(ctx, Sunday)
	form := view.Form
	form.IsDayOff = true
	form.Message = "  "
	_, err := ed.Submit(ctx, form)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "message")
	assert.Empty(t, store.mutations())
}

func TestWeeklySubmitFailureKeepsFormOpen(t *testing.T) {
	store := &fakeStore{failWith: &apiclient.StatusError{Status: 500, Body: `{"message":"db down"}`}}
	ed := newWeekly(store)
	ctx := context.Background()
	view, _ := ed.Open(ctx, Friday)
	form := view.Form
	form.Slots = []string{"12:00"}

	view, err := ed.Submit(ctx, form)
	require.Error(t, err)
	assert.Equal(t, PhaseCreating, view.Phase)
	assert.Equal(t, []string{"12:00"}, view.Form.Slots)
	assert.Equal(t, "could not save Friday: db down", view.Error)
	assert.Len(t, store.mutations(), 1, "no automatic retry")
}

func TestWeeklyDeleteRefetchesOnce(t *testing.T) {
	store := &fakeStore{weekly: []WeeklySchedule{{Day: Wednesday, Availability: Availability{IsDayOff: true, Message: "Off"}}}}
	ed := newWeekly(store)
	ctx := context.Background()

	_, err := ed.Board(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.listCount())

	view, err := ed.RequestDeleteFor(ctx, Wednesday)
	require.NoError(t, err)
	assert.Equal(t, PhaseConfirmingDelete, view.Phase)

	view, err = ed.ConfirmDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseClosed, view.Phase)
	assert.Equal(t, 2, store.listCount())

	board, err := ed.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCount(), "board served from the refetched list")
	assert.False(t, board.Days[3].HasRecord)
}

func TestWeeklyDeleteFromEditDeclineReturnsToEditing(t *testing.T) {
	store := &fakeStore{weekly: []WeeklySchedule{{Day: Saturday, Availability: Availability{Slots: []string{"10:00"}}}}}
	ed := newWeekly(store)
	ctx := context.Background()

	_, err := ed.Open(ctx, Saturday)
	require.NoError(t, err)
	view, err := ed.RequestDelete()
	require.NoError(t, err)
	assert.Equal(t, PhaseConfirmingDelete, view.Phase)
	view, err = ed.DeclineDelete()
	require.NoError(t, err)
	assert.Equal(t, PhaseEditing, view.Phase)
	assert.Equal(t, Saturday, view.Key)
	assert.Empty(t, store.mutations())
}

func TestWeeklyDeleteWithoutRecord(t *testing.T) {
	ed := newWeekly(&fakeStore{})
	_, err := ed.RequestDeleteFor(context.Background(), Monday)
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestWeeklyCancelDiscards(t *testing.T) {
	store := &fakeStore{}
	ed := newWeekly(store)
	_, _ = ed.Open(context.Background(), Thursday)
	view, err := ed.Cancel()
	require.NoError(t, err)
	assert.Equal(t, PhaseClosed, view.Phase)
	_, err = ed.Submit(context.Background(), WeeklySchedule{Availability: Availability{Slots: []string{"x"}}})
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Empty(t, store.mutations())
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("monday")
	require.NoError(t, err)
	assert.Equal(t, Monday, d)
	_, err = ParseWeekday("Funday")
	assert.ErrorIs(t, err, ErrInvalidDay)
}
