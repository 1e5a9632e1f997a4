package calendar

import "time"

// Event is an all-day entry rendered inside a cell.
type Event struct {
	Date    Date   `json:"date"`
	Title   string `json:"title"`
	Tooltip string `json:"tooltip,omitempty"`
	AllDay  bool   `json:"allDay"`
	Kind    string `json:"kind"`
}

// Cell is one day of the grid.
type Cell struct {
	Date        Date    `json:"date"`
	Day         int     `json:"day"`
	InMonth     bool    `json:"inMonth"`
	Highlighted bool    `json:"highlighted"`
	Events      []Event `json:"events"`
}

// Grid is a month laid out as Sunday-first weeks.
type Grid struct {
	Month Month    `json:"month"`
	Prev  Month    `json:"prev"`
	Next  Month    `json:"next"`
	Weeks [][]Cell `json:"weeks"`
}

// DateSet is the set of highlighted days.
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s DateSet) Add(d Date) { s[d] = struct{}{} }
func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// Build lays out m with highlighted days and events attached to their cells.
// Leading and trailing days of adjacent months fill the first and last week.
func Build(m Month, highlighted DateSet, events []Event) Grid {
	byDate := make(map[Date][]Event)
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	first := m.First()
	start := first.AddDate(0, 0, -int(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	grid := Grid{Month: m, Prev: m.Prev(), Next: m.Next()}
	var week []Cell
	for t := start; !t.After(end); t = t.AddDate(0, 0, 1) {
		d := DateOf(t)
		cell := Cell{
			Date:        d,
			Day:         t.Day(),
			InMonth:     t.Month() == first.Month(),
			Highlighted: highlighted.Has(d),
			Events:      byDate[d],
		}
		if cell.Events == nil {
			cell.Events = []Event{}
		}
		week = append(week, cell)
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}
	return grid
}

// Cell returns the cell for d, if the grid shows it.
func (g Grid) Cell(d Date) (Cell, bool) {
	for _, week := range g.Weeks {
		for _, c := range week {
			if c.Date == d {
				return c, true
			}
		}
	}
	return Cell{}, false
}
