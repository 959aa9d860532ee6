package action

import (
	"time"

	"github.com/sweeney/ir-remote/internal/nec"
)

// Output drives the direction lines to a pattern. Drive runs inside the edge
// handler and must return quickly.
type Output interface {
	Drive(pattern uint8) error
}

// Observer is notified of every completed frame, matched or not.
// Observe must not block.
type Observer interface {
	Observe(event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event Event)

// Observe calls f(event).
func (f ObserverFunc) Observe(event Event) {
	f(event)
}

// Dispatcher looks up completed frames and drives the output.
// It implements nec.Dispatcher.
type Dispatcher struct {
	table     Table
	output    Output
	observers []Observer
	now       func() time.Time
}

var _ nec.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher over table. A nil output is allowed
// (actions are only reported to observers).
func NewDispatcher(table Table, output Output, observers ...Observer) *Dispatcher {
	return &Dispatcher{
		table:     table,
		output:    output,
		observers: observers,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for event timestamps.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Dispatch handles one completed frame. Unmatched frames drive nothing.
func (d *Dispatcher) Dispatch(cmd nec.Command) {
	a, ok := d.table.Lookup(cmd)
	if !ok {
		a = ActionNone
	}
	event := newEvent(d.now(), cmd, a)

	if ok && d.output != nil {
		event.Err = d.output.Drive(a.Pattern())
	}

	for _, o := range d.observers {
		o.Observe(event)
	}
}
