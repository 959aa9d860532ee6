// Package action maps decoded NEC commands to direction outputs.
package action

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sweeney/ir-remote/internal/nec"
)

// Action is one of the four direction outputs.
type Action string

const (
	ActionNone  Action = ""
	ActionUp    Action = "UP"
	ActionLeft  Action = "LEFT"
	ActionRight Action = "RIGHT"
	ActionDown  Action = "DOWN"
)

// All lists the actions in output line order.
var All = []Action{ActionUp, ActionLeft, ActionRight, ActionDown}

// ParseAction accepts an action name in any case.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range All {
		if a == known {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", s)
}

// Line returns the output line index for the action, or -1.
func (a Action) Line() int {
	for i, known := range All {
		if a == known {
			return i
		}
	}
	return -1
}

// Pattern returns the output pattern for the action: every bit set except
// the action's own line, which is driven low.
func (a Action) Pattern() uint8 {
	line := a.Line()
	if line < 0 {
		return 0xFF
	}
	return ^(uint8(1) << line)
}

// Table maps command keys (frame bytes 1..3) to actions. Lookup is exact.
type Table map[nec.Key]Action

// DefaultTable returns the key assignments of the stock remote:
// buttons 2, 4, 6 and 8.
func DefaultTable() Table {
	return Table{
		{0xFF, 0x18, 0xE7}: ActionUp,
		{0xFF, 0x10, 0xEF}: ActionLeft,
		{0xFF, 0x5A, 0xA5}: ActionRight,
		{0xFF, 0x4A, 0xB5}: ActionDown,
	}
}

// Lookup returns the action for cmd, ignoring byte 0.
func (t Table) Lookup(cmd nec.Command) (Action, bool) {
	a, ok := t[cmd.Key()]
	return a, ok
}

// Keys returns the table keys in ascending order.
func (t Table) Keys() []nec.Key {
	keys := make([]nec.Key, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Event describes one completed frame after lookup.
type Event struct {
	ID        string
	Timestamp time.Time
	Command   nec.Command
	// Action is ActionNone when the frame matched no table entry.
	Action Action
	// Err holds the output error, if driving the output failed.
	Err error
}

// Matched reports whether the frame mapped to an action.
func (e Event) Matched() bool {
	return e.Action != ActionNone
}

func newEvent(now time.Time, cmd nec.Command, a Action) Event {
	return Event{
		ID:        xid.NewWithTime(now).String(),
		Timestamp: now,
		Command:   cmd,
		Action:    a,
	}
}
