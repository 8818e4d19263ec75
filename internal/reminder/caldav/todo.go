package caldav

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/pongsapakl/mcp-reminders/internal/reminder"
)

// VTODO status values from RFC 5545. go-ical only names the VEVENT ones.
const (
	todoStatusNeedsAction = "NEEDS-ACTION"
	todoStatusCompleted   = "COMPLETED"
)

// setIntProp writes an integer-typed property without the VALUE=TEXT
// parameter that Props.SetText would attach to it.
func setIntProp(props ical.Props, name string, v int) {
	props.Set(&ical.Prop{
		Name:   name,
		Params: make(ical.Params),
		Value:  strconv.Itoa(v),
	})
}

// todoComponent returns the first VTODO child of cal, or nil.
func todoComponent(cal *ical.Calendar) *ical.Component {
	if cal == nil {
		return nil
	}
	for _, child := range cal.Children {
		if child.Name == ical.CompToDo {
			return child
		}
	}
	return nil
}

func todoUID(obj *caldav.CalendarObject) string {
	comp := todoComponent(obj.Data)
	if comp == nil {
		return ""
	}
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		return prop.Value
	}
	return ""
}

// todoFromObject converts a fetched calendar object into a reminder.
func todoFromObject(obj *caldav.CalendarObject, listName string) (*reminder.Reminder, error) {
	comp := todoComponent(obj.Data)
	if comp == nil {
		return nil, fmt.Errorf("%w: object %s has no VTODO component", reminder.ErrStore, obj.Path)
	}
	return todoFromComponent(comp, listName)
}

// todoFromComponent maps VTODO properties onto a reminder. RFC 5545
// priorities use the same 1-9 bands as the native store, so the ordinal
// passes straight through the shared formatter.
func todoFromComponent(comp *ical.Component, listName string) (*reminder.Reminder, error) {
	r := &reminder.Reminder{
		Priority: reminder.FormatPriority(reminder.PriorityNone),
		List:     listName,
	}

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		r.ID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		r.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		r.Notes = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDue); prop != nil {
		if t, err := prop.DateTime(time.Local); err == nil {
			due := t.In(time.Local)
			r.DueDate = &due
		}
	}
	if prop := comp.Props.Get(ical.PropPriority); prop != nil {
		if n, err := strconv.Atoi(prop.Value); err == nil {
			r.Priority = reminder.FormatPriority(n)
		}
	}
	if prop := comp.Props.Get(ical.PropStatus); prop != nil {
		r.Completed = strings.EqualFold(prop.Value, todoStatusCompleted)
	}

	return r, nil
}

// newTodoCalendar builds the calendar object for a freshly created
// reminder.
func newTodoCalendar(uid string, req reminder.CreateRequest) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//mcp-reminders//CalDAV//EN")

	todo := &ical.Component{Name: ical.CompToDo, Props: make(ical.Props)}
	todo.Props.SetText(ical.PropUID, uid)
	todo.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	todo.Props.SetText(ical.PropSummary, req.Title)
	todo.Props.SetText(ical.PropStatus, todoStatusNeedsAction)

	if req.Notes != "" {
		todo.Props.SetText(ical.PropDescription, req.Notes)
	}
	if req.DueDate != nil {
		todo.Props.SetDateTime(ical.PropDue, req.DueDate.UTC())
	}
	if req.Priority != 0 {
		setIntProp(todo.Props, ical.PropPriority, req.Priority)
	}

	cal.Children = append(cal.Children, todo)
	return cal
}

// applyFields writes the non-nil update fields into an existing VTODO,
// leaving every other property (alarms, Apple extensions) untouched.
func applyFields(todo *ical.Component, fields reminder.UpdateFields) {
	if fields.Title != nil {
		todo.Props.SetText(ical.PropSummary, *fields.Title)
	}
	if fields.Notes != nil {
		if *fields.Notes == "" {
			delete(todo.Props, ical.PropDescription)
		} else {
			todo.Props.SetText(ical.PropDescription, *fields.Notes)
		}
	}
	if fields.DueDate != nil {
		todo.Props.SetDateTime(ical.PropDue, fields.DueDate.UTC())
	}
	if fields.Priority != nil {
		if *fields.Priority == 0 {
			delete(todo.Props, ical.PropPriority)
		} else {
			setIntProp(todo.Props, ical.PropPriority, *fields.Priority)
		}
	}
	if fields.Completed != nil {
		setCompleted(todo, *fields.Completed)
	}
	todo.Props.SetDateTime(ical.PropLastModified, time.Now().UTC())
}

// setCompleted flips the completion state the way the Reminders apps do:
// STATUS plus a COMPLETED timestamp and percentage when done, cleared
// again when reopened.
func setCompleted(todo *ical.Component, done bool) {
	if done {
		todo.Props.SetText(ical.PropStatus, todoStatusCompleted)
		todo.Props.SetDateTime(ical.PropCompleted, time.Now().UTC())
		setIntProp(todo.Props, ical.PropPercentComplete, 100)
		return
	}
	todo.Props.SetText(ical.PropStatus, todoStatusNeedsAction)
	delete(todo.Props, ical.PropCompleted)
	delete(todo.Props, ical.PropPercentComplete)
}
