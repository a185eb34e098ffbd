// internal/domain/event.go
package domain

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// EventType is the discriminator carried in the "type" field of a scope.
type EventType string

const (
	EventTypeOnDuty  EventType = "staff.onduty"
	EventTypeOffDuty EventType = "staff.offduty"
	EventTypeOrder   EventType = "order"
)

// Event is one of OnDuty, OffDuty or Order.
type Event interface {
	Type() EventType
	isEvent()
}

// OnDuty announces a staff member ready to take orders.
type OnDuty struct {
	ID         StaffID
	Speciality CapabilitySet
}

// OffDuty announces a staff member leaving.
type OffDuty struct {
	ID StaffID
}

// Order requests one unit of work from a staff member with the given speciality.
type Order struct {
	Speciality Capability
}

func (OnDuty) Type() EventType  { return EventTypeOnDuty }
func (OffDuty) Type() EventType { return EventTypeOffDuty }
func (Order) Type() EventType   { return EventTypeOrder }

func (OnDuty) isEvent()  {}
func (OffDuty) isEvent() {}
func (Order) isEvent()   {}

type onDutyScope struct {
	ID         string   `validate:"required"`
	Speciality []string `validate:"required,min=1,dive,required"`
}

type offDutyScope struct {
	ID string `validate:"required"`
}

type orderScope struct {
	Speciality string `validate:"required"`
}

var validate = validator.New()

// ParseEvent converts a transport scope into an Event.
func ParseEvent(scope map[string]any) (Event, error) {
	typ, _ := scope["type"].(string)

	switch EventType(typ) {
	case EventTypeOnDuty:
		s := onDutyScope{ID: scalarString(scope["id"]), Speciality: stringList(scope["speciality"])}
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, typ, err)
		}
		return OnDuty{ID: StaffID(s.ID), Speciality: NewCapabilitySet(s.Speciality...)}, nil
	case EventTypeOffDuty:
		s := offDutyScope{ID: scalarString(scope["id"])}
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, typ, err)
		}
		return OffDuty{ID: StaffID(s.ID)}, nil
	case EventTypeOrder:
		s := orderScope{Speciality: scalarString(scope["speciality"])}
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, typ, err)
		}
		return Order{Speciality: Capability(s.Speciality)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, typ)
	}
}

// Scope renders an event back into the mapping form used on the wire. The
// result only holds types accepted by structpb.NewStruct.
func Scope(ev Event) map[string]any {
	switch e := ev.(type) {
	case OnDuty:
		tags := make([]any, 0, len(e.Speciality))
		for _, s := range e.Speciality.Strings() {
			tags = append(tags, s)
		}
		return map[string]any{
			"type":       string(EventTypeOnDuty),
			"id":         string(e.ID),
			"speciality": tags,
		}
	case OffDuty:
		return map[string]any{"type": string(EventTypeOffDuty), "id": string(e.ID)}
	case Order:
		return map[string]any{"type": string(EventTypeOrder), "speciality": string(e.Speciality)}
	}
	return nil
}

// scalarString accepts strings and the numeric forms produced by JSON and
// structpb decoding, so `"id": 7` and `"id": "7"` name the same staff member.
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

func stringList(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, scalarString(item))
		}
		return out
	}
	return nil
}
