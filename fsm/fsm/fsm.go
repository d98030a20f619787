package fsm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//
//  machine := fsm.MustNewFSM(name, initialState, events, callbacks)
//  if err := machine.Restore(storedState); err != nil {
//     return err
//  }
//
//  resp, err := machine.Do(event, args...)
//

var (
	// ErrInvalidTransition is returned when the event has no transition from
	// the current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInternalEvent is returned when an internal event is emitted with Do.
	ErrInternalEvent = errors.New("event is internal")

	// ErrUnknownState is returned when a machine is restored into a state it
	// does not declare.
	ErrUnknownState = errors.New("unknown state")
)

type State string

func (s State) String() string {
	return string(s)
}

type Event string

func (e Event) String() string {
	return string(e)
}

func (e Event) IsEmpty() bool {
	return e == ""
}

// Response returns result for processing with events
type Response struct {
	// Returns machine execution result state
	State State
	// Must be cast, according to mapper event_name->response_type
	Data interface{}
}

type FSM struct {
	name         string
	initialState State
	currentState State

	transitions map[trKey]*trEvent

	callbacks Callbacks

	// States that are not a source of any transition.
	finStates map[State]bool
	allStates map[State]bool

	// stateMu guards access to the currentState state.
	stateMu sync.RWMutex
}

// Transition key source + event
type trKey struct {
	source State
	event  Event
}

type trEvent struct {
	event      Event
	dstState   State
	isInternal bool
}

type EventDesc struct {
	Name Event

	SrcState []State

	DstState State

	// Internal events, cannot be emitted from external call
	IsInternal bool
}

// Callback runs before the transition. Returning an error keeps the machine
// in its current state.
type Callback func(event Event, args ...interface{}) (Event, interface{}, error)

type Callbacks map[Event]Callback

func MustNewFSM(machineName string, initialState State, events []EventDesc, callbacks Callbacks) *FSM {
	machineName = strings.TrimSpace(machineName)
	initialState = State(strings.TrimSpace(initialState.String()))

	if machineName == "" {
		panic("machine name cannot be empty")
	}

	if initialState == "" {
		panic("initial state state cannot be empty")
	}

	if len(events) == 0 {
		panic("cannot init fsm with empty events")
	}

	f := &FSM{
		name:         machineName,
		currentState: initialState,
		initialState: initialState,
		transitions:  make(map[trKey]*trEvent),
		finStates:    make(map[State]bool),
		allStates:    map[State]bool{initialState: true},
		callbacks:    make(Callbacks),
	}

	allEvents := make(map[Event]bool)
	allSources := make(map[State]bool)

	for _, event := range events {
		event.Name = Event(strings.TrimSpace(event.Name.String()))
		event.DstState = State(strings.TrimSpace(event.DstState.String()))

		if event.Name == "" {
			panic("cannot init empty event")
		}

		if event.DstState == "" {
			panic("event dest cannot be empty")
		}

		if _, ok := allEvents[event.Name]; ok {
			panic(fmt.Sprintf("duplicate event \"%s\"", event.Name))
		}

		allEvents[event.Name] = true
		f.allStates[event.DstState] = true

		sources := 0
		for _, sourceState := range event.SrcState {
			sourceState = State(strings.TrimSpace(sourceState.String()))
			if sourceState == "" {
				continue
			}

			tKey := trKey{sourceState, event.Name}
			if _, ok := f.transitions[tKey]; ok {
				panic("duplicate dst for pair `source + event`")
			}

			f.transitions[tKey] = &trEvent{
				event:      event.Name,
				dstState:   event.DstState,
				isInternal: event.IsInternal,
			}
			allSources[sourceState] = true
			f.allStates[sourceState] = true
			sources++
		}

		if sources == 0 {
			panic("event must have minimum one source available state")
		}
	}

	if len(f.allStates) < 2 {
		panic("machine must contain at least two states")
	}

	for event, callback := range callbacks {
		if _, ok := allEvents[event]; !ok {
			panic(fmt.Sprintf("callback for unknown event \"%s\"", event))
		}
		f.callbacks[event] = callback
	}

	for state := range f.allStates {
		if !allSources[state] {
			f.finStates[state] = true
		}
	}

	if len(f.finStates) == 0 {
		panic("cannot initialize machine without final states")
	}

	return f
}

// Restore moves the machine into a previously persisted state without
// running callbacks.
func (f *FSM) Restore(state State) error {
	if !f.allStates[state] {
		return fmt.Errorf("%w \"%s\" for machine \"%s\"", ErrUnknownState, state, f.name)
	}
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.currentState = state
	return nil
}

func (f *FSM) Do(event Event, args ...interface{}) (*Response, error) {
	trEvent, err := f.transition(event)
	if err != nil {
		return nil, err
	}
	if trEvent.isInternal {
		return nil, fmt.Errorf("%w: \"%s\"", ErrInternalEvent, event)
	}
	return f.do(trEvent, args...)
}

func (f *FSM) DoInternal(event Event, args ...interface{}) (*Response, error) {
	trEvent, err := f.transition(event)
	if err != nil {
		return nil, err
	}
	return f.do(trEvent, args...)
}

// Can reports whether event has a transition from the current state.
func (f *FSM) Can(event Event) bool {
	_, err := f.transition(event)
	return err == nil
}

func (f *FSM) transition(event Event) (*trEvent, error) {
	state := f.State()
	trEvent, ok := f.transitions[trKey{state, event}]
	if !ok {
		return nil, fmt.Errorf("%w: cannot execute event \"%s\" for state \"%s\"", ErrInvalidTransition, event, state)
	}
	return trEvent, nil
}

func (f *FSM) do(trEvent *trEvent, args ...interface{}) (*Response, error) {
	var (
		outEvent Event
		err      error
	)
	resp := &Response{
		State: f.State(),
	}

	if callback, ok := f.callbacks[trEvent.event]; ok {
		outEvent, resp.Data, err = callback(trEvent.event, args...)
		// Do not try change state on error
		if err != nil {
			return resp, err
		}
	}

	dst := trEvent.dstState
	if !outEvent.IsEmpty() && outEvent != trEvent.event {
		redirect, err := f.transition(outEvent)
		if err != nil {
			return resp, err
		}
		dst = redirect.dstState
	}

	f.stateMu.Lock()
	f.currentState = dst
	f.stateMu.Unlock()

	resp.State = dst
	return resp, nil
}

// State returns the current state of the FSM.
func (f *FSM) State() State {
	f.stateMu.RLock()
	defer f.stateMu.RUnlock()
	return f.currentState
}

func (f *FSM) Name() string {
	return f.name
}

func (f *FSM) InitialState() State {
	return f.initialState
}

func (f *FSM) IsFinState(state State) bool {
	return f.finStates[state]
}

// EventsList returns the external events of the machine, sorted.
func (f *FSM) EventsList() []Event {
	seen := make(map[Event]bool)
	var events []Event
	for _, tr := range f.transitions {
		if tr.isInternal || seen[tr.event] {
			continue
		}
		seen[tr.event] = true
		events = append(events, tr.event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}
