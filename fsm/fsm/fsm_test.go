package fsm

import (
	"errors"
	"testing"
)

const (
	testName = "fsm_test"

	stateInit     = State("state_init")
	stateStage1   = State("state_stage1")
	stateDone     = State("state_done")
	stateCanceled = State("state_canceled")

	eventInit     = Event("event_init")
	eventProcess  = Event("event_process")
	eventCancel   = Event("event_cancel")
	eventInternal = Event("event_internal")
)

func newTestingFSM(callbacks Callbacks) *FSM {
	return MustNewFSM(
		testName,
		stateInit,
		[]EventDesc{
			{Name: eventInit, SrcState: []State{stateInit}, DstState: stateStage1},
			{Name: eventProcess, SrcState: []State{stateStage1}, DstState: stateDone},
			{Name: eventCancel, SrcState: []State{stateStage1}, DstState: stateCanceled},
			{Name: eventInternal, SrcState: []State{stateStage1}, DstState: stateCanceled, IsInternal: true},
		},
		callbacks,
	)
}

func compareRecoverStr(t *testing.T, r interface{}, assertion string) {
	if r == nil {
		t.Error("expected panic:", assertion)
		return
	}
	msg, ok := r.(string)
	if !ok {
		t.Error("not asserted recover:", r)
	}
	if msg != assertion {
		t.Error("not asserted recover:", msg)
	}
}

func TestMustNewFSM_Empty_Name_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "machine name cannot be empty")
	}()
	MustNewFSM("", "init_state", []EventDesc{}, nil)
}

func TestMustNewFSM_Empty_Initial_State_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "initial state state cannot be empty")
	}()
	MustNewFSM("fsm", "", []EventDesc{}, nil)
}

func TestMustNewFSM_Empty_Events_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "cannot init fsm with empty events")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{}, nil)
}

func TestMustNewFSM_Event_Empty_Source_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "event must have minimum one source available state")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "event", SrcState: []State{" "}, DstState: "done"},
	}, nil)
}

func TestMustNewFSM_Duplicate_Transition_Panic(t *testing.T) {
	defer func() {
		compareRecoverStr(t, recover(), "duplicate event \"event\"")
	}()
	MustNewFSM("fsm", "init_state", []EventDesc{
		{Name: "event", SrcState: []State{"init_state"}, DstState: "done"},
		{Name: "event", SrcState: []State{"init_state"}, DstState: "other"},
	}, nil)
}

func TestFSM_Do(t *testing.T) {
	machine := newTestingFSM(nil)

	resp, err := machine.Do(eventInit)
	if err != nil {
		t.Fatal(err)
	}
	if resp.State != stateStage1 || machine.State() != stateStage1 {
		t.Errorf("expected state %s, got %s", stateStage1, machine.State())
	}

	if _, err = machine.Do(eventProcess); err != nil {
		t.Fatal(err)
	}
	if !machine.IsFinState(machine.State()) {
		t.Errorf("state %s must be final", machine.State())
	}

	_, err = machine.Do(eventCancel)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if machine.State() != stateDone {
		t.Errorf("failed transition changed the state to %s", machine.State())
	}
}

func TestFSM_Do_Internal(t *testing.T) {
	machine := newTestingFSM(nil)
	if err := machine.Restore(stateStage1); err != nil {
		t.Fatal(err)
	}

	if _, err := machine.Do(eventInternal); !errors.Is(err, ErrInternalEvent) {
		t.Errorf("expected ErrInternalEvent, got %v", err)
	}
	if _, err := machine.DoInternal(eventInternal); err != nil {
		t.Fatal(err)
	}
	if machine.State() != stateCanceled {
		t.Errorf("expected state %s, got %s", stateCanceled, machine.State())
	}
}

func TestFSM_Callback_Error_Keeps_State(t *testing.T) {
	failure := errors.New("callback failed")
	machine := newTestingFSM(Callbacks{
		eventInit: func(event Event, args ...interface{}) (Event, interface{}, error) {
			return event, nil, failure
		},
	})

	if _, err := machine.Do(eventInit); !errors.Is(err, failure) {
		t.Errorf("expected callback error, got %v", err)
	}
	if machine.State() != stateInit {
		t.Errorf("state changed to %s after failed callback", machine.State())
	}
}

func TestFSM_Callback_Redirect(t *testing.T) {
	machine := newTestingFSM(Callbacks{
		eventProcess: func(event Event, args ...interface{}) (Event, interface{}, error) {
			return eventCancel, args[0], nil
		},
	})
	if err := machine.Restore(stateStage1); err != nil {
		t.Fatal(err)
	}

	resp, err := machine.Do(eventProcess, "payload")
	if err != nil {
		t.Fatal(err)
	}
	if resp.State != stateCanceled {
		t.Errorf("expected redirect to %s, got %s", stateCanceled, resp.State)
	}
	if resp.Data != "payload" {
		t.Errorf("unexpected callback data %v", resp.Data)
	}
}

func TestFSM_Restore_Unknown_State(t *testing.T) {
	machine := newTestingFSM(nil)
	if err := machine.Restore("state_unknown"); !errors.Is(err, ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}
}

func TestFSM_EventsList(t *testing.T) {
	machine := newTestingFSM(nil)
	events := machine.EventsList()
	expected := []Event{eventCancel, eventInit, eventProcess}
	if len(events) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("expected %v, got %v", expected, events)
		}
	}
}
