package pipeline

import (
	"testing"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/pad"
)

func TestApplyRunsEnabledStagesInOrder(t *testing.T) {
	var p Pipeline
	var order []string

	p.AddStage(Stage{Name: "a", Func: func(s *pad.State) { order = append(order, "a") }})
	p.AddStage(Stage{Name: "b", Func: func(s *pad.State) { order = append(order, "b") }})
	p.AddStage(Stage{Name: "c", Func: func(s *pad.State) { order = append(order, "c") }})

	var state pad.State
	p.Apply(&state)

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected stages in insertion order, got %v", order)
	}
}

func TestSetEnabledSkipsDisabledStage(t *testing.T) {
	var p Pipeline
	ran := false
	p.AddStage(Stage{Name: "only", Func: func(s *pad.State) { ran = true }})
	p.SetEnabled(0, false)

	var state pad.State
	p.Apply(&state)

	if ran {
		t.Fatalf("disabled stage should not run")
	}
	if p.IsEnabled(0) {
		t.Fatalf("IsEnabled should report false after SetEnabled(false)")
	}
}

func TestAddStageRespectsCapacity(t *testing.T) {
	var p Pipeline
	for i := 0; i < MaxStages; i++ {
		if !p.AddStage(Stage{Name: "s", Func: func(s *pad.State) {}}) {
			t.Fatalf("AddStage %d should have succeeded within capacity", i)
		}
	}
	if p.AddStage(Stage{Name: "overflow", Func: func(s *pad.State) {}}) {
		t.Fatalf("AddStage beyond MaxStages should fail")
	}
	if p.Len() != MaxStages {
		t.Fatalf("expected Len()=%d, got %d", MaxStages, p.Len())
	}
}

func TestMutatesStateInPlace(t *testing.T) {
	var p Pipeline
	p.AddStage(Stage{Name: "set-x", Func: func(s *pad.State) { s.Input.Analog.StickX = 0x42 }})

	var state pad.State
	p.Apply(&state)

	if state.Input.Analog.StickX != 0x42 {
		t.Fatalf("expected stage mutation to land, got 0x%02x", state.Input.Analog.StickX)
	}
}
