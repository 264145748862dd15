package engine

import (
	"reflect"
	"testing"
)

func TestDisjBacktracksInOrder(t *testing.T) {
	m := NewMachine(NewTableStore())

	var visited []string
	branch := func(name string, out Outcome) Cont {
		return func(m *Machine) Outcome {
			visited = append(visited, name)
			return out
		}
	}

	ok := m.Solve(func(m *Machine) Outcome {
		return m.Disj(
			branch("a", Fail),
			branch("b", Fail),
			branch("c", Stop),
			branch("d", Fail),
		)
	})
	if !ok {
		t.Fatal("Solve found no solution")
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(visited, want) {
		t.Errorf("visited %v, want %v", visited, want)
	}
}

func TestNestedDisjExhaustsDepthFirst(t *testing.T) {
	m := NewMachine(NewTableStore())

	var pairs [][2]string
	outer := []string{"x", "y"}
	inner := []string{"1", "2"}

	m.Solve(func(m *Machine) Outcome {
		alts := make([]Cont, len(outer))
		for _, o := range outer {
			o := o
			alts2 := make([]Cont, len(inner))
			for j, i := range inner {
				i := i
				alts2[j] = func(m *Machine) Outcome {
					pairs = append(pairs, [2]string{o, i})
					return Fail
				}
			}
			alts[indexOf(outer, o)] = func(m *Machine) Outcome {
				return m.Disj(alts2...)
			}
		}
		return m.Disj(alts...)
	})

	want := [][2]string{{"x", "1"}, {"x", "2"}, {"y", "1"}, {"y", "2"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("enumeration order %v, want %v", pairs, want)
	}
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

func TestFrameLocalsRestoredOnBacktrack(t *testing.T) {
	m := NewMachine(NewTableStore())

	var seen []int64
	m.Solve(func(m *Machine) Outcome {
		m.PushFrame(1)
		m.SetLocal(0, FromInt(1))
		return m.Disj(
			func(m *Machine) Outcome {
				// Grow the det stack on this branch, then fail: the
				// alternative must resume at the choice point's height.
				m.PushFrame(2)
				m.SetLocal(0, FromInt(100))
				seen = append(seen, m.Local(0).Int())
				return Fail
			},
			func(m *Machine) Outcome {
				seen = append(seen, m.Local(0).Int())
				return Fail
			},
		)
	})

	if want := []int64{100, 1}; !reflect.DeepEqual(seen, want) {
		t.Errorf("locals across backtracking = %v, want %v", seen, want)
	}
}

func TestSolveResetsStacks(t *testing.T) {
	m := NewMachine(NewTableStore())
	m.Solve(func(m *Machine) Outcome {
		m.PushFrame(3)
		m.PushChoice(func(m *Machine) Outcome { return Fail })
		return Stop
	})
	if len(m.det) != 0 || len(m.frames) != 0 || len(m.cps) != 0 {
		t.Errorf("stacks not reset: det=%d frames=%d cps=%d",
			len(m.det), len(m.frames), len(m.cps))
	}
}
