package engine

import (
	"reflect"
	"testing"
	"time"
)

// reachCall is the transformed skeleton of a minimal-model tabled
// reach(X, Y): Y is reachable from X over edges. The body is
// reach(X, Y) :- edge(X, Y) ; reach(X, Z), edge(Z, Y).
func reachCall(m *Machine, p *ProcTable, edges map[string][]string, x string,
	k func(m *Machine, b *AnswerBlock) Outcome) Outcome {

	e := p.LookupInsert([]Value{FromString(x)})
	switch m.TableMMSetup(e) {
	case MMComplete:
		return m.TableMMReturnAllAnswers(e, k)
	case MMActive:
		return m.TableMMSuspendConsumer(e, k)
	}

	body := func(m *Machine) Outcome {
		return m.Disj(
			func(m *Machine) Outcome {
				for _, y := range edges[x] {
					m.TableMMSaveAnswer(e, []Value{FromString(y)})
				}
				return Fail
			},
			func(m *Machine) Outcome {
				return reachCall(m, p, edges, x, func(m *Machine, b *AnswerBlock) Outcome {
					z := TableRestoreStringAnswer(b, 0)
					for _, y := range edges[z] {
						m.TableMMSaveAnswer(e, []Value{FromString(y)})
					}
					return Fail
				})
			},
		)
	}
	m.RunGoal(body)
	return m.TableMMCompletion(e, k)
}

func reachProc(t *testing.T, store *TableStore) *ProcTable {
	t.Helper()
	return testProc(t, store, "reach", EvalMinimalModel,
		[]ArgDesc{{Cat: CatString}}, []ArgDesc{{Cat: CatString}})
}

func collectReach(m *Machine, p *ProcTable, edges map[string][]string, x string) []string {
	var got []string
	m.Solve(func(m *Machine) Outcome {
		return reachCall(m, p, edges, x, func(m *Machine, b *AnswerBlock) Outcome {
			got = append(got, TableRestoreStringAnswer(b, 0))
			return Fail
		})
	})
	return got
}

func TestMinimalModelCyclicReachability(t *testing.T) {
	// a -> b -> c -> a, plus b -> d. The self-recursive call inside the
	// generator suspends rather than erroring, and completion feeds it
	// every answer exactly once.
	edges := map[string][]string{
		"a": {"b"},
		"b": {"c", "d"},
		"c": {"a"},
	}
	store := NewTableStore()
	p := reachProc(t, store)
	m := NewMachine(store)

	got := collectReach(m, p, edges, "a")
	want := []string{"b", "c", "d", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reach(a) = %v, want %v (creation order)", got, want)
	}

	e := p.LookupInsert([]Value{FromString("a")})
	if e.Status() != StatusComplete {
		t.Errorf("entry status = %s, want complete", e.Status())
	}
	if e.Suspensions() != nil {
		t.Error("suspensions not discarded after completion")
	}

	stats := store.Stats()
	if stats.Suspensions == 0 {
		t.Error("cyclic evaluation created no suspension")
	}
	if stats.Completions != 1 {
		t.Errorf("completions = %d, want 1", stats.Completions)
	}
}

func TestMinimalModelSecondConsumerReplays(t *testing.T) {
	edges := map[string][]string{"a": {"b"}, "b": {"a"}}
	store := NewTableStore()
	p := reachProc(t, store)

	first := collectReach(NewMachine(store), p, edges, "a")
	answersBefore := store.Stats().Answers

	// A consumer attaching after completion replays the same answers in
	// the same order without recomputation.
	second := collectReach(NewMachine(store), p, edges, "a")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replay %v differs from original %v", second, first)
	}
	if store.Stats().Answers != answersBefore {
		t.Error("replay recorded new answers")
	}
}

func TestMinimalModelDeliversEachAnswerOnce(t *testing.T) {
	edges := map[string][]string{
		"a": {"b", "c"},
		"b": {"a", "c"},
		"c": {"b"},
	}
	store := NewTableStore()
	p := reachProc(t, store)

	got := collectReach(NewMachine(store), p, edges, "a")
	seen := make(map[string]int)
	for _, s := range got {
		seen[s]++
	}
	for s, n := range seen {
		if n != 1 {
			t.Errorf("answer %q delivered %d times", s, n)
		}
	}
	for _, s := range []string{"a", "b", "c"} {
		if seen[s] == 0 {
			t.Errorf("answer %q omitted", s)
		}
	}
}

// mutualCall builds two minimal-model procedures whose generators consume
// each other: p derives "x" plus everything q derives, q derives "y" plus
// everything p derives. The fixpoint of both is {x, y}, and computing it
// exercises leader merging and deferred completion of the follower.
func mutualCall(m *Machine, self, other *ProcTable, seed string,
	rec func(m *Machine, k func(*Machine, *AnswerBlock) Outcome) Outcome,
	k func(m *Machine, b *AnswerBlock) Outcome) Outcome {

	e := self.LookupInsert([]Value{FromInt(0)})
	switch m.TableMMSetup(e) {
	case MMComplete:
		return m.TableMMReturnAllAnswers(e, k)
	case MMActive:
		return m.TableMMSuspendConsumer(e, k)
	}
	body := func(m *Machine) Outcome {
		return m.Disj(
			func(m *Machine) Outcome {
				m.TableMMSaveAnswer(e, []Value{FromString(seed)})
				return Fail
			},
			func(m *Machine) Outcome {
				return rec(m, func(m *Machine, b *AnswerBlock) Outcome {
					m.TableMMSaveAnswer(e, []Value{FromString(TableRestoreStringAnswer(b, 0))})
					return Fail
				})
			},
		)
	}
	m.RunGoal(body)
	return m.TableMMCompletion(e, k)
}

func TestMinimalModelMutualRecursionSCC(t *testing.T) {
	store := NewTableStore()
	pp := testProc(t, store, "p", EvalMinimalModel,
		[]ArgDesc{{Cat: CatInt}}, []ArgDesc{{Cat: CatString}})
	qq := testProc(t, store, "q", EvalMinimalModel,
		[]ArgDesc{{Cat: CatInt}}, []ArgDesc{{Cat: CatString}})

	var pCall, qCall func(m *Machine, k func(*Machine, *AnswerBlock) Outcome) Outcome
	pCall = func(m *Machine, k func(*Machine, *AnswerBlock) Outcome) Outcome {
		return mutualCall(m, pp, qq, "x", func(m *Machine, k2 func(*Machine, *AnswerBlock) Outcome) Outcome {
			return qCall(m, k2)
		}, k)
	}
	qCall = func(m *Machine, k func(*Machine, *AnswerBlock) Outcome) Outcome {
		return mutualCall(m, qq, pp, "y", func(m *Machine, k2 func(*Machine, *AnswerBlock) Outcome) Outcome {
			return pCall(m, k2)
		}, k)
	}

	m := NewMachine(store)
	var got []string
	m.Solve(func(m *Machine) Outcome {
		return pCall(m, func(m *Machine, b *AnswerBlock) Outcome {
			got = append(got, TableRestoreStringAnswer(b, 0))
			return Fail
		})
	})

	if want := []string{"x", "y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("p answers = %v, want %v", got, want)
	}

	// Both entries were completed together, by the one leader.
	pe := pp.LookupInsert([]Value{FromInt(0)})
	qe := qq.LookupInsert([]Value{FromInt(0)})
	if pe.Status() != StatusComplete || qe.Status() != StatusComplete {
		t.Errorf("statuses p=%s q=%s, want complete/complete", pe.Status(), qe.Status())
	}
	if store.Stats().Completions != 1 {
		t.Errorf("completions = %d, want 1 (single SCC)", store.Stats().Completions)
	}

	// q's own answer set, replayed: its seed first, then what it drew
	// from p.
	var qGot []string
	NewMachine(store).Solve(func(m *Machine) Outcome {
		return qCall(m, func(m *Machine, b *AnswerBlock) Outcome {
			qGot = append(qGot, TableRestoreStringAnswer(b, 0))
			return Fail
		})
	})
	if want := []string{"y", "x"}; !reflect.DeepEqual(qGot, want) {
		t.Errorf("q answers = %v, want %v", qGot, want)
	}
}

func TestMinimalModelZeroOutput(t *testing.T) {
	store := NewTableStore()
	p := testProc(t, store, "reachable", EvalMinimalModel,
		[]ArgDesc{{Cat: CatString}}, nil)
	m := NewMachine(store)

	call := func(m *Machine, x string, succeed bool, k func(*Machine, *AnswerBlock) Outcome) Outcome {
		e := p.LookupInsert([]Value{FromString(x)})
		switch m.TableMMSetup(e) {
		case MMComplete:
			return m.TableMMReturnAllAnswers(e, k)
		case MMActive:
			return m.TableMMSuspendConsumer(e, k)
		}
		body := func(m *Machine) Outcome {
			if succeed {
				m.TableMMSaveAnswer(e, nil)
			}
			return Fail
		}
		m.RunGoal(body)
		return m.TableMMCompletion(e, k)
	}

	hits := 0
	m.Solve(func(m *Machine) Outcome {
		return call(m, "yes", true, func(m *Machine, b *AnswerBlock) Outcome {
			if b != nil {
				t.Error("zero-output success delivered a block")
			}
			hits++
			return Fail
		})
	})
	if hits != 1 {
		t.Errorf("zero-output success delivered %d times, want 1", hits)
	}

	ok := NewMachine(store).Solve(func(m *Machine) Outcome {
		return call(m, "no", false, func(m *Machine, b *AnswerBlock) Outcome {
			return Stop
		})
	})
	if ok {
		t.Error("failed zero-output goal succeeded")
	}
	e := p.LookupInsert([]Value{FromString("no")})
	if e.Status() != StatusComplete || e.Succeeded() {
		t.Errorf("failed entry: status=%s succeeded=%v", e.Status(), e.Succeeded())
	}
}

func TestMinimalModelForeignConsumerWaitsForCompletion(t *testing.T) {
	store := NewTableStore()
	p := reachProc(t, store)

	active := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	// The generator runs on its own machine: it records one answer, holds
	// the entry active until released, records a second, then completes.
	go func() {
		defer close(done)
		m := NewMachine(store)
		m.Solve(func(m *Machine) Outcome {
			e := p.LookupInsert([]Value{FromString("a")})
			if m.TableMMSetup(e) != MMFirstCall {
				t.Error("generator machine did not get the first call")
				return Fail
			}
			m.RunGoal(func(m *Machine) Outcome {
				m.TableMMSaveAnswer(e, []Value{FromString("b")})
				close(active)
				<-release
				m.TableMMSaveAnswer(e, []Value{FromString("c")})
				return Fail
			})
			return m.TableMMCompletion(e, func(m *Machine, b *AnswerBlock) Outcome {
				return Fail
			})
		})
	}()

	<-active

	// The entry is observable from another goroutine while the generator
	// is mid-run.
	e := p.LookupInsert([]Value{FromString("a")})
	if e.Status() != StatusActive {
		t.Fatalf("entry status = %s, want active", e.Status())
	}
	if info := e.Info(); info.Answers != 1 {
		t.Errorf("mid-run answers = %d, want 1", info.Answers)
	}

	// Release the generator shortly after this machine has parked itself
	// waiting for the entry to settle; the consumer then sees the completed
	// table and replays it in creation order.
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	got := collectReach(NewMachine(store), p, nil, "a")
	<-done

	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("foreign consumer got %v, want %v", got, want)
	}
	if e.Status() != StatusComplete {
		t.Errorf("entry status = %s, want complete", e.Status())
	}
	if store.Stats().Completions != 1 {
		t.Errorf("completions = %d, want 1", store.Stats().Completions)
	}
}
