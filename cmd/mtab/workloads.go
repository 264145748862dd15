package main

import (
	"fmt"

	"github.com/TimothyDespair/mercury/engine"
	"github.com/TimothyDespair/mercury/manifest"
)

// demoEdges is the cyclic graph the reachability workload walks. The cycle
// a -> b -> c -> a is the interesting part: it forces consumer suspension
// and SCC completion instead of plain recursion.
var demoEdges = map[string][]string{
	"a": {"b"},
	"b": {"c", "d"},
	"c": {"a"},
	"d": {"e"},
}

// register declares one tabled procedure, applying any manifest override.
// The workloads here are transformed for a specific evaluation method, so
// an override that changes the method is rejected rather than ignored.
func register(store *engine.TableStore, mf *manifest.Manifest, id engine.ProcID,
	method engine.EvalMethod, inputs, outputs []engine.ArgDesc) (*engine.ProcTable, error) {

	effective := mf.MethodFor(id, method)
	if effective != method {
		return nil, fmt.Errorf("%s is transformed for %s; manifest override to %s is not runnable",
			id, method, effective)
	}
	return store.Register(id, effective, inputs, outputs)
}

// runFib evaluates memoized fibonacci of n and returns the result.
func runFib(store *engine.TableStore, mf *manifest.Manifest, n int64) (int64, error) {
	p, err := register(store, mf,
		engine.ProcID{Name: "fib", Arity: 2, Kind: engine.KindFunction},
		engine.EvalMemoDet,
		[]engine.ArgDesc{{Cat: engine.CatInt}}, []engine.ArgDesc{{Cat: engine.CatInt}})
	if err != nil {
		return 0, err
	}
	return fib(p, n), nil
}

func fib(p *engine.ProcTable, n int64) int64 {
	e := p.LookupInsert([]engine.Value{engine.FromInt(n)})
	switch engine.TableMemoDetSetup(e) {
	case engine.MemoSucceeded:
		return engine.TableRestoreIntAnswer(engine.TableMemoGetAnswer(e), 0)
	case engine.MemoFirstCall:
		var f int64
		if n < 2 {
			f = n
		} else {
			f = fib(p, n-1) + fib(p, n-2)
		}
		engine.TableMemoSaveAnswer(e, []engine.Value{engine.FromInt(f)})
		return f
	}
	panic("unreachable")
}

// runReach evaluates minimal-model reachability from the given node over
// demoEdges and returns every reachable node in answer creation order.
func runReach(store *engine.TableStore, mf *manifest.Manifest, from string) ([]string, error) {
	p, err := register(store, mf,
		engine.ProcID{Name: "reach", Arity: 2, Kind: engine.KindPredicate},
		engine.EvalMinimalModel,
		[]engine.ArgDesc{{Cat: engine.CatString}}, []engine.ArgDesc{{Cat: engine.CatString}})
	if err != nil {
		return nil, err
	}

	m := engine.NewMachine(store)
	var got []string
	m.Solve(func(m *engine.Machine) engine.Outcome {
		return reach(m, p, from, func(m *engine.Machine, b *engine.AnswerBlock) engine.Outcome {
			got = append(got, engine.TableRestoreStringAnswer(b, 0))
			return engine.Fail
		})
	})
	return got, nil
}

func reach(m *engine.Machine, p *engine.ProcTable, x string,
	k func(m *engine.Machine, b *engine.AnswerBlock) engine.Outcome) engine.Outcome {

	e := p.LookupInsert([]engine.Value{engine.FromString(x)})
	switch m.TableMMSetup(e) {
	case engine.MMComplete:
		return m.TableMMReturnAllAnswers(e, k)
	case engine.MMActive:
		return m.TableMMSuspendConsumer(e, k)
	}

	// reach(X, Y) :- edge(X, Y) ; reach(X, Z), edge(Z, Y).
	body := func(m *engine.Machine) engine.Outcome {
		return m.Disj(
			func(m *engine.Machine) engine.Outcome {
				for _, y := range demoEdges[x] {
					m.TableMMSaveAnswer(e, []engine.Value{engine.FromString(y)})
				}
				return engine.Fail
			},
			func(m *engine.Machine) engine.Outcome {
				return reach(m, p, x, func(m *engine.Machine, b *engine.AnswerBlock) engine.Outcome {
					z := engine.TableRestoreStringAnswer(b, 0)
					for _, y := range demoEdges[z] {
						m.TableMMSaveAnswer(e, []engine.Value{engine.FromString(y)})
					}
					return engine.Fail
				})
			},
		)
	}
	m.RunGoal(body)
	return m.TableMMCompletion(e, k)
}
