package engine

import "sync"

// ---------------------------------------------------------------------------
// Minimal-model evaluation: generators, consumers, suspension, completion
// ---------------------------------------------------------------------------
//
// A minimal-model entry is driven by the first call that reaches it: that
// call becomes the generator, runs the original goal to exhaustion, and
// saves every distinct answer. A later call that arrives while the
// generator is still active is a consumer: instead of erroring (the
// loopcheck/memo policy) it parks a Suspension and fails, letting the
// generator keep exploring its other branches. When the oldest generator of
// a strongly connected group of mutually suspended generators exhausts its
// alternatives, completion runs: parked consumers are fed answers until no
// suspension has anything pending (the fixpoint), the whole group is marked
// complete, and every suspension has by then been resumed exactly once per
// pending answer.
//
// Completion is local to one strongly connected group. This is SLGd, not
// full well-founded semantics: a cyclic group that can never make progress
// is not detected globally, a documented limitation of the design.

// generator is the in-progress state of the first call on a minimal-model
// entry. It lives on its machine's generator stack until its SCC completes.
type generator struct {
	entry   *TableEntry
	machine *Machine
	depth   int // index in machine.gens

	// leader is the oldest generator of this generator's SCC; followers is
	// maintained on the leader only.
	leader    *generator
	followers []*generator

	// susps are the consumers parked on this generator. mu guards the slice
	// header against introspection from other machines; only the owning
	// machine mutates it.
	mu    sync.Mutex
	susps []*Suspension
}

func (g *generator) park(s *Suspension) {
	g.mu.Lock()
	g.susps = append(g.susps, s)
	g.mu.Unlock()
}

// Suspension is a parked consumer: the generator it reads from, a cursor
// recording how many answers it has consumed, and the continuation to run
// per answer. Suspensions are created when a consumer finds an active
// generator, and are discarded once the generator's SCC completes and every
// recorded answer has been delivered.
type Suspension struct {
	gen    *generator
	cursor *AnswerCursor
	k      func(m *Machine, b *AnswerBlock) Outcome

	// deliveredEmpty tracks delivery of the blockless success of a
	// zero-output procedure.
	deliveredEmpty bool
}

// Generator returns the entry the suspension is parked on. Introspection
// only.
func (s *Suspension) Generator() *TableEntry { return s.gen.entry }

// Consumed returns how many answers the suspension has consumed.
func (s *Suspension) Consumed() int { return s.cursor.Index() }

// MMStatus is what a minimal-model setup observed.
type MMStatus uint8

const (
	// MMFirstCall: the caller is the generator. It must run the original
	// goal to exhaustion, saving answers, then call TableMMCompletion.
	MMFirstCall MMStatus = iota
	// MMActive: a generator for this entry is running below us. The caller
	// must park itself with TableMMSuspendConsumer.
	MMActive
	// MMComplete: the answer set is exhaustive; replay it with
	// TableMMReturnAllAnswers.
	MMComplete
)

// TableMMSetup inspects and advances the entry's status for a new call.
// A consumer on a foreign machine blocks until the owning machine completes
// the entry, then replays: minimal-model scheduling is local to a machine,
// only settled tables are shared.
func (m *Machine) TableMMSetup(e *TableEntry) MMStatus {
	if e.proc.Method != EvalMinimalModel {
		fatal("%s is tabled as %s, not minimal_model", e.proc.ID, e.proc.Method)
	}
	for {
		switch e.Status() {
		case StatusComplete:
			return MMComplete
		case StatusInactive:
			if !e.status.CompareAndSwap(int32(StatusInactive), int32(StatusActive)) {
				continue
			}
			g := &generator{entry: e, machine: m, depth: len(m.gens)}
			g.leader = g
			e.gen.Store(g)
			m.gens = append(m.gens, g)
			mmLog.Debugf("generator %s(%s) started", e.proc.ID.Name, e.key)
			return MMFirstCall
		case StatusActive:
			if g := e.gen.Load(); g != nil && g.machine == m {
				return MMActive
			}
			// Another machine's generator owns this entry.
			e.WaitSettled()
			return MMComplete
		default:
			fatal("minimal-model entry for %s in state %s", e.proc.ID, e.Status())
		}
	}
}

// TableMMSaveAnswer records one answer produced by the generator's goal.
// Returns false for a duplicate; either way the generator normally fails
// onward to keep searching. For a procedure with no output slots success is
// recorded on the entry itself and no block exists.
func (m *Machine) TableMMSaveAnswer(e *TableEntry, outputs []Value) bool {
	if len(e.proc.Outputs) == 0 {
		if len(outputs) != 0 {
			fatal("%s saved %d outputs but declares none", e.proc.ID, len(outputs))
		}
		if e.succeeded.Swap(true) {
			e.proc.store.duplicates.Add(1)
			return false
		}
		e.proc.store.answers.Add(1)
		return true
	}
	_, fresh := e.AnswerStore().Insert(outputs)
	return fresh
}

// TableMMSuspendConsumer parks the current branch as a consumer of the
// given active generator, then fails so the generator can continue. The
// continuation will be resumed during completion, once per answer, in
// creation order, starting from answer zero.
//
// Suspending also folds every generator younger than the target's leader
// into that leader's SCC: the consumer's own generator now depends on the
// target, so none of them can complete alone.
func (m *Machine) TableMMSuspendConsumer(e *TableEntry, k func(m *Machine, b *AnswerBlock) Outcome) Outcome {
	g := e.gen.Load()
	if g == nil || g.machine != m {
		fatal("suspension on %s with no local generator", e.proc.ID)
	}
	if len(m.gens) == 0 {
		fatal("consumer of %s suspended outside any generator", e.proc.ID)
	}
	lead := g.leader
	for i := lead.depth + 1; i < len(m.gens); i++ {
		gi := m.gens[i]
		if gi.leader != lead {
			gi.leader = lead
			lead.followers = append(lead.followers, gi)
		}
	}
	s := &Suspension{gen: g, cursor: e.AnswerStore().Cursor(0), k: k}
	g.park(s)
	m.store.suspensions.Add(1)
	mmLog.Debugf("consumer suspended on %s(%s)", e.proc.ID.Name, e.key)
	return Fail
}

// TableMMCompletion is called by the generator after its goal is exhausted.
// A generator that is not its own leader cannot complete yet: its caller is
// parked as one more consumer and the branch fails, deferring to the
// leader. The leader runs the completion fixpoint, seals the whole SCC, and
// only then replays its answers to its own caller.
func (m *Machine) TableMMCompletion(e *TableEntry, k func(m *Machine, b *AnswerBlock) Outcome) Outcome {
	g := e.gen.Load()
	if g == nil || g.machine != m {
		fatal("completion of %s with no local generator", e.proc.ID)
	}
	if g.leader != g {
		s := &Suspension{gen: g, cursor: e.AnswerStore().Cursor(0), k: k}
		g.park(s)
		m.store.suspensions.Add(1)
		mmLog.Debugf("generator %s(%s) deferred to leader %s(%s)",
			e.proc.ID.Name, e.key, g.leader.entry.proc.ID.Name, g.leader.entry.key)
		return Fail
	}

	m.completeSCC(g)
	return m.TableMMReturnAllAnswers(e, k)
}

// completeSCC feeds parked consumers until no suspension in the group has a
// pending answer, then marks every member complete. The order in which
// pending suspensions are picked is an implementation detail (registration
// order here); the guarantee is only that each one sees every answer
// exactly once.
func (m *Machine) completeSCC(lead *generator) {
	var members []*generator
	for {
		// Recompute membership each pass: resumptions may merge younger
		// generators into this SCC.
		members = append(members[:0], lead)
		members = append(members, lead.followers...)
		progress := false
		for _, member := range members {
			// Index loop: resumptions may park further suspensions on
			// this member while we iterate.
			for si := 0; si < len(member.susps); si++ {
				s := member.susps[si]
				if len(member.entry.proc.Outputs) == 0 {
					if member.entry.Succeeded() && !s.deliveredEmpty {
						s.deliveredEmpty = true
						progress = true
						m.resume(s, nil)
					}
					continue
				}
				for b := s.cursor.Next(); b != nil; b = s.cursor.Next() {
					progress = true
					m.resume(s, b)
				}
			}
		}
		if !progress {
			break
		}
	}

	for _, member := range members {
		member.entry.markComplete()
		member.entry.gen.Store(nil)
		member.mu.Lock()
		member.susps = nil
		member.mu.Unlock()
		mmLog.Debugf("completed %s(%s) with %d answers",
			member.entry.proc.ID.Name, member.entry.key, member.entry.answerCount())
	}
	lead.followers = nil
	m.gens = m.gens[:lead.depth]
	m.store.completions.Add(1)
}

// resume runs one parked continuation for one answer, driving its local
// backtracking to exhaustion.
func (m *Machine) resume(s *Suspension, b *AnswerBlock) {
	mark := m.cpMark()
	out := m.run(mark, func(m *Machine) Outcome { return s.k(m, b) })
	if out == Stop {
		// A parked consumer chain always ends inside some generator's
		// goal, which fails onward after saving; Stop cannot escape here.
		fatal("suspended consumer of %s accepted a solution during completion", s.gen.entry.proc.ID)
	}
}

// TableMMReturnAllAnswers replays a settled entry's answers to k in
// creation order, one per backtrack, via a choice point on the nondet
// stack. A consumer that attaches after completion and a resumed suspension
// observe identical behavior.
func (m *Machine) TableMMReturnAllAnswers(e *TableEntry, k func(m *Machine, b *AnswerBlock) Outcome) Outcome {
	if len(e.proc.Outputs) == 0 {
		if e.Succeeded() {
			return k(m, nil)
		}
		return Fail
	}
	cursor := e.AnswerStore().Cursor(0)
	var deliver Cont
	deliver = func(m *Machine) Outcome {
		b := cursor.Next()
		if b == nil {
			return Fail
		}
		m.PushChoice(deliver)
		return k(m, b)
	}
	return deliver(m)
}

// answerCount is a diagnostics helper covering the zero-output case.
func (e *TableEntry) answerCount() int {
	if len(e.proc.Outputs) == 0 {
		if e.Succeeded() {
			return 1
		}
		return 0
	}
	as := e.answers.Load()
	if as == nil {
		return 0
	}
	return as.Count()
}
