package engine

// ---------------------------------------------------------------------------
// Machine: dual-stack nondeterministic execution engine
// ---------------------------------------------------------------------------

// Outcome is the result of running a continuation.
type Outcome uint8

const (
	// Fail: the branch (and its local alternatives) is exhausted; the
	// trampoline backtracks to the newest choice point.
	Fail Outcome = iota
	// Stop: a solution was delivered and the caller wants no more.
	Stop
)

// Cont is a resumption point: generated code is written in
// continuation-passing form, and a Cont runs the remainder of a branch.
type Cont func(m *Machine) Outcome

// choicePoint records pending alternatives and the stack heights to restore
// before trying each one.
type choicePoint struct {
	alts      []Cont
	next      int
	detMark   int
	frameMark int
}

// Machine is one engine instance: a deterministic value stack for
// frame-local slots, a choice-point stack for backtracking, and a generator
// stack for in-progress minimal-model evaluations. Machines are cheap;
// independent work runs on independent machines, all sharing one
// TableStore. Backtracking unwinds machine stacks only — table state
// created along an abandoned branch survives.
//
// A Machine is confined to a single goroutine.
type Machine struct {
	store *TableStore

	det    []Value // deterministic stack
	frames []int   // frame base offsets into det
	cps    []*choicePoint
	gens   []*generator
}

// NewMachine creates a machine over the given shared store.
func NewMachine(store *TableStore) *Machine {
	return &Machine{store: store}
}

// Store returns the shared table store.
func (m *Machine) Store() *TableStore { return m.store }

// ---------------------------------------------------------------------------
// Deterministic stack
// ---------------------------------------------------------------------------

// PushFrame opens a frame with n local slots.
func (m *Machine) PushFrame(n int) {
	m.frames = append(m.frames, len(m.det))
	for i := 0; i < n; i++ {
		m.det = append(m.det, Value{})
	}
}

// PopFrame closes the current frame.
func (m *Machine) PopFrame() {
	if len(m.frames) == 0 {
		panic("engine: frame stack underflow")
	}
	base := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]
	m.det = m.det[:base]
}

// Local returns frame-local slot i.
func (m *Machine) Local(i int) Value {
	return m.det[m.frames[len(m.frames)-1]+i]
}

// SetLocal assigns frame-local slot i.
func (m *Machine) SetLocal(i int, v Value) {
	m.det[m.frames[len(m.frames)-1]+i] = v
}

// ---------------------------------------------------------------------------
// Choice-point stack and trampoline
// ---------------------------------------------------------------------------

// PushChoice registers alternatives to try, newest first, when the current
// branch fails. Each alternative is resumed with the det and frame stacks
// cut back to their height at registration.
func (m *Machine) PushChoice(alts ...Cont) {
	m.cps = append(m.cps, &choicePoint{
		alts:      alts,
		detMark:   len(m.det),
		frameMark: len(m.frames),
	})
}

// cpMark returns the current choice-point stack height.
func (m *Machine) cpMark() int { return len(m.cps) }

// run executes g, then drives backtracking over choice points above mark
// until g's search space is exhausted or a Stop propagates out.
func (m *Machine) run(mark int, g Cont) Outcome {
	out := g(m)
	for out == Fail && len(m.cps) > mark {
		cp := m.cps[len(m.cps)-1]
		if cp.next >= len(cp.alts) {
			m.cps = m.cps[:len(m.cps)-1]
			continue
		}
		alt := cp.alts[cp.next]
		cp.next++
		m.det = m.det[:cp.detMark]
		m.frames = m.frames[:cp.frameMark]
		out = alt(m)
	}
	return out
}

// RunGoal executes a goal to exhaustion at the current stack height,
// trying every alternative it leaves behind. Generated generator bodies
// use it to drive their own disjunctions before declaring completion.
func (m *Machine) RunGoal(g Cont) Outcome {
	return m.run(m.cpMark(), g)
}

// Solve runs a top-level goal to its first accepted solution (the goal's
// final continuation returns Stop to accept, Fail to ask for another).
// Returns true if a solution was accepted. The machine's stacks are reset
// afterwards; the table store is not.
func (m *Machine) Solve(goal Cont) bool {
	if len(m.gens) != 0 {
		fatal("Solve re-entered while a generator is running")
	}
	out := m.run(0, goal)
	m.cps = m.cps[:0]
	m.det = m.det[:0]
	m.frames = m.frames[:0]
	machineLog.Debugf("solve finished, accepted=%v", out == Stop)
	return out == Stop
}

// Disj tries alternatives in order, leaving the rest on the choice-point
// stack. Each alternative is a complete branch ending in the caller's
// continuation.
func (m *Machine) Disj(alts ...Cont) Outcome {
	if len(alts) == 0 {
		return Fail
	}
	if len(alts) > 1 {
		m.PushChoice(alts[1:]...)
	}
	return alts[0](m)
}
