// Package engine implements the tabling core of the Mercury runtime: the
// discrimination tries that key call and answer tables, the per-call status
// machines for loopcheck, memo, and minimal-model evaluation, and the
// dual-stack machine that executes transformed procedure bodies with
// backtracking, consumer suspension, and SCC-local completion.
//
// The central invariant is the asymmetry between execution and tables:
// backtracking unwinds a Machine's stacks, but table state is append-only
// for the life of the process. An entry or answer created along an
// abandoned branch survives, which is precisely what makes memoization
// stronger than the surrounding search.
//
// The TableStore is shared, process-wide state; Machines are per-goroutine
// engine instances that all consult the same store. The primitives in
// primitives.go, trie.go and minimal_model.go form the stable interface the
// compiler's tabling transformation emits calls to.
package engine
