// mtab runs demonstration tabled workloads and dumps the resulting tables.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/TimothyDespair/mercury/engine"
	"github.com/TimothyDespair/mercury/engine/snapshot"
	"github.com/TimothyDespair/mercury/manifest"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(*engine.FatalError)
			if !ok {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Fatal: %v\n", fe)
			os.Exit(2)
		}
	}()

	verbose := flag.Bool("v", false, "Verbose output")
	fibN := flag.Int("fib", 25, "Argument for the memoized fibonacci workload")
	dump := flag.Bool("dump", false, "Dump table state to the snapshot database")
	dbPath := flag.String("db", "mercury-tables.db", "Snapshot database path (unless mercury.toml overrides it)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mtab [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs two tabled workloads: memoized fibonacci and minimal-model graph\n")
		fmt.Fprintf(os.Stderr, "reachability over a cyclic demo graph, then reports table statistics.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mtab -fib 40           # Memoize fib up to 40\n")
		fmt.Fprintf(os.Stderr, "  mtab -dump -db out.db  # Also dump tables to out.db\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	mf, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading mercury.toml: %v\n", err)
		os.Exit(1)
	}
	if mf != nil && *verbose {
		fmt.Printf("Using manifest in %s\n", mf.Dir)
	}

	store := engine.NewTableStore()
	if mf != nil && mf.Tabling.MaxAnswers > 0 {
		store.SetMaxAnswers(int64(mf.Tabling.MaxAnswers))
	}

	result, err := runFib(store, mf, int64(*fibN))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("fib(%d) = %d\n", *fibN, result)

	reached, err := runReach(store, mf, "a")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reach(a) = %v\n", reached)

	stats := store.Stats()
	fmt.Printf("lookups=%d hits=%d misses=%d answers=%d duplicates=%d suspensions=%d completions=%d\n",
		stats.Lookups, stats.Hits, stats.Misses, stats.Answers,
		stats.Duplicates, stats.Suspensions, stats.Completions)

	if *dump {
		runID := uuid.NewString()
		path := mf.SnapshotDBPath(*dbPath)
		if err := dumpTables(store, runID, path); err != nil {
			fmt.Fprintf(os.Stderr, "Error dumping tables: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Dumped run %s to %s\n", runID, path)
	}
}

// dumpTables captures the store and writes it to the snapshot database.
func dumpTables(store *engine.TableStore, runID, path string) error {
	db, err := snapshot.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return snapshot.WriteDB(db, snapshot.Capture(store, runID))
}
