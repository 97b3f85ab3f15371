// objmem CLI - drives the object memory with a synthetic workload and
// manages heap snapshots
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/chazu/objmem/config"
	"github.com/chazu/objmem/vm"
	"github.com/chazu/objmem/vm/snapshot"
	"github.com/inhies/go-bytesize"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("objmem.cmd")

func main() {
	configPath := flag.String("config", "", "Path to objmem.toml (default: search upward from the working directory)")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides config; 0 = errors only)")
	links := flag.Int("links", 1000, "Number of tuples in the rooted chain (run)")
	garbage := flag.Int("garbage", 5000, "Number of unreachable tuples to allocate (run)")
	save := flag.Bool("snapshot", false, "Save a heap snapshot after the run")
	label := flag.String("label", "", "Label for the saved snapshot")
	show := flag.Bool("show", false, "Print the head of the chain after the run")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: objmem [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run              Run the workload, collect and print statistics\n")
		fmt.Fprintf(os.Stderr, "  primitives       List registered primitives\n")
		fmt.Fprintf(os.Stderr, "  snapshots        List saved snapshots\n")
		fmt.Fprintf(os.Stderr, "  inspect <id>     Summarize a saved snapshot\n")
		fmt.Fprintf(os.Stderr, "  delete <id>      Delete a saved snapshot\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  objmem run -links 50 -show         # Small run, print the chain\n")
		fmt.Fprintf(os.Stderr, "  objmem -snapshot -label warm run   # Run and save a snapshot\n")
		fmt.Fprintf(os.Stderr, "  objmem snapshots                   # List saved snapshots\n")
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	var logPath *string
	if cfg.Log.Path != "" {
		logPath = &cfg.Log.Path
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	switch args[0] {
	case "run":
		err = runWorkload(ctx, cfg, *links, *garbage, *show, *save, *label)
	case "primitives":
		listPrimitives(cfg)
	case "snapshots":
		err = listSnapshots(ctx, cfg)
	case "inspect":
		if len(args) < 2 {
			err = fmt.Errorf("inspect needs a snapshot id")
			break
		}
		err = inspectSnapshot(ctx, cfg, args[1])
	case "delete":
		if len(args) < 2 {
			err = fmt.Errorf("delete needs a snapshot id")
			break
		}
		err = withStore(cfg, func(store *snapshot.Store) error {
			return store.Delete(ctx, args[1])
		})
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

func withStore(cfg *config.Config, fn func(*snapshot.Store) error) error {
	store, err := snapshot.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func runWorkload(ctx context.Context, cfg *config.Config, links, garbage int, show, save bool, label string) error {
	st := vm.NewState(cfg.VMOptions())
	w := &workload{st: st}

	res, err := w.run(links, garbage)
	if err != nil {
		return err
	}

	s := res.Stats
	fmt.Printf("Collections:   %d\n", st.Collector.Count())
	fmt.Printf("Last cycle:    marked=%d reclaimed=%d finalized=%d weak-cleared=%d evacuated=%d tenured=%d\n",
		s.Marked, s.Reclaimed, s.Finalized, s.WeakCleared, s.Evacuated, s.Tenured)
	fmt.Printf("Live objects:  %d\n", st.Memory.Live())
	fmt.Printf("Chain length:  %d\n", res.ChainLength)
	fmt.Printf("Weak (live):   %v\n", res.WeakLive)
	fmt.Printf("Weak (dead):   cleared=%v\n", res.WeakCleared)
	fmt.Printf("Duration:      %s\n", s.Duration)

	if show && w.chain != vm.Nil {
		fmt.Println()
		st.Show(os.Stdout, w.chain)
		st.ShowSimple(os.Stdout, w.blob)
	}

	if !save {
		return nil
	}
	snap := snapshot.Take(st, label)
	return withStore(cfg, func(store *snapshot.Store) error {
		if err := store.Save(ctx, snap); err != nil {
			return err
		}
		fmt.Printf("Snapshot:      %s\n", snap.ID)
		return nil
	})
}

func listPrimitives(cfg *config.Config) {
	st := vm.NewState(cfg.VMOptions())
	for _, name := range st.Primitives.Names() {
		p, _ := st.Primitives.Lookup(name)
		fmt.Println(p.Signature())
	}
}

func listSnapshots(ctx context.Context, cfg *config.Config) error {
	return withStore(cfg, func(store *snapshot.Store) error {
		infos, err := store.List(ctx)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTAKEN\tOBJECTS\tSIZE\tLABEL")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", info.ID, info.TakenAt.Format(time.RFC3339),
				info.Objects, bytesize.New(float64(info.Size)), info.Label)
		}
		return tw.Flush()
	})
}

func inspectSnapshot(ctx context.Context, cfg *config.Config, id string) error {
	return withStore(cfg, func(store *snapshot.Store) error {
		snap, err := store.Load(ctx, id)
		if err != nil {
			return err
		}
		log.Debugf("loaded snapshot %s", snap.ID)

		fmt.Printf("ID:       %s\n", snap.ID)
		fmt.Printf("Taken:    %s\n", snap.TakenAt.Format(time.RFC3339))
		if snap.Label != "" {
			fmt.Printf("Label:    %s\n", snap.Label)
		}
		fmt.Printf("Objects:  %d\n", len(snap.Objects))
		if data, err := snapshot.Marshal(snap); err == nil {
			fmt.Printf("Encoded:  %s\n", bytesize.New(float64(len(data))))
		}

		counts := snap.CountByType()
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("  %-10s %d\n", t, counts[t])
		}
		return nil
	})
}
