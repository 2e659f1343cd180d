// Drives a memoized workload against a configurable cache strategy and reports how much
// computation the cache absorbed. Useful for sizing capacity / TTL / shard counts before wiring
// the memoizer into an application.

package main

import (
	"crypto/sha256"
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calque/recall/pkg/memo"
	"github.com/calque/recall/pkg/utils"
)

var (
	strategyFlag = flag.String("strategy", "unbounded", "Cache strategy: unbounded/lru/ttl/off.")
	maxSizeFlag  = flag.Int("max_size", 1024, "Capacity of the lru strategy.")
	ttlFlag      = flag.Duration("ttl", 5*time.Minute, "Time-to-live of the ttl strategy.")
	shardsFlag   = flag.Int("shards", 1, "Number of cache shards; 1 disables sharding.")
	opsFlag      = flag.Int("ops", 1_000_000, "Total number of memoized calls to make.")
	keySpaceFlag = flag.Int("key_space", 10_000, "Distinct inputs to draw from.")
	workersFlag  = flag.Int("workers", runtime.NumCPU(), "Concurrent callers.")
	workRounds   = flag.Int("work_rounds", 64, "SHA-256 rounds per computation, i.e. how expensive a miss is.")
	printVersion = flag.Bool("print_version", false, "Print the version and exit.")
)

// strategyOptions maps the -strategy flag to memoizer options. The boolean reports whether the
// name is known.
func strategyOptions(name string) ([]memo.Option, bool) {
	var opts []memo.Option
	switch name {
	case "unbounded":
	case "lru":
		opts = append(opts, memo.WithLRU(*maxSizeFlag))
	case "ttl":
		opts = append(opts, memo.WithTTL(*ttlFlag))
	case "off":
		opts = append(opts, memo.Disabled())
	default:
		return nil, false
	}
	if *shardsFlag > 1 {
		opts = append(opts, memo.WithShards(*shardsFlag))
	}
	return opts, true
}

// computations counts how many times the wrapped function actually ran; every other call was a
// cache hit.
var computations atomic.Int64

// expensiveHash is the stand-in workload: a deterministic, side-effect-free function whose cost
// scales with -work_rounds.
func expensiveHash(key int) [sha256.Size]byte {
	computations.Add(1)
	sum := sha256.Sum256([]byte(strconv.Itoa(key)))
	for range *workRounds - 1 {
		sum = sha256.Sum256(sum[:])
	}
	return sum
}

// runWorkload fires ops memoized calls at the memoizer from the given number of workers, drawing
// inputs uniformly from keySpace.
func runWorkload(memoized *memo.Memoizer[int, [sha256.Size]byte], ops, keySpace, workers int) {
	var wg sync.WaitGroup
	perWorker := ops / workers
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				memoized.Call(rand.IntN(keySpace))
			}
		}()
	}
	wg.Wait()
}

func main() {
	flag.Parse()
	utils.InitLogging()

	if *printVersion {
		slog.Info("Membench build info.", "version", utils.Version, "commit", utils.Commit, "build", utils.BuildTime)
		return
	}

	opts, known := strategyOptions(*strategyFlag)
	if !known {
		slog.Error("Unknown cache strategy.", "strategy", *strategyFlag)
		os.Exit(1)
	}
	if *workersFlag <= 0 || *opsFlag <= 0 || *keySpaceFlag <= 0 {
		slog.Error("Workers, ops and key space must all be positive.",
			"workers", *workersFlag, "ops", *opsFlag, "keySpace", *keySpaceFlag)
		os.Exit(1)
	}

	memoized := memo.New(expensiveHash, opts...)
	started := time.Now()
	runWorkload(memoized, *opsFlag, *keySpaceFlag, *workersFlag)
	elapsed := time.Since(started)

	computed := computations.Load()
	totalOps := int64(*opsFlag / *workersFlag * *workersFlag)
	slog.Info("Benchmark finished.",
		"strategy", *strategyFlag,
		"ops", totalOps,
		"computed", computed,
		"hitRatio", float64(totalOps-computed)/float64(totalOps),
		"cached", memoized.Len(),
		"elapsed", elapsed,
		"opsPerSecond", float64(totalOps)/elapsed.Seconds(),
	)
}
