// Command prepare runs the contraction-hierarchy construction
// back-end: it reads the `.edges` artifact extract produced, labels
// components, builds the spatial index, optionally reweights edges
// from a speed-override file, contracts the graph, and writes the
// `.hsgr`/`.core`/`.level` artifacts the online query engine consumes.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"osmch/pkg/config"
	"osmch/pkg/contractor"
	"osmch/pkg/edgebased"
	"osmch/pkg/format"
	"osmch/pkg/logging"
	"osmch/pkg/nodegraph"
	"osmch/pkg/scc"
	"osmch/pkg/serializer"
	"osmch/pkg/spatialindex"
	"osmch/pkg/xerrors"
)

var (
	threads           = flag.Int("threads", 0, "worker threads (0 = GOMAXPROCS)")
	coreFactor        = flag.Float64("core-factor", 1.0, "fraction of nodes to contract (0.0-1.0); 1.0 contracts everything, 0.0 contracts nothing")
	segmentSpeedFile  = flag.String("segment-speed-file", "", "CSV of from-id,to-id,speed-kmh overriding segment weights (requires extract --generate-edge-lookup)")
	levelOutput       = flag.String("level-output", "", "override path for the .level artifact (default <base>.level)")
	useCachedPriority = flag.Bool("use-cached-priority", false, "seed contraction order from an existing .level file instead of recomputing it")
	configDir         = flag.String("config-dir", "", "directory holding config.yaml")
	debug             = flag.Bool("debug", false, "verbose logging")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: prepare <base> [--threads N] [--core-factor F] [--segment-speed-file S] [--level-output L] [--use-cached-priority]")
		os.Exit(1)
	}
	base := flag.Arg(0)

	log, err := logging.New(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, base); err != nil {
		log.Error("prepare failed", zap.Error(err), zap.String("kind", xerrors.KindOf(err).String()))
		os.Exit(1)
	}
}

func run(log *zap.Logger, base string) error {
	v, err := config.Load(*configDir)
	if err != nil {
		return err
	}
	explicit := config.ExplicitFlags()
	config.OverrideInt(threads, "threads", "threads", v, explicit)
	config.OverrideFloat64(coreFactor, "core-factor", "core_factor", v, explicit)
	config.OverrideString(segmentSpeedFile, "segment-speed-file", "segment_speed_file", v, explicit)
	config.OverrideString(levelOutput, "level-output", "level_output", v, explicit)
	config.OverrideBool(useCachedPriority, "use-cached-priority", "use_cached_priority", v, explicit)

	if *coreFactor < 0.0 || *coreFactor > 1.0 {
		return xerrors.WrapErrorf(nil, xerrors.KindConfiguration, "core-factor %v outside [0.0, 1.0]", *coreFactor)
	}

	log.Info("reading edge-based graph", zap.String("base", base))
	nodes, edges, err := edgebased.ReadGraph(base + ".edges")
	if err != nil {
		return err
	}
	log.Info("edge-based graph loaded", zap.Int("nodes", len(nodes)), zap.Int("edges", len(edges)))

	if *segmentSpeedFile != "" {
		if err := reweight(log, base, nodes, edges); err != nil {
			return err
		}
	}

	log.Info("labeling strongly connected components")
	counts := scc.Label(nodes, edges)
	log.Info("components labeled", zap.Int("components", len(counts)))

	log.Info("building spatial index")
	g, err := nodegraph.ReadOSRM(base + ".osrm")
	if err != nil {
		return err
	}
	entries := spatialindex.BuildEntries(g, nodes)
	if err := spatialindex.Write(base, entries, spatialindex.DefaultLeafSize); err != nil {
		return err
	}

	var seed []int32
	if *useCachedPriority {
		log.Info("seeding contraction order from cached levels", zap.String("path", base+".level"))
		seed, err = serializer.ReadLevel(base + ".level")
		if err != nil {
			return err
		}
		if len(seed) != len(nodes) {
			return xerrors.WrapErrorf(nil, xerrors.KindData,
				"%s.level: has %d entries, want %d", base, len(seed), len(nodes))
		}
	}

	workers := *threads
	log.Info("contracting graph", zap.Float64("coreFactor", *coreFactor), zap.Bool("cachedPriority", *useCachedPriority))
	var result contractor.Result
	if seed != nil {
		result = contractor.ContractCached(log, len(nodes), edges, *coreFactor, workers, seed)
	} else {
		result = contractor.Contract(log, len(nodes), edges, *coreFactor, workers)
	}
	log.Info("contraction complete", zap.Int("edges", len(result.Edges)))

	return writeArtifacts(log, base, len(nodes), result)
}

// reweight applies a per-segment speed-override table to edges in
// place, requiring the edge-segment-lookup side-car extract writes
// when --generate-edge-lookup is set.
func reweight(log *zap.Logger, base string, nodes []edgebased.Node, edges []format.EdgeBasedEdge) error {
	g, err := nodegraph.ReadOSRM(base + ".osrm")
	if err != nil {
		return err
	}
	table, err := edgebased.LoadSpeedTable(*segmentSpeedFile)
	if err != nil {
		return err
	}
	segments, err := edgebased.ReadSegmentLookupChained(base+".edge_segment_lookup", nodes, edges)
	if err != nil {
		return xerrors.WrapErrorf(err, xerrors.KindData,
			"%s: --segment-speed-file requires extract to have run with --generate-edge-lookup", base+".edge_segment_lookup")
	}
	penalties, err := edgebased.ReadPenalties(base + ".edge_penalties")
	if err != nil {
		return err
	}
	log.Info("reweighting edges from speed overrides", zap.String("file", *segmentSpeedFile), zap.Int("entries", len(table)))
	edgebased.Reweight(g, edges, segments, penalties, table)
	return nil
}

func writeArtifacts(log *zap.Logger, base string, nodeCount int, result contractor.Result) error {
	nodeArray, edgeArray := serializer.Build(result.Edges, nodeCount)
	if err := serializer.Write(base+".hsgr", nodeArray, edgeArray); err != nil {
		return err
	}
	if err := serializer.WriteCore(base+".core", result.Core); err != nil {
		return err
	}
	levelPath := *levelOutput
	if levelPath == "" {
		levelPath = base + ".level"
	}
	if err := serializer.WriteLevel(levelPath, result.Levels); err != nil {
		return err
	}
	log.Info("prepare complete", zap.String("base", base))
	return nil
}
