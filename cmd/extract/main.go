// Command extract runs the node-based extraction front-end: it reads
// an OSM PBF file and writes the `.osrm`/`.restrictions`/`.names`/
// `.timestamp`/`.nodes`/`.edges`/`.geometry` artifacts the prepare
// step consumes, plus the optional edge-segment-lookup side-car.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"osmch/pkg/compressor"
	"osmch/pkg/config"
	"osmch/pkg/edgebased"
	"osmch/pkg/extractor"
	"osmch/pkg/format"
	"osmch/pkg/geometry"
	"osmch/pkg/logging"
	"osmch/pkg/nodegraph"
	"osmch/pkg/profile"
	"osmch/pkg/rawmap"
	"osmch/pkg/restriction"
	"osmch/pkg/xerrors"
)

var (
	profileName        = flag.String("profile", "default", "profile to classify ways/nodes/turns with")
	threads            = flag.Int("threads", 0, "worker threads (0 = GOMAXPROCS)")
	generateEdgeLookup = flag.Bool("generate-edge-lookup", false, "write the edge-segment-lookup side-car needed for --segment-speed-file later")
	dumpDebug          = flag.Bool("dump-debug", false, "write a non-fixed-layout restriction dump for inspection")
	configDir          = flag.String("config-dir", "", "directory holding config.yaml")
	debug              = flag.Bool("debug", false, "verbose logging")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: extract <input-map> [--profile P] [--threads N] [--generate-edge-lookup]")
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	log, err := logging.New(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, inputPath); err != nil {
		log.Error("extract failed", zap.Error(err), zap.String("kind", xerrors.KindOf(err).String()))
		os.Exit(1)
	}
}

func run(log *zap.Logger, inputPath string) error {
	v, err := config.Load(*configDir)
	if err != nil {
		return err
	}
	explicit := config.ExplicitFlags()
	config.OverrideString(profileName, "profile", "profile", v, explicit)
	config.OverrideInt(threads, "threads", "threads", v, explicit)
	config.OverrideBool(generateEdgeLookup, "generate-edge-lookup", "generate_edge_lookup", v, explicit)
	config.OverrideBool(dumpDebug, "dump-debug", "dump_debug", v, explicit)

	p, err := resolveProfile(*profileName)
	if err != nil {
		return err
	}

	base := basePath(inputPath)

	log.Info("reading raw map", zap.String("input", inputPath))
	m, err := rawmap.Load(inputPath)
	if err != nil {
		return err
	}
	if len(m.Nodes) == 0 || len(m.Ways) == 0 {
		return xerrors.WrapErrorf(nil, xerrors.KindData, "%s: empty input map", inputPath)
	}
	log.Info("raw map loaded", zap.Int("nodes", len(m.Nodes)), zap.Int("ways", len(m.Ways)),
		zap.Int("restrictions", len(m.Restrictions)))

	log.Info("extracting node-based graph")
	extracted, err := extractor.Extract(m, p)
	if err != nil {
		return err
	}
	log.Info("extracted", zap.Int("nodes", len(extracted.Graph.Nodes)), zap.Int("edges", len(extracted.Graph.LiveEdges())))

	restrMap := restriction.NewMap(extracted.Restrictions)

	log.Info("compressing graph")
	compressed := compressor.Compress(extracted.Graph, restrMap, compressor.DefaultSignalPenaltyDeciseconds)
	log.Info("compressed", zap.Int("survivingEdges", len(compressed.Graph.LiveEdges())), zap.Int("polylines", compressed.Geometry.Len()))

	log.Info("building edge-based graph")
	factory := edgebased.Factory{
		Graph:          compressed.Graph,
		Geometry:       compressed.Geometry,
		EdgeGeometryID: compressed.EdgeGeometryID,
		Restrictions:   restrMap,
		Profile:        p,
	}
	ebNodes, ebEdges, segments, penalties := factory.Build()
	log.Info("edge-based graph built", zap.Int("nodes", len(ebNodes)), zap.Int("edges", len(ebEdges)))

	if err := writeArtifacts(base, compressed, extracted, ebNodes, ebEdges, segments, penalties, m); err != nil {
		return err
	}
	log.Info("extract complete", zap.String("base", base))
	return nil
}

func writeArtifacts(
	base string,
	compressed compressor.Result,
	extracted extractor.Result,
	ebNodes []edgebased.Node,
	ebEdges []format.EdgeBasedEdge,
	segments [][]edgebased.Segment,
	penalties []int32,
	m *rawmap.Map,
) error {
	if err := nodegraph.WriteOSRM(base+".osrm", compressed.Graph); err != nil {
		return err
	}
	if err := nodegraph.WriteRestrictions(base+".restrictions", extracted.Restrictions); err != nil {
		return err
	}
	if err := nodegraph.WriteNames(base+".names", extracted.Names.All()); err != nil {
		return err
	}
	if err := nodegraph.WriteTimestamp(base+".timestamp", time.Unix(m.Timestamp, 0), m.HasTimestamp); err != nil {
		return err
	}
	if err := nodegraph.WriteNodesMap(base+".nodes", compressed.Graph); err != nil {
		return err
	}
	if err := edgebased.WriteGraph(base+".edges", ebNodes, ebEdges); err != nil {
		return err
	}
	if err := geometry.Write(base+".geometry", compressed.Geometry); err != nil {
		return err
	}
	if *generateEdgeLookup {
		if err := edgebased.WriteSegmentLookup(base+".edge_segment_lookup", segments); err != nil {
			return err
		}
		if err := edgebased.WritePenalties(base+".edge_penalties", penalties); err != nil {
			return err
		}
	}
	if *dumpDebug {
		if err := restriction.DumpDebug(base+".restrictions.debug", extracted.Restrictions); err != nil {
			return err
		}
	}
	return nil
}

func resolveProfile(name string) (profile.Profile, error) {
	switch name {
	case "", "default":
		return profile.NewDefault(), nil
	default:
		return nil, xerrors.WrapErrorf(nil, xerrors.KindProfile, "unknown profile %q", name)
	}
}

func basePath(inputPath string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, ".osm.pbf")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(inputPath), base)
}
