// Command trajectory builds a GPS trajectory from a capture file, prints its
// summary and optionally stores it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/nova-lidar/nova/internal/config"
	"github.com/nova-lidar/nova/internal/fsutil"
	"github.com/nova-lidar/nova/internal/monitoring"
	"github.com/nova-lidar/nova/internal/pipeline"
	"github.com/nova-lidar/nova/internal/source"
	"github.com/nova-lidar/nova/internal/store"
	"github.com/nova-lidar/nova/internal/units"
	"github.com/nova-lidar/nova/internal/version"
)

type options struct {
	capture     string
	topic       string
	fromRecords bool
	distUnits   string
	areaUnits   string
	dbPath      string
	configPath  string
	asJSON      bool
	logFormat   string
	showVer     bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("trajectory", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.capture, "capture", "", "path to a .json or .json.zst capture file (required)")
	fs.StringVar(&o.topic, "topic", "", "GPS topic (default: auto-select)")
	fs.BoolVar(&o.fromRecords, "from-records", false, "decode NavSatFix records instead of the coordinate stream")
	fs.StringVar(&o.distUnits, "units", units.Meters, "distance units: "+units.GetValidDistanceUnitsString())
	fs.StringVar(&o.areaUnits, "area-units", units.SquareMeters, "area units: "+units.GetValidAreaUnitsString())
	fs.StringVar(&o.dbPath, "db", "", "store the trajectory in this sqlite database")
	fs.StringVar(&o.configPath, "config", "", "path to a processing config JSON file")
	fs.BoolVar(&o.asJSON, "json", false, "print the summary as JSON")
	fs.StringVar(&o.logFormat, "log-format", monitoring.FormatText, "diagnostic log format: text, json or console")
	fs.BoolVar(&o.showVer, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.showVer {
		return o, nil
	}
	if o.capture == "" {
		return nil, errors.New("-capture is required")
	}
	if _, err := monitoring.ParseFormat(o.logFormat); err != nil {
		return nil, err
	}
	if !units.IsValidDistance(o.distUnits) {
		return nil, fmt.Errorf("invalid -units %q (want %s)", o.distUnits, units.GetValidDistanceUnitsString())
	}
	if !units.IsValidArea(o.areaUnits) {
		return nil, fmt.Errorf("invalid -area-units %q (want %s)", o.areaUnits, units.GetValidAreaUnitsString())
	}
	return o, nil
}

func main() {
	log.SetFlags(0)
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("trajectory: %v", err)
	}
}

// report is the -json output.
type report struct {
	TrajectoryID string  `json:"trajectory_id,omitempty"`
	Topic        string  `json:"topic"`
	Input        int     `json:"input_fixes"`
	Kept         int     `json:"kept_fixes"`
	Points       int     `json:"points"`
	Distance     float64 `json:"distance"`
	DistUnits    string  `json:"distance_units"`
	Area         float64 `json:"area"`
	AreaUnits    string  `json:"area_units"`
	AreaMethod   string  `json:"area_method"`
	CenterLat    float64 `json:"center_latitude"`
	CenterLon    float64 `json:"center_longitude"`
	LatRange     float64 `json:"lat_range"`
	LonRange     float64 `json:"lon_range"`
}

func run(ctx context.Context, args []string, w io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.showVer {
		fmt.Fprintln(w, version.String("nova-trajectory"))
		return nil
	}
	if err := monitoring.Configure(os.Stderr, o.logFormat); err != nil {
		return err
	}

	cfg := config.EmptyProcessingConfig()
	if o.configPath != "" {
		if cfg, err = config.LoadProcessingConfig(o.configPath); err != nil {
			return err
		}
	}
	capture, err := source.LoadCapture(fsutil.OSFileSystem{}, o.capture)
	if err != nil {
		return err
	}

	var st *store.Store
	var opts []pipeline.Option
	if o.dbPath != "" {
		if st, err = store.Open(o.dbPath); err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, pipeline.WithRecorder(st))
	}
	p := pipeline.New(capture, cfg, opts...)

	var res *pipeline.TrajectoryResult
	if o.fromRecords {
		res, err = p.TrajectoryFromRecords(ctx, o.topic)
	} else {
		res, err = p.Trajectory(ctx, o.topic)
	}
	if err != nil {
		return err
	}

	r := report{
		Topic:      res.Topic.Name,
		Input:      res.Validation.Input,
		Kept:       res.Validation.Kept,
		Points:     res.Summary.TotalPoints,
		Distance:   units.ConvertDistance(res.Summary.CumulativeDistanceMeters, o.distUnits),
		DistUnits:  o.distUnits,
		Area:       units.ConvertArea(res.Summary.ApproximateAreaSqMeters, o.areaUnits),
		AreaUnits:  o.areaUnits,
		AreaMethod: string(res.Summary.AreaMethod),
		CenterLat:  res.Summary.Center.Latitude,
		CenterLon:  res.Summary.Center.Longitude,
		LatRange:   res.Summary.LatRange,
		LonRange:   res.Summary.LonRange,
	}
	if st != nil {
		if r.TrajectoryID, err = st.SaveTrajectory(ctx, res.Topic.Name, res.Trajectory, res.Summary); err != nil {
			return err
		}
	}

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "topic\t%s\n", r.Topic)
	fmt.Fprintf(tw, "fixes\t%d kept of %d\n", r.Kept, r.Input)
	fmt.Fprintf(tw, "points\t%d\n", r.Points)
	fmt.Fprintf(tw, "center\t%.6f, %.6f\n", r.CenterLat, r.CenterLon)
	fmt.Fprintf(tw, "extent\t%.6f x %.6f deg\n", r.LatRange, r.LonRange)
	fmt.Fprintf(tw, "distance\t%.3f %s\n", r.Distance, r.DistUnits)
	fmt.Fprintf(tw, "area\t%.3f %s (%s)\n", r.Area, r.AreaUnits, r.AreaMethod)
	if r.TrajectoryID != "" {
		fmt.Fprintf(tw, "stored as\t%s\n", r.TrajectoryID)
	}
	return tw.Flush()
}
