// Command decode reads a capture file, decodes a point cloud or IMU topic
// and prints what it found.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/nova-lidar/nova/internal/config"
	"github.com/nova-lidar/nova/internal/fsutil"
	"github.com/nova-lidar/nova/internal/monitoring"
	"github.com/nova-lidar/nova/internal/pipeline"
	"github.com/nova-lidar/nova/internal/pointcloud"
	"github.com/nova-lidar/nova/internal/security"
	"github.com/nova-lidar/nova/internal/source"
	"github.com/nova-lidar/nova/internal/store"
	"github.com/nova-lidar/nova/internal/version"
)

type options struct {
	capture    string
	topic      string
	kind       string
	zMin, zMax float64
	color      string
	configPath string
	dbPath     string
	exportDir  string
	exportFmt  string
	logFormat  string
	showVer    bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.capture, "capture", "", "path to a .json or .json.zst capture file (required)")
	fs.StringVar(&o.topic, "topic", "", "topic to decode (default: auto-select)")
	fs.StringVar(&o.kind, "kind", pipeline.KindPointCloud, "what to decode: pointcloud or imu")
	fs.Float64Var(&o.zMin, "zmin", math.Inf(-1), "drop points below this height")
	fs.Float64Var(&o.zMax, "zmax", math.Inf(1), "drop points above this height")
	fs.StringVar(&o.color, "color", "height", "colour mode: height, intensity or flat")
	fs.StringVar(&o.configPath, "config", "", "path to a processing config JSON file")
	fs.StringVar(&o.dbPath, "db", "", "record decode sessions in this sqlite database")
	fs.StringVar(&o.exportDir, "export-dir", "", "write the filtered cloud as <topic>.<format> into this directory")
	fs.StringVar(&o.exportFmt, "export-format", "asc", "export format: asc or parquet")
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
	if o.kind != pipeline.KindPointCloud && o.kind != pipeline.KindIMU {
		return nil, fmt.Errorf("invalid -kind %q (want pointcloud or imu)", o.kind)
	}
	if _, err := monitoring.ParseFormat(o.logFormat); err != nil {
		return nil, err
	}
	if o.exportFmt != "asc" && o.exportFmt != "parquet" {
		return nil, fmt.Errorf("invalid -export-format %q (want asc or parquet)", o.exportFmt)
	}
	if o.zMin > o.zMax {
		return nil, fmt.Errorf("-zmin %g is above -zmax %g", o.zMin, o.zMax)
	}
	return o, nil
}

func main() {
	log.SetFlags(0)
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("decode: %v", err)
	}
}

func run(ctx context.Context, args []string, w io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	if o.showVer {
		fmt.Fprintln(w, version.String("nova-decode"))
		return nil
	}
	if err := monitoring.Configure(os.Stderr, o.logFormat); err != nil {
		return err
	}
	mode, err := pointcloud.ParseColorMode(o.color)
	if err != nil {
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

	var opts []pipeline.Option
	if o.dbPath != "" {
		st, err := store.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, pipeline.WithRecorder(st))
	}
	p := pipeline.New(capture, cfg, opts...)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if o.kind == pipeline.KindIMU {
		res, err := p.IMU(ctx, o.topic)
		if err != nil {
			return err
		}
		printStats(tw, res.Topic.Name, res.Topic.TypeName, res.Stats)
		names, _ := res.Series.Columns()
		fmt.Fprintf(tw, "columns\t%s\n", strings.Join(names, ", "))
		fmt.Fprintf(tw, "samples\t%d\n", res.Series.Len())
		if res.Series.Len() > 0 {
			var sum float64
			for _, m := range res.Series.AccelMagnitude() {
				sum += m
			}
			fmt.Fprintf(tw, "mean |accel|\t%.4f m/s^2\n", sum/float64(res.Series.Len()))
		}
		return nil
	}

	res, err := p.PointCloud(ctx, o.topic)
	if err != nil {
		return err
	}
	printStats(tw, res.Topic.Name, res.Topic.TypeName, res.Stats)
	fmt.Fprintf(tw, "columns\t%s\n", strings.Join(res.Points.Names, ", "))

	cloud := res.Cloud.FilterZ(o.zMin, o.zMax)
	fmt.Fprintf(tw, "points\t%d of %d\n", cloud.Len(), res.Cloud.Len())
	if cloud.Len() == 0 {
		return nil
	}
	b := cloud.Bounds()
	fmt.Fprintf(tw, "x\t[%.3f, %.3f]\n", b.MinX, b.MaxX)
	fmt.Fprintf(tw, "y\t[%.3f, %.3f]\n", b.MinY, b.MaxY)
	fmt.Fprintf(tw, "z\t[%.3f, %.3f]\n", b.MinZ, b.MaxZ)
	fmt.Fprintf(tw, "mean intensity\t%.3f\n", cloud.MeanIntensity())
	colors := cloud.ColorValues(mode)
	lo, hi := colors[0], colors[0]
	for _, c := range colors {
		lo, hi = math.Min(lo, c), math.Max(hi, c)
	}
	fmt.Fprintf(tw, "colour (%s)\t[%.3f, %.3f]\n", o.color, lo, hi)

	if o.exportDir != "" {
		path := filepath.Join(o.exportDir, security.SanitizeFilename(res.Topic.Name)+"."+o.exportFmt)
		export := pointcloud.ExportASC
		if o.exportFmt == "parquet" {
			export = pointcloud.ExportParquet
		}
		if err := export(cloud, path); err != nil {
			return err
		}
		fmt.Fprintf(tw, "exported\t%s\n", path)
	}
	return nil
}

func printStats(w io.Writer, name, typeName string, s pipeline.DecodeStats) {
	fmt.Fprintf(w, "topic\t%s (%s)\n", name, typeName)
	fmt.Fprintf(w, "messages\t%d\n", s.Messages)
	fmt.Fprintf(w, "records\t%d\n", s.Records)
	if s.TrailingBytes > 0 {
		fmt.Fprintf(w, "trailing bytes\t%d\n", s.TrailingBytes)
	}
}
