package pointcloud

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/nova-lidar/nova/internal/monitoring"
	"github.com/nova-lidar/nova/internal/security"
)

// PointRow is one point in the Parquet export.
type PointRow struct {
	X         float64 `parquet:"x"`
	Y         float64 `parquet:"y"`
	Z         float64 `parquet:"z"`
	Intensity float64 `parquet:"intensity"`
}

// Rows returns the cloud as one PointRow per point.
func (c *Cloud) Rows() []PointRow {
	rows := make([]PointRow, c.Len())
	for i := range rows {
		rows[i] = PointRow{X: c.X[i], Y: c.Y[i], Z: c.Z[i], Intensity: c.Intensity[i]}
	}
	return rows
}

// WriteParquet writes c to w as a single Parquet file.
func WriteParquet(w io.Writer, c *Cloud) error {
	pw := parquet.NewGenericWriter[PointRow](w)
	if _, err := pw.Write(c.Rows()); err != nil {
		pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return pw.Close()
}

// ExportParquet writes c to path under the same path rules as ExportASC.
func ExportParquet(c *Cloud, path string) error {
	if c.Len() == 0 {
		return fmt.Errorf("no points to export")
	}
	if err := security.ValidateExportPath(path); err != nil {
		return fmt.Errorf("invalid export path: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteParquet(f, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	monitoring.Logf("Exported %d points to %s", c.Len(), path)
	return nil
}
