package pointcloud

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/nova-lidar/nova/internal/monitoring"
	"github.com/nova-lidar/nova/internal/security"
)

// WriteASC writes c as CloudCompare-compatible ASCII: two comment lines then
// one "X Y Z Intensity" row per point.
func WriteASC(w io.Writer, c *Cloud) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Exported points\n")
	fmt.Fprintf(bw, "# Format: X Y Z Intensity\n")
	for i := range c.X {
		fmt.Fprintf(bw, "%.6f %.6f %.6f %g\n", c.X[i], c.Y[i], c.Z[i], c.Intensity[i])
	}
	return bw.Flush()
}

// ExportASC writes c to path. The path must lie under the temp directory
// or the working directory.
func ExportASC(c *Cloud, path string) error {
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
	if err := WriteASC(f, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	monitoring.Logf("Exported %d points to %s", c.Len(), path)
	return nil
}
