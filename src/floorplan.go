package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Render an anomaly heatmap over the device floorplan.
 *
 * Description: 48 columns across, 160 tile rows down.  Columns get a
 *		faint tint by type; each anomaly paints its frame's
 *		tile window in a severity color.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
)

const floorplan_cell = 6 // pixels per tile cell

func severity_rgb(sl severity_level) (float64, float64, float64) {
	switch sl {
	case SEVERITY_CRITICAL:
		return 0.86, 0.13, 0.13
	case SEVERITY_HIGH:
		return 0.95, 0.55, 0.10
	case SEVERITY_MEDIUM:
		return 0.93, 0.83, 0.20
	case SEVERITY_LOW:
		return 0.55, 0.55, 0.60
	}
	return 0.35, 0.45, 0.55
}

func column_rgb(ct column_type) (float64, float64, float64) {
	switch ct {
	case COLUMN_IOB:
		return 0.16, 0.20, 0.26
	case COLUMN_BRAM:
		return 0.14, 0.22, 0.18
	case COLUMN_CLK:
		return 0.22, 0.16, 0.24
	}
	return 0.12, 0.14, 0.18
}

// render_floorplan draws the anomaly heatmap and returns the image.
func render_floorplan(r *anomaly_report) image.Image {
	var dc = gg.NewContext(DEVICE_COLUMNS*floorplan_cell, DEVICE_ROWS*floorplan_cell)

	// Column backdrop.
	for major := 0; major < DEVICE_COLUMNS; major++ {
		var red, green, blue = column_rgb(column_info_for(major).ctype)
		dc.SetRGB(red, green, blue)
		dc.DrawRectangle(float64(major*floorplan_cell), 0,
			floorplan_cell, float64(DEVICE_ROWS*floorplan_cell))
		dc.Fill()
	}

	// Half split line.
	dc.SetRGB(0.30, 0.32, 0.36)
	dc.DrawRectangle(0, float64(HALF_SPLIT_Y*floorplan_cell), float64(DEVICE_COLUMNS*floorplan_cell), 1)
	dc.Fill()

	// Anomaly cells, least severe first so the worst stays on top.
	for _, severity := range []severity_level{SEVERITY_INFO, SEVERITY_LOW, SEVERITY_MEDIUM, SEVERITY_HIGH, SEVERITY_CRITICAL} {
		for _, a := range r.anomalies {
			if a.severity != severity {
				continue
			}
			var y_base = 0
			if a.top_bottom == 1 {
				y_base = HALF_SPLIT_Y
			}
			var y_lo = clamp_row(y_base + a.minor*FRAME_ROWS)
			var y_hi = clamp_row(y_base + (a.minor+1)*FRAME_ROWS)
			if y_lo >= y_hi {
				continue
			}

			var red, green, blue = severity_rgb(a.severity)
			dc.SetRGB(red, green, blue)
			dc.DrawRectangle(float64(a.column*floorplan_cell), float64(y_lo*floorplan_cell),
				floorplan_cell, float64((y_hi-y_lo)*floorplan_cell))
			dc.Fill()
		}
	}

	return dc.Image()
}

// write_floorplan renders and saves the heatmap as a PNG.
func write_floorplan(r *anomaly_report, path string) error {
	var dc = gg.NewContextForImage(render_floorplan(r))
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("writing floorplan: %w", err)
	}
	ambient_log.Info("floorplan written", "path", path, "anomalies", len(r.anomalies))
	return nil
}
