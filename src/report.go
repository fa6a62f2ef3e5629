package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Render finalized reports to text, JSON, and Markdown.
 *
 * Description: Rendering is mechanical; every judgment was made by
 *		the detector.  Output directories are stamped
 *		%Y%m%d-%H%M%S, like default baseline filenames.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

type report_metadata struct {
	GoldenID       string  `json:"golden_id"`
	SuspectID      string  `json:"suspect_id"`
	Timestamp      string  `json:"timestamp"`
	TrojanDetected bool    `json:"trojan_detected"`
	Confidence     float64 `json:"confidence"`
}

type report_statistics struct {
	TotalAnomalies  int            `json:"total_anomalies"`
	Critical        int            `json:"critical"`
	High            int            `json:"high"`
	Medium          int            `json:"medium"`
	Low             int            `json:"low"`
	FramesCompared  int            `json:"frames_compared"`
	FramesDifferent int            `json:"frames_different"`
	BitsChanged     int            `json:"bits_changed"`
	TypeBreakdown   map[string]int `json:"type_breakdown"`
}

type anomaly_record struct {
	ID             string   `json:"anomaly_id"`
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	FAR            string   `json:"far"`
	BlockType      string   `json:"block_type"`
	Location       string   `json:"location"`
	TilesAffected  []string `json:"tiles_affected"`
	TilesUnused    []string `json:"tiles_unused"`
	BitsChanged    int      `json:"bits_changed"`
	IsRouting      bool     `json:"is_routing"`
	IsUnusedRegion bool     `json:"is_unused_region"`
	Description    string   `json:"description"`
	Reason         string   `json:"reason"`
	Confidence     float64  `json:"confidence"`
	AttackVectors  []string `json:"attack_vectors"`
	Transient      bool     `json:"transient"`
}

type cluster_record struct {
	ID          string  `json:"cluster_id"`
	Size        int     `json:"size"`
	ColumnLo    int     `json:"column_lo"`
	ColumnHi    int     `json:"column_hi"`
	MaxSeverity string  `json:"max_severity"`
	Confidence  float64 `json:"avg_confidence"`
	BitsChanged int     `json:"bits_changed"`
}

type report_document struct {
	Metadata   report_metadata   `json:"metadata"`
	Statistics report_statistics `json:"statistics"`
	Summary    string            `json:"summary"`
	Anomalies  []anomaly_record  `json:"anomalies"`
	Clusters   []cluster_record  `json:"clusters"`
}

// export_report flattens a finalized report into the serializable
// document the renderers (and external consumers) work from.
func export_report(r *anomaly_report, timestamp time.Time) *report_document {
	var doc = &report_document{
		Metadata: report_metadata{
			GoldenID:       r.golden_id,
			SuspectID:      r.suspect_id,
			Timestamp:      timestamp.UTC().Format(time.RFC3339),
			TrojanDetected: r.trojan_detected,
			Confidence:     r.confidence,
		},
		Statistics: report_statistics{
			TotalAnomalies:  len(r.anomalies),
			Critical:        r.critical_count,
			High:            r.high_count,
			Medium:          r.medium_count,
			Low:             r.low_count,
			FramesCompared:  r.total_frames_compared,
			FramesDifferent: r.frames_with_differences,
			BitsChanged:     r.total_bits_changed,
			TypeBreakdown:   r.type_counts,
		},
		Summary: r.summary,
	}

	for _, a := range r.anomalies {
		doc.Anomalies = append(doc.Anomalies, anomaly_record{
			ID:             a.id,
			Type:           a.atype.String(),
			Severity:       a.severity.String(),
			FAR:            far_hex(a.far),
			BlockType:      a.block_type_name,
			Location:       fmt.Sprintf("X%dY%d", a.column, a.minor),
			TilesAffected:  a.tiles_affected,
			TilesUnused:    a.tiles_unused,
			BitsChanged:    a.bits_changed,
			IsRouting:      a.is_routing_frame,
			IsUnusedRegion: a.in_unused_region(),
			Description:    a.description,
			Reason:         a.suspicion_reason,
			Confidence:     a.confidence,
			AttackVectors:  a.attack_vectors,
			Transient:      a.transient,
		})
	}

	for _, c := range r.clusters {
		doc.Clusters = append(doc.Clusters, cluster_record{
			ID:          c.cluster_id,
			Size:        c.size(),
			ColumnLo:    c.column_lo,
			ColumnHi:    c.column_hi,
			MaxSeverity: c.max_severity.String(),
			Confidence:  c.avg_confidence,
			BitsChanged: c.total_bits_changed(),
		})
	}

	return doc
}

func render_json(doc *report_document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func render_text(doc *report_document) string {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 70) + "\n")
	b.WriteString("FPGA Trojan Detection Report\n")
	b.WriteString(strings.Repeat("=", 70) + "\n\n")
	b.WriteString(doc.Summary + "\n\n")

	if len(doc.Anomalies) > 0 {
		b.WriteString("Anomalies:\n")
		for _, a := range doc.Anomalies {
			b.WriteString(fmt.Sprintf("  [%s] %s @ FAR %s (%s) - %d bits\n",
				a.Severity, a.Type, a.FAR, a.BlockType, a.BitsChanged))
			b.WriteString(fmt.Sprintf("      %s\n", a.Description))
			if a.Reason != "" {
				b.WriteString(fmt.Sprintf("      Reason: %s\n", a.Reason))
			}
			if len(a.AttackVectors) > 0 {
				b.WriteString(fmt.Sprintf("      Vectors: %s\n", strings.Join(a.AttackVectors, ", ")))
			}
		}
	}

	return b.String()
}

func render_markdown(doc *report_document) string {
	var b strings.Builder

	b.WriteString("# FPGA Trojan Detection Report\n\n")
	b.WriteString(fmt.Sprintf("- **Golden:** %s\n", doc.Metadata.GoldenID))
	b.WriteString(fmt.Sprintf("- **Suspect:** %s\n", doc.Metadata.SuspectID))
	b.WriteString(fmt.Sprintf("- **Verdict:** %s\n", first_line(doc.Summary)))
	b.WriteString(fmt.Sprintf("- **Confidence:** %.2f\n\n", doc.Metadata.Confidence))

	b.WriteString("## Statistics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	b.WriteString(fmt.Sprintf("| Anomalies | %d |\n", doc.Statistics.TotalAnomalies))
	b.WriteString(fmt.Sprintf("| Critical | %d |\n", doc.Statistics.Critical))
	b.WriteString(fmt.Sprintf("| High | %d |\n", doc.Statistics.High))
	b.WriteString(fmt.Sprintf("| Medium | %d |\n", doc.Statistics.Medium))
	b.WriteString(fmt.Sprintf("| Low | %d |\n", doc.Statistics.Low))
	b.WriteString(fmt.Sprintf("| Frames compared | %d |\n", doc.Statistics.FramesCompared))
	b.WriteString(fmt.Sprintf("| Bits changed | %d |\n", doc.Statistics.BitsChanged))

	if len(doc.Anomalies) > 0 {
		b.WriteString("\n## Anomalies\n\n")
		b.WriteString("| Severity | Type | FAR | Block | Bits | Description |\n|---|---|---|---|---|---|\n")
		for _, a := range doc.Anomalies {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
				a.Severity, a.Type, a.FAR, a.BlockType, a.BitsChanged, a.Description))
		}
	}

	return b.String()
}

func first_line(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// write_report_files renders all three formats under a stamped
// subdirectory of parent and returns the written paths.
func write_report_files(r *anomaly_report, parent string) ([]string, error) {
	var stamp, err = strftime.Format("%Y%m%d-%H%M%S", time.Now())
	if err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	var dir = filepath.Join(parent, "report_"+stamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	var doc = export_report(r, time.Now())

	var paths []string
	var json_bytes []byte
	json_bytes, err = render_json(doc)
	if err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	for _, out := range []struct {
		name string
		data []byte
	}{
		{"report.txt", []byte(render_text(doc))},
		{"report.md", []byte(render_markdown(doc))},
		{"report.json", json_bytes},
	} {
		var path = filepath.Join(dir, out.name)
		if err := os.WriteFile(path, out.data, 0o644); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		paths = append(paths, path)
	}

	ambient_log.Info("report written", "dir", dir)
	return paths, nil
}
