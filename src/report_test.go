package bitsentry

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample_report(t *testing.T) *anomaly_report {
	t.Helper()
	var base = frame_payload()
	var golden = synth_baseline(t, "golden.bit",
		[]synth_write{{far: far_clb_routing, payload: base}}, empty_used_tiles())
	var suspect = synth_bitstream(t, "suspect.bit",
		[]synth_write{{far: far_clb_routing, payload: flip_bits(base, 10, 20, 30, 40, 50)}})
	return new_detector().detect(golden, suspect)
}

func TestExportReport(t *testing.T) {
	var doc = export_report(sample_report(t), time_zero())

	assert.Equal(t, "golden_golden.bit", doc.Metadata.GoldenID)
	assert.Equal(t, "suspect.bit", doc.Metadata.SuspectID)
	assert.True(t, doc.Metadata.TrojanDetected)
	assert.Equal(t, "1970-01-01T00:00:00Z", doc.Metadata.Timestamp)
	assert.Equal(t, 1, doc.Statistics.TotalAnomalies)
	assert.Equal(t, 1, doc.Statistics.Critical)
	assert.Equal(t, 5, doc.Statistics.BitsChanged)
	assert.Equal(t, 1, doc.Statistics.TypeBreakdown["routing_change"])

	require.Len(t, doc.Anomalies, 1)
	assert.Equal(t, "CRITICAL", doc.Anomalies[0].Severity)
	assert.True(t, doc.Anomalies[0].IsUnusedRegion)
	assert.Equal(t, far_hex(far_clb_routing), doc.Anomalies[0].FAR)
}

func TestRenderJSONRoundTrips(t *testing.T) {
	var doc = export_report(sample_report(t), time_zero())
	var data, err = render_json(doc)
	require.NoError(t, err)

	var back report_document
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc.Metadata, back.Metadata)
	assert.Equal(t, doc.Statistics.BitsChanged, back.Statistics.BitsChanged)
}

func TestRenderTextCarriesVerdict(t *testing.T) {
	var report = sample_report(t)
	var text = render_text(export_report(report, time_zero()))

	assert.Contains(t, text, "TROJAN DETECTED")
	assert.Contains(t, text, "routing_change")
	assert.Contains(t, text, "minimal_footprint_trojan")
}

func TestRenderMarkdown(t *testing.T) {
	var md = render_markdown(export_report(sample_report(t), time_zero()))

	assert.True(t, strings.HasPrefix(md, "# FPGA Trojan Detection Report"))
	assert.Contains(t, md, "| Critical | 1 |")
	assert.Contains(t, md, "**Verdict:** TROJAN DETECTED")
}

func TestWriteReportFiles(t *testing.T) {
	var paths, err = write_report_files(sample_report(t), t.TempDir())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, path := range paths {
		var info, err = file_size(path)
		require.NoError(t, err)
		assert.Positive(t, info)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a", first_line("a\nb"))
	assert.Equal(t, "solo", first_line("solo"))
}
