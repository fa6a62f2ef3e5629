package bitsentry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhancedDetectFindsSuspiciousPIP(t *testing.T) {
	var dm = fixture_device(t)
	var ed = new_enhanced_detector(dm)

	var rr, err = new_routing_reconstructor(dm, ed.rm)
	require.NoError(t, err)
	var loc_a, ok_a = rr.pm.location("INT_X1Y100", 1, 2)
	require.True(t, ok_a)
	var loc_b, ok_b = rr.pm.location("INT_X1Y45", 7, 8)
	require.True(t, ok_b)

	var golden = synth_baseline(t, "golden.bit", []synth_write{
		{far: loc_a.far, payload: frame_payload(loc_a.bit_offset)},
	}, empty_used_tiles())
	var suspect = synth_bitstream(t, "suspect.bit", []synth_write{
		{far: loc_a.far, payload: frame_payload(loc_a.bit_offset)},
		{far: loc_b.far, payload: frame_payload(loc_b.bit_offset)},
	})

	var report = ed.detect_enhanced(golden, suspect)

	// The frame-level pass sees the added frame (1 bit, below the
	// noise floor for modifications but structural adds always
	// report); the semantic pass adds the PIP-level finding.
	var pip_anomalies = 0
	for _, a := range report.anomalies {
		if a.atype == ANOMALY_ROUTING_CHANGE && len(a.tiles_affected) == 1 && a.tiles_affected[0] == "INT_X1Y45" {
			pip_anomalies++
			assert.Contains(t, a.attack_vectors, "hidden_routing_trojan")
		}
	}
	assert.Equal(t, 1, pip_anomalies)
	assert.NotEmpty(t, report.by_type(ANOMALY_FRAME_ADDED))
}

func TestEnhancedDetectDegradesWithoutDeviceModel(t *testing.T) {
	var golden = synth_baseline(t, "golden.bit", []synth_write{
		{far: far_clb_routing, payload: frame_payload(1)},
	}, nil)
	var suspect = synth_bitstream(t, "suspect.bit", []synth_write{
		{far: far_clb_routing, payload: frame_payload(1)},
	})

	var report = new_enhanced_detector(nil).detect_enhanced(golden, suspect)

	// The degraded pass leaves exactly one informational marker for
	// the skipped routing analysis; frame-level results stand.
	var skipped = 0
	for _, a := range report.anomalies {
		if a.severity == SEVERITY_INFO {
			skipped++
			assert.Contains(t, a.description, "skipped")
		}
	}
	assert.Equal(t, 1, skipped)
	assert.False(t, report.trojan_detected)
}

func TestEnhancedDetectEqualInputsAddNothing(t *testing.T) {
	var dm = fixture_device(t)
	var writes = []synth_write{
		{far: far_clb_routing, payload: frame_payload(seq(0, 30)...)},
	}
	var golden = synth_baseline(t, "golden.bit", writes, nil)
	var suspect = synth_bitstream(t, "suspect.bit", writes)

	var report = new_enhanced_detector(dm).detect_enhanced(golden, suspect)

	assert.Empty(t, report.anomalies)
	assert.False(t, report.trojan_detected)
}
