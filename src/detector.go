package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Frame-level differential Trojan detection.
 *
 * Description: Compares a golden baseline against a suspect
 *		bitstream in ordered phases:
 *
 *		  1. structural diff     - frames added / removed
 *		  2. data diff           - payload and write-history
 *		                           comparison over common FARs
 *		  3. classification      - used vs unused tiles
 *		  4. severity assessment - ordered rule table
 *		  5. finalize            - counts, verdict, summary
 *
 *		The anomaly list is sorted by (FAR, id) before
 *		assessment so two runs over the same inputs produce
 *		identical reports.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"sort"
)

// Fewer than this many changed bits in a frame is treated as noise.
const min_bits_for_significance = 5

// Small targeted changes in this window are the classic Trojan
// footprint.
const trojan_signature_min_bits = 5
const trojan_signature_max_bits = 50

type frame_differential_detector struct {
	mapper *frame_mapper
}

func new_detector() *frame_differential_detector {
	return &frame_differential_detector{mapper: new_frame_mapper()}
}

// detect runs the full differential analysis and returns the
// finalized report.
func (d *frame_differential_detector) detect(golden *golden_baseline, suspect *loaded_bitstream) *anomaly_report {
	var report = new_anomaly_report(golden.baseline_id, suspect.info.filename)

	ambient_log.Debug("detection started", "golden", golden.baseline_id, "suspect", suspect.info.filename)

	var golden_fars = golden.far_set()
	var suspect_fars = suspect.far_set()

	var anomalies []*frame_anomaly
	anomalies = append(anomalies, d.detect_structural_differences(golden, suspect, golden_fars, suspect_fars)...)
	anomalies = append(anomalies, d.detect_data_differences(golden, suspect, golden_fars, suspect_fars)...)

	// Deterministic order regardless of how the phases interleaved.
	sort.Slice(anomalies, func(i, j int) bool {
		if anomalies[i].far != anomalies[j].far {
			return anomalies[i].far < anomalies[j].far
		}
		return anomalies[i].id < anomalies[j].id
	})
	for _, a := range anomalies {
		report.add(a)
	}

	d.classify_anomalies(report.anomalies, golden)
	d.assess_severity(report.anomalies)

	report.total_frames_compared = len(golden_fars) + len(suspect_fars)
	report.finalize()

	ambient_log.Debug("detection complete",
		"anomalies", len(report.anomalies),
		"critical", report.critical_count,
		"high", report.high_count,
		"verdict", report.verdict())

	return report
}

/*------------------------------------------------------------------
 * Phase 1: structural differences.
 *------------------------------------------------------------------*/

func (d *frame_differential_detector) detect_structural_differences(golden *golden_baseline,
	suspect *loaded_bitstream, golden_fars, suspect_fars map[uint32]bool) []*frame_anomaly {

	var anomalies []*frame_anomaly

	for _, far := range suspect.all_fars() {
		if !golden_fars[far] {
			anomalies = append(anomalies, d.create_added_anomaly(far, suspect))
		}
	}
	for _, far := range golden.expected_fars() {
		if !suspect_fars[far] {
			anomalies = append(anomalies, d.create_removed_anomaly(far, golden))
		}
	}

	return anomalies
}

func (d *frame_differential_detector) create_added_anomaly(far uint32, suspect *loaded_bitstream) *frame_anomaly {
	var fw = suspect.frame(far)
	var cov = d.mapper.map_frame(far)

	var a = d.new_anomaly(far, cov)
	a.id = fmt.Sprintf("added_%08X", far)
	a.atype = ANOMALY_FRAME_ADDED
	a.severity = SEVERITY_MEDIUM // reassessed in phase 4
	a.bits_changed = popcount_payload(fw.payload)
	a.suspect_data = fw.payload
	a.description = "Frame added in suspect (not in golden)"
	a.suspicion_reason = "Unexpected frame configuration"
	if fw.warning != "" {
		a.description += " [" + fw.warning + "]"
	}
	return a
}

func (d *frame_differential_detector) create_removed_anomaly(far uint32, golden *golden_baseline) *frame_anomaly {
	var cov = d.mapper.map_frame(far)

	var a = d.new_anomaly(far, cov)
	a.id = fmt.Sprintf("removed_%08X", far)
	a.atype = ANOMALY_FRAME_REMOVED
	a.severity = SEVERITY_LOW
	a.bits_changed = popcount_payload(golden.payload(far))
	a.golden_data = golden.payload(far)
	a.description = "Frame removed in suspect (present in golden)"
	a.suspicion_reason = "Missing expected configuration"
	return a
}

/*------------------------------------------------------------------
 * Phase 2: data differences over common FARs.
 *------------------------------------------------------------------*/

func (d *frame_differential_detector) detect_data_differences(golden *golden_baseline,
	suspect *loaded_bitstream, golden_fars, suspect_fars map[uint32]bool) []*frame_anomaly {

	var anomalies []*frame_anomaly

	for _, far := range suspect.all_fars() {
		if !golden_fars[far] {
			continue
		}
		var golden_payload = golden.payload(far)
		var suspect_frame = suspect.frame(far)

		if payloads_equal(golden_payload, suspect_frame.payload) {
			// Final state matches; the write sequence may still hide
			// a transient configuration.
			anomalies = append(anomalies,
				d.detect_transient_mismatches(far, golden.history(far), suspect.history(far))...)
			continue
		}

		if a := d.create_modified_anomaly(far, golden_payload, suspect_frame.payload, false, 0, ""); a != nil {
			anomalies = append(anomalies, a)
		}
	}

	return anomalies
}

// detect_transient_mismatches compares write histories element-wise.
// Any intermediate divergence, and any suspect write beyond the
// golden history, is an anomaly even when the final values agree.
func (d *frame_differential_detector) detect_transient_mismatches(far uint32,
	golden_history [][]byte, suspect_history []*frame_write) []*frame_anomaly {

	if len(golden_history) == 0 || len(suspect_history) == 0 {
		return nil
	}

	var anomalies []*frame_anomaly
	var zipped = len(golden_history)
	if len(suspect_history) < zipped {
		zipped = len(suspect_history)
	}

	for idx := 0; idx < zipped; idx++ {
		if payloads_equal(suspect_history[idx].payload, golden_history[idx]) {
			continue
		}
		var note = fmt.Sprintf("Write #%d deviates from golden configuration sequence", idx+1)
		if a := d.create_modified_anomaly(far, golden_history[idx], suspect_history[idx].payload, true, idx+1, note); a != nil {
			anomalies = append(anomalies, a)
		}
	}

	for idx := zipped; idx < len(suspect_history); idx++ {
		var note = fmt.Sprintf("Unexpected extra write #%d not present in golden history", idx+1)
		var reference = golden_history[len(golden_history)-1]
		if a := d.create_modified_anomaly(far, reference, suspect_history[idx].payload, true, idx+1, note); a != nil {
			anomalies = append(anomalies, a)
		}
	}

	return anomalies
}

func (d *frame_differential_detector) create_modified_anomaly(far uint32,
	reference []byte, suspect_payload []byte,
	transient bool, write_index int, transient_note string) *frame_anomaly {

	var diff_bits = compare_payloads(reference, suspect_payload)

	// The noise floor applies only to effective-value differences; a
	// transient divergence of any size is evidence.
	if !transient && len(diff_bits) < min_bits_for_significance {
		return nil
	}
	if transient && len(diff_bits) == 0 {
		return nil
	}

	var cov = d.mapper.map_frame(far)
	var a = d.new_anomaly(far, cov)
	a.atype = choose_modified_type(cov)
	a.severity = SEVERITY_MEDIUM // reassessed in phase 4
	a.bits_changed = len(diff_bits)
	if len(diff_bits) > max_sampled_bit_positions {
		a.changed_bit_positions = diff_bits[:max_sampled_bit_positions]
	} else {
		a.changed_bit_positions = diff_bits
	}
	a.golden_data = reference
	a.suspect_data = suspect_payload
	a.transient = transient

	a.description = fmt.Sprintf("%d bits modified in %s frame", len(diff_bits), a.block_type_name)
	a.suspicion_reason = "Final configuration differs"
	if transient {
		a.id = fmt.Sprintf("modified_%08X_w%02d", far, write_index)
		a.description += fmt.Sprintf(" (transient write #%d)", write_index)
		a.suspicion_reason = transient_note
		a.add_attack_vector("transient_payload")
	} else {
		a.id = fmt.Sprintf("modified_%08X", far)
	}

	return a
}

// choose_modified_type picks the anomaly type from the frame's
// primary resource category: clock > io > routing > logic.
func choose_modified_type(cov *frame_coverage) anomaly_type {
	switch {
	case cov.is_clock_frame():
		return ANOMALY_CLOCK_CHANGE
	case cov.is_io_frame():
		return ANOMALY_IO_CHANGE
	case cov.is_routing_frame():
		return ANOMALY_ROUTING_CHANGE
	case cov.is_logic_frame():
		return ANOMALY_LOGIC_CHANGE
	}
	return ANOMALY_FRAME_MODIFIED
}

func (d *frame_differential_detector) new_anomaly(far uint32, cov *frame_coverage) *frame_anomaly {
	return &frame_anomaly{
		far:              far,
		block_type:       cov.fields.block,
		block_type_name:  block_type_name(cov.block_type),
		column:           cov.fields.major,
		minor:            cov.fields.minor,
		top_bottom:       cov.fields.top_bottom,
		tiles_affected:   cov.tiles_affected,
		is_routing_frame: cov.is_routing_frame(),
		is_logic_frame:   cov.is_logic_frame(),
		is_clock_frame:   cov.is_clock_frame(),
		is_io_frame:      cov.is_io_frame(),
	}
}

/*------------------------------------------------------------------
 * Phase 3: used vs unused classification.
 *------------------------------------------------------------------*/

func (d *frame_differential_detector) classify_anomalies(anomalies []*frame_anomaly, golden *golden_baseline) {
	for _, a := range anomalies {
		a.tiles_used = nil
		a.tiles_unused = nil
		for _, tile := range a.tiles_affected {
			if golden.is_tile_used(tile) {
				a.tiles_used = append(a.tiles_used, tile)
			} else {
				a.tiles_unused = append(a.tiles_unused, tile)
			}
		}

		if a.in_unused_region() && a.atype == ANOMALY_FRAME_MODIFIED {
			a.atype = ANOMALY_UNUSED_REGION_MOD
		}
	}
}

/*------------------------------------------------------------------
 * Phase 4: severity assessment.
 *
 * A precedence-ordered rule table: the first matching rule supplies
 * severity, confidence, reason, and attack vectors.  The transient
 * override runs afterwards.
 *------------------------------------------------------------------*/

type severity_rule struct {
	match      func(a *frame_anomaly) bool
	severity   severity_level
	confidence float64
	reason     string
	vectors    []string
}

var severity_rules = []severity_rule{
	{
		match:      func(a *frame_anomaly) bool { return a.is_clock_frame },
		severity:   SEVERITY_CRITICAL,
		confidence: 0.95,
		reason:     "Clock network modification detected",
		vectors:    []string{"clock_manipulation", "timing_attack"},
	},
	{
		match:      func(a *frame_anomaly) bool { return a.is_io_frame && a.in_unused_region() },
		severity:   SEVERITY_CRITICAL,
		confidence: 0.90,
		reason:     "IO modification in unused region (data exfiltration risk)",
		vectors:    []string{"data_exfiltration", "covert_channel"},
	},
	{
		match: func(a *frame_anomaly) bool {
			return a.is_routing_frame && a.in_unused_region() &&
				a.bits_changed >= trojan_signature_min_bits && a.bits_changed <= trojan_signature_max_bits
		},
		severity:   SEVERITY_CRITICAL,
		confidence: 0.90,
		reason:     "Small targeted routing change in unused region (TROJAN SIGNATURE)",
		vectors:    []string{"routing_detour", "hidden_routing_trojan", "minimal_footprint_trojan"},
	},
	{
		match:      func(a *frame_anomaly) bool { return a.is_routing_frame && a.in_unused_region() },
		severity:   SEVERITY_HIGH,
		confidence: 0.85,
		reason:     "Routing modification in unused region (prime Trojan location)",
		vectors:    []string{"routing_detour", "hidden_routing_trojan"},
	},
	{
		match:      func(a *frame_anomaly) bool { return a.is_routing_frame && len(a.tiles_used) > 0 },
		severity:   SEVERITY_HIGH,
		confidence: 0.70,
		reason:     "Routing modification in used region (possible detour)",
		vectors:    []string{"routing_detour", "path_manipulation"},
	},
	{
		match:      func(a *frame_anomaly) bool { return a.is_logic_frame && a.in_unused_region() },
		severity:   SEVERITY_MEDIUM,
		confidence: 0.75,
		reason:     "Logic modification in unused region",
		vectors:    []string{"hidden_logic", "trojan_payload"},
	},
	{
		match:      func(a *frame_anomaly) bool { return a.atype == ANOMALY_FRAME_ADDED && a.in_unused_region() },
		severity:   SEVERITY_MEDIUM,
		confidence: 0.70,
		reason:     "Unexpected frame configuration in unused region",
		vectors:    []string{"unauthorized_configuration"},
	},
	{
		match:      func(a *frame_anomaly) bool { return a.atype == ANOMALY_FRAME_ADDED },
		severity:   SEVERITY_LOW,
		confidence: 0.50,
		reason:     "Unexpected frame configuration in used region",
	},
	{
		match:      func(a *frame_anomaly) bool { return a.atype == ANOMALY_FRAME_REMOVED },
		severity:   SEVERITY_LOW,
		confidence: 0.40,
		reason:     "Frame removed (likely tool version difference)",
	},
}

func (d *frame_differential_detector) assess_severity(anomalies []*frame_anomaly) {
	for _, a := range anomalies {
		d.apply_severity_rules(a)
	}
}

func (d *frame_differential_detector) apply_severity_rules(a *frame_anomaly) {
	var severity = SEVERITY_LOW
	var confidence = 0.5
	var reason = "Standard modification"
	var vectors []string

	for _, rule := range severity_rules {
		if rule.match(a) {
			severity = rule.severity
			confidence = rule.confidence
			reason = rule.reason
			vectors = append([]string(nil), rule.vectors...)
			break
		}
	}

	a.severity = severity
	a.confidence = confidence
	a.suspicion_reason = reason
	for _, v := range vectors {
		a.add_attack_vector(v)
	}

	// Transient writes are never ignored, even when the final state
	// matches golden.
	if a.transient {
		a.add_attack_vector("transient_payload")
		if a.severity == SEVERITY_LOW || a.severity == SEVERITY_MEDIUM {
			a.severity = SEVERITY_HIGH
			if a.confidence < 0.80 {
				a.confidence = 0.80
			}
			a.suspicion_reason += "; transient configuration observed"
		} else {
			a.suspicion_reason += " (transient configuration observed)"
		}
	}
}
