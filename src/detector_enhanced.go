package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Enhanced detection: the frame-level pass plus routing
 *		and logic state reconstruction.
 *
 * Description: Reconstruction views are complementary to the phase-2
 *		anomalies, not a replacement.  When golden frame data
 *		or the device model is unavailable the pass degrades
 *		to a single informational anomaly and the base results
 *		stand.
 *
 *------------------------------------------------------------------*/

import "fmt"

type enhanced_detector struct {
	base *frame_differential_detector
	dm   *device_model
	rm   *reverse_mapper
}

func new_enhanced_detector(dm *device_model) *enhanced_detector {
	var ed = &enhanced_detector{
		base: new_detector(),
		dm:   dm,
	}
	if dm != nil {
		ed.rm = new_reverse_mapper(REVERSE_HYBRID, dm)
	}
	return ed
}

func (ed *enhanced_detector) detect_enhanced(golden *golden_baseline, suspect *loaded_bitstream) *anomaly_report {
	var report = ed.base.detect(golden, suspect)

	var extra []*frame_anomaly
	extra = append(extra, ed.analyze_routing(golden, suspect)...)
	extra = append(extra, ed.analyze_logic(golden, suspect)...)

	if len(extra) > 0 {
		ed.base.classify_anomalies(extra, golden)
		for _, a := range extra {
			report.add(a)
		}
		report.finalize()
	}

	return report
}

func (ed *enhanced_detector) analyze_routing(golden *golden_baseline, suspect *loaded_bitstream) []*frame_anomaly {
	var golden_frames = golden.frame_writes()
	if ed.dm == nil || len(golden_frames) == 0 {
		ambient_log.Warn("routing analysis skipped",
			"device_model", ed.dm != nil, "golden_frames", len(golden_frames))
		return []*frame_anomaly{analysis_skipped_anomaly("routing",
			"golden frame data or device model unavailable")}
	}

	var rr, err = new_routing_reconstructor(ed.dm, ed.rm)
	if err != nil {
		return []*frame_anomaly{analysis_skipped_anomaly("routing", err.Error())}
	}

	var golden_routing = rr.reconstruct(golden.baseline_id, golden_frames)
	var suspect_routing = rr.reconstruct(suspect.info.filename, suspect.frames)
	var cmp = compare_routing(golden_routing, suspect_routing)

	var anomalies []*frame_anomaly
	for _, p := range cmp.suspicious_additions {
		anomalies = append(anomalies, ed.routing_anomaly(p))
	}

	ambient_log.Debug("routing analysis",
		"golden_pips", golden_routing.size(),
		"suspect_pips", suspect_routing.size(),
		"added", len(cmp.added),
		"suspicious", len(cmp.suspicious_additions))

	return anomalies
}

func (ed *enhanced_detector) routing_anomaly(p *active_pip) *frame_anomaly {
	var cov = ed.base.mapper.map_frame(p.far)
	var a = ed.base.new_anomaly(p.far, cov)
	a.id = fmt.Sprintf("pip_%08X_%s_%d_%d", p.far, p.tile, p.start_wire, p.end_wire)
	a.atype = ANOMALY_ROUTING_CHANGE
	a.severity = SEVERITY_HIGH
	a.confidence = 0.85
	a.bits_changed = 1
	a.changed_bit_positions = []int{p.bit_offset}
	a.tiles_affected = []string{p.tile}
	a.description = fmt.Sprintf("Active PIP %d->%d in tile %s with no golden routing", p.start_wire, p.end_wire, p.tile)
	a.suspicion_reason = "New routing in a previously routing-free tile"
	a.attack_vectors = []string{"hidden_routing_trojan", "routing_detour"}
	return a
}

func (ed *enhanced_detector) analyze_logic(golden *golden_baseline, suspect *loaded_bitstream) []*frame_anomaly {
	var golden_frames = golden.frame_writes()
	if len(golden_frames) == 0 {
		return []*frame_anomaly{analysis_skipped_anomaly("logic", "golden frame data unavailable")}
	}

	var lr = new_logic_reconstructor()
	var golden_logic = lr.reconstruct(golden.baseline_id, golden_frames)
	var suspect_logic = lr.reconstruct(suspect.info.filename, suspect.frames)
	var cmp = compare_logic(golden_logic, suspect_logic)

	var anomalies []*frame_anomaly
	for _, mod := range cmp.modified {
		anomalies = append(anomalies, ed.logic_anomaly(mod))
	}

	ambient_log.Debug("logic analysis",
		"golden_luts", len(golden_logic.luts),
		"suspect_luts", len(suspect_logic.luts),
		"modified", len(cmp.modified))

	return anomalies
}

func (ed *enhanced_detector) logic_anomaly(mod *lut_modification) *frame_anomaly {
	var analysis = analyze_lut_modification(mod.golden_tt, mod.suspect_tt)
	var cov = ed.base.mapper.map_frame(mod.far)

	var a = ed.base.new_anomaly(mod.far, cov)
	a.id = fmt.Sprintf("lut_%08X_%s_%s_%s", mod.far, mod.id.tile, mod.id.slice, mod.id.lut_name)
	a.atype = ANOMALY_LOGIC_CHANGE
	a.severity = analysis.severity
	a.confidence = 0.80
	a.bits_changed = analysis.bits_changed
	a.tiles_affected = []string{mod.id.tile}
	a.description = fmt.Sprintf("LUT_%s in %s/%s rewritten: 0x%016X -> 0x%016X (%s)",
		mod.id.lut_name, mod.id.tile, mod.id.slice, mod.golden_tt, mod.suspect_tt, analysis.change_class)
	a.suspicion_reason = "Truth table " + analysis.semantic
	a.attack_vectors = []string{"lut_truth_table_modification", "hidden_logic_insertion"}
	return a
}

// analysis_skipped_anomaly records a degraded reconstruction pass
// without disturbing the frame-level results.
func analysis_skipped_anomaly(kind string, why string) *frame_anomaly {
	return &frame_anomaly{
		id:               "info_" + kind + "_skipped",
		atype:            ANOMALY_FRAME_MODIFIED,
		severity:         SEVERITY_INFO,
		block_type:       BLOCK_RESERVED,
		block_type_name:  block_type_name(BLOCK_RESERVED),
		description:      kind + " analysis skipped: " + why,
		suspicion_reason: "Reconstruction unavailable",
	}
}
