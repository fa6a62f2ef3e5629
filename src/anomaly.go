package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Anomaly records and the detection report.
 *
 * Description: Every divergence the detector finds becomes one
 *		frame_anomaly.  The report collects them during
 *		detection and freezes its verdict on finalize.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strings"
)

type anomaly_type int

const (
	ANOMALY_FRAME_ADDED anomaly_type = iota
	ANOMALY_FRAME_REMOVED
	ANOMALY_FRAME_MODIFIED
	ANOMALY_UNUSED_REGION_MOD
	ANOMALY_ROUTING_CHANGE
	ANOMALY_LOGIC_CHANGE
	ANOMALY_CLOCK_CHANGE
	ANOMALY_IO_CHANGE
)

func (at anomaly_type) String() string {
	switch at {
	case ANOMALY_FRAME_ADDED:
		return "frame_added"
	case ANOMALY_FRAME_REMOVED:
		return "frame_removed"
	case ANOMALY_FRAME_MODIFIED:
		return "frame_modified"
	case ANOMALY_UNUSED_REGION_MOD:
		return "unused_region_mod"
	case ANOMALY_ROUTING_CHANGE:
		return "routing_change"
	case ANOMALY_LOGIC_CHANGE:
		return "logic_change"
	case ANOMALY_CLOCK_CHANGE:
		return "clock_change"
	case ANOMALY_IO_CHANGE:
		return "io_change"
	}
	return "unknown"
}

type severity_level int

const (
	SEVERITY_INFO severity_level = iota
	SEVERITY_LOW
	SEVERITY_MEDIUM
	SEVERITY_HIGH
	SEVERITY_CRITICAL
)

func (sl severity_level) String() string {
	switch sl {
	case SEVERITY_CRITICAL:
		return "CRITICAL"
	case SEVERITY_HIGH:
		return "HIGH"
	case SEVERITY_MEDIUM:
		return "MEDIUM"
	case SEVERITY_LOW:
		return "LOW"
	}
	return "INFO"
}

// Sample at most this many differing bit offsets per anomaly.
const max_sampled_bit_positions = 100

type frame_anomaly struct {
	id       string
	atype    anomaly_type
	severity severity_level

	far             uint32
	block_type      int
	block_type_name string
	column          int
	minor           int
	top_bottom      int

	tiles_affected []string
	tiles_used     []string
	tiles_unused   []string

	bits_changed          int
	changed_bit_positions []int // first 100

	is_routing_frame bool
	is_logic_frame   bool
	is_clock_frame   bool
	is_io_frame      bool

	golden_data  []byte
	suspect_data []byte

	description      string
	suspicion_reason string
	attack_vectors   []string
	confidence       float64
	transient        bool
}

// in_unused_region reports whether the anomaly lands mostly on tiles
// the legitimate design does not occupy.
func (a *frame_anomaly) in_unused_region() bool {
	return len(a.tiles_unused) > len(a.tiles_used)
}

func (a *frame_anomaly) add_attack_vector(vector string) {
	for _, v := range a.attack_vectors {
		if v == vector {
			return
		}
	}
	a.attack_vectors = append(a.attack_vectors, vector)
}

func (a *frame_anomaly) summary_line() string {
	return fmt.Sprintf("%s: %s @ FAR %s (%s) - %d bits changed",
		a.severity, a.atype, far_hex(a.far), a.block_type_name, a.bits_changed)
}

func (a *frame_anomaly) String() string {
	return a.summary_line()
}

// anomaly_cluster groups spatially adjacent anomalies; a Trojan's
// footprint usually spans a handful of neighboring columns.
type anomaly_cluster struct {
	cluster_id string
	anomalies  []*frame_anomaly

	column_lo, column_hi int
	max_severity         severity_level
	avg_confidence       float64
}

func (c *anomaly_cluster) size() int {
	return len(c.anomalies)
}

func (c *anomaly_cluster) total_bits_changed() int {
	var n = 0
	for _, a := range c.anomalies {
		n += a.bits_changed
	}
	return n
}

type anomaly_report struct {
	golden_id  string
	suspect_id string

	anomalies []*frame_anomaly
	clusters  []*anomaly_cluster

	total_frames_compared   int
	frames_with_differences int
	total_bits_changed      int

	critical_count int
	high_count     int
	medium_count   int
	low_count      int
	info_count     int

	type_counts map[string]int

	trojan_detected bool
	confidence      float64
	summary         string
	finalized       bool
}

func new_anomaly_report(golden_id string, suspect_id string) *anomaly_report {
	return &anomaly_report{
		golden_id:   golden_id,
		suspect_id:  suspect_id,
		type_counts: make(map[string]int),
	}
}

func (r *anomaly_report) add(a *frame_anomaly) {
	r.anomalies = append(r.anomalies, a)

	switch a.severity {
	case SEVERITY_CRITICAL:
		r.critical_count++
	case SEVERITY_HIGH:
		r.high_count++
	case SEVERITY_MEDIUM:
		r.medium_count++
	case SEVERITY_LOW:
		r.low_count++
	default:
		r.info_count++
	}

	r.type_counts[a.atype.String()]++
	r.total_bits_changed += a.bits_changed
	if a.bits_changed > 0 {
		r.frames_with_differences++
	}
}

// recount rebuilds the per-severity tallies; the detector calls it
// after phase 4 reassigns severities in place.
func (r *anomaly_report) recount() {
	r.critical_count = 0
	r.high_count = 0
	r.medium_count = 0
	r.low_count = 0
	r.info_count = 0
	for _, a := range r.anomalies {
		switch a.severity {
		case SEVERITY_CRITICAL:
			r.critical_count++
		case SEVERITY_HIGH:
			r.high_count++
		case SEVERITY_MEDIUM:
			r.medium_count++
		case SEVERITY_LOW:
			r.low_count++
		default:
			r.info_count++
		}
	}
}

// finalize computes the verdict from the current anomaly list.  It
// recomputes everything from scratch, so it may run again after more
// anomalies are added (the enhanced detector does this).
func (r *anomaly_report) finalize() {
	r.recount()

	r.trojan_detected = r.critical_count > 0 || r.high_count >= 3

	r.confidence = 0
	if len(r.anomalies) > 0 {
		var sum = 0.0
		for _, a := range r.anomalies {
			sum += a.confidence
		}
		r.confidence = sum / float64(len(r.anomalies))
	}

	r.clusters = build_clusters(r.anomalies)
	r.summary = r.generate_summary()
	r.finalized = true
}

// build_clusters merges anomalies whose columns touch (distance <= 1)
// into one cluster, scanning in report order.  The result is a hint
// for the reviewer, not a judgment.
func build_clusters(anomalies []*frame_anomaly) []*anomaly_cluster {
	var clusters []*anomaly_cluster

	for _, a := range anomalies {
		var joined *anomaly_cluster
		for _, c := range clusters {
			if a.column >= c.column_lo-1 && a.column <= c.column_hi+1 {
				joined = c
				break
			}
		}
		if joined == nil {
			joined = &anomaly_cluster{
				cluster_id: fmt.Sprintf("cluster_%02d", len(clusters)),
				column_lo:  a.column,
				column_hi:  a.column,
			}
			clusters = append(clusters, joined)
		}
		joined.anomalies = append(joined.anomalies, a)
		if a.column < joined.column_lo {
			joined.column_lo = a.column
		}
		if a.column > joined.column_hi {
			joined.column_hi = a.column
		}
	}

	for _, c := range clusters {
		var sum = 0.0
		for _, a := range c.anomalies {
			if a.severity > c.max_severity {
				c.max_severity = a.severity
			}
			sum += a.confidence
		}
		c.avg_confidence = sum / float64(len(c.anomalies))
	}

	return clusters
}

func (r *anomaly_report) verdict() string {
	switch {
	case r.trojan_detected:
		return "TROJAN DETECTED"
	case r.high_count > 0 || r.medium_count > 0:
		return "SUSPICIOUS MODIFICATIONS FOUND"
	case len(r.anomalies) > 0 || r.total_bits_changed > 0:
		return "MODIFICATIONS DETECTED"
	}
	return "NO SIGNIFICANT ANOMALIES"
}

func (r *anomaly_report) transient_count() int {
	var n = 0
	for _, a := range r.anomalies {
		if a.transient {
			n++
		}
	}
	return n
}

func (r *anomaly_report) generate_summary() string {
	var lines = []string{
		r.verdict(),
		"",
		fmt.Sprintf("Compared: %s vs %s", r.golden_id, r.suspect_id),
		fmt.Sprintf("Total Frames Compared: %d", r.total_frames_compared),
		fmt.Sprintf("Frames with Differences: %d", r.frames_with_differences),
		fmt.Sprintf("Total Bits Changed: %d", r.total_bits_changed),
		"",
		"Anomaly Breakdown:",
		fmt.Sprintf("  CRITICAL: %d", r.critical_count),
		fmt.Sprintf("  HIGH:     %d", r.high_count),
		fmt.Sprintf("  MEDIUM:   %d", r.medium_count),
		fmt.Sprintf("  LOW:      %d", r.low_count),
	}
	if transient := r.transient_count(); transient > 0 {
		lines = append(lines, "",
			fmt.Sprintf("Transient configuration evidence: %d anomalies from intermediate writes", transient))
	}
	lines = append(lines, "", fmt.Sprintf("Overall Confidence: %.2f", r.confidence))
	return strings.Join(lines, "\n")
}

func (r *anomaly_report) critical_anomalies() []*frame_anomaly {
	return r.filter(func(a *frame_anomaly) bool { return a.severity == SEVERITY_CRITICAL })
}

func (r *anomaly_report) high_severity_anomalies() []*frame_anomaly {
	return r.filter(func(a *frame_anomaly) bool { return a.severity == SEVERITY_HIGH })
}

func (r *anomaly_report) unused_region_anomalies() []*frame_anomaly {
	return r.filter(func(a *frame_anomaly) bool { return a.in_unused_region() })
}

func (r *anomaly_report) routing_anomalies() []*frame_anomaly {
	return r.filter(func(a *frame_anomaly) bool { return a.is_routing_frame })
}

func (r *anomaly_report) by_type(t anomaly_type) []*frame_anomaly {
	return r.filter(func(a *frame_anomaly) bool { return a.atype == t })
}

func (r *anomaly_report) filter(keep func(*frame_anomaly) bool) []*frame_anomaly {
	var result []*frame_anomaly
	for _, a := range r.anomalies {
		if keep(a) {
			result = append(result, a)
		}
	}
	return result
}
