package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Workflow driver behind cmd/bitsentry.
 *
 * Description: Loads the golden reference (a .bit file or a saved
 *		baseline), loads the suspect, runs detection, prints
 *		the verdict, and optionally writes report files and a
 *		floorplan heatmap.  Orchestration only; every decision
 *		is the detector's.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"
)

func DetectMain() {
	var flags = flag.NewFlagSet("bitsentry", flag.ExitOnError)
	var golden_path = flags.String("golden", "", "golden .bit file or saved .baseline")
	var suspect_path = flags.String("suspect", "", "suspect .bit file")
	var used_tiles_path = flags.String("used-tiles", "", "YAML list of tiles the design occupies")
	var device_dir = flags.String("device-dir", "", "directory with the device JSON bundle (used by --enhanced for routing analysis)")
	var enhanced = flags.Bool("enhanced", false, "run routing/logic reconstruction on top of the frame diff")
	var out_dir = flags.String("out", "", "write text/JSON/Markdown reports under this directory")
	var floorplan_path = flags.String("floorplan", "", "write an anomaly heatmap PNG")
	var verbose = flags.BoolP("verbose", "v", false, "debug logging")

	flags.Parse(os.Args[1:]) //nolint:errcheck // ExitOnError

	if *verbose {
		ambient_log.SetLevel(log.DebugLevel)
	}
	if *golden_path == "" || *suspect_path == "" {
		fmt.Fprintln(os.Stderr, "usage: bitsentry --golden GOLDEN --suspect SUSPECT [options]")
		flags.PrintDefaults()
		os.Exit(2)
	}

	var golden, err = load_golden(*golden_path, *used_tiles_path)
	if err != nil {
		ambient_log.Fatal("loading golden", "err", err)
	}

	var suspect *loaded_bitstream
	suspect, err = load_bitstream(*suspect_path)
	if err != nil {
		ambient_log.Fatal("loading suspect", "err", err)
	}

	var report *anomaly_report
	if *enhanced {
		var dm *device_model
		if *device_dir != "" {
			dm, err = load_device_model(device_bundle_paths(*device_dir))
			if err != nil {
				ambient_log.Fatal("loading device model", "err", err)
			}
		}
		report = new_enhanced_detector(dm).detect_enhanced(golden, suspect)
	} else {
		report = new_detector().detect(golden, suspect)
	}

	fmt.Println(report.summary)

	if *out_dir != "" {
		if _, err := write_report_files(report, *out_dir); err != nil {
			ambient_log.Error("writing reports", "err", err)
		}
	}
	if *floorplan_path != "" {
		if err := write_floorplan(report, *floorplan_path); err != nil {
			ambient_log.Error("writing floorplan", "err", err)
		}
	}

	if report.trojan_detected {
		os.Exit(1)
	}
}

func load_golden(path string, used_tiles_path string) (*golden_baseline, error) {
	var used_tiles map[string]bool
	if used_tiles_path != "" {
		var err error
		used_tiles, err = load_used_tiles(used_tiles_path)
		if err != nil {
			return nil, err
		}
	}

	if strings.HasSuffix(path, ".baseline") {
		var gb, err = load_baseline(path)
		if err != nil {
			return nil, err
		}
		if used_tiles != nil {
			gb.used_tiles = used_tiles
			gb.used_tiles_supplied = true
		}
		return gb, nil
	}

	var bs, err = load_bitstream(path)
	if err != nil {
		return nil, err
	}
	return build_golden_baseline(bs, "", nil, used_tiles)
}

func device_bundle_paths(dir string) device_paths {
	return device_paths{
		device_info: filepath.Join(dir, "deviceInfo.json"),
		tile_types:  filepath.Join(dir, "tileTypes.json"),
		tiles:       filepath.Join(dir, "tiles.json"),
		wires:       filepath.Join(dir, "wires.json"),
		sites:       filepath.Join(dir, "sites.json"),
		pips:        filepath.Join(dir, "pips.json"),
	}
}

/*------------------------------------------------------------------
 *
 * Purpose:	Workflow driver behind cmd/mkbaseline.
 *
 *------------------------------------------------------------------*/

func MkBaselineMain() {
	var flags = flag.NewFlagSet("mkbaseline", flag.ExitOnError)
	var out_path = flags.String("out", "", "output path (default: <id>_<stamp>.baseline)")
	var baseline_id = flags.String("id", "", "baseline identifier (default: golden_<filename>)")
	var used_tiles_path = flags.String("used-tiles", "", "YAML list of tiles the design occupies")
	var verbose = flags.BoolP("verbose", "v", false, "debug logging")

	flags.Parse(os.Args[1:]) //nolint:errcheck // ExitOnError

	if *verbose {
		ambient_log.SetLevel(log.DebugLevel)
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mkbaseline [options] golden.bit")
		flags.PrintDefaults()
		os.Exit(2)
	}

	var used_tiles map[string]bool
	if *used_tiles_path != "" {
		var err error
		used_tiles, err = load_used_tiles(*used_tiles_path)
		if err != nil {
			ambient_log.Fatal("loading used tiles", "err", err)
		}
	}

	var bs, err = load_bitstream(flags.Arg(0))
	if err != nil {
		ambient_log.Fatal("loading golden", "err", err)
	}

	var golden *golden_baseline
	golden, err = build_golden_baseline(bs, *baseline_id, nil, used_tiles)
	if err != nil {
		ambient_log.Fatal("building baseline", "err", err)
	}

	var path = *out_path
	if path == "" {
		path = default_baseline_name(golden.baseline_id)
	}
	if err := save_baseline(golden, path); err != nil {
		ambient_log.Fatal("saving baseline", "err", err)
	}

	fmt.Printf("Baseline %s: %d frames, %d used tiles -> %s\n",
		golden.baseline_id, golden.frame_count(), len(golden.used_tiles), path)
}
