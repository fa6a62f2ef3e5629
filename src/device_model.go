package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Read-only query surface over the static device data.
 *
 * Description: Six JSON files describe the device: info, tile types,
 *		tiles, wires, sites, PIPs.  They come from an external
 *		extractor; this layer indexes them and answers the
 *		queries the mappers and reconstructors need.
 *
 *		Bad device data cannot yield trustworthy detections,
 *		so validation failures are fatal at construction.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type device_info struct {
	Part       string `json:"part"`
	PartName   string `json:"partName"`
	FamilyType string `json:"familyType"`
	Rows       int    `json:"rows"`
	Cols       int    `json:"cols"`
}

type tile_type struct {
	Name string `json:"name"`
}

type tile struct {
	Name string `json:"name"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Type string `json:"type"`
}

type wire struct {
	Tile   string `json:"tile"`
	WireId int    `json:"wireId"`
}

type site struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Tile string `json:"tile"`
}

type pip struct {
	Tile        string `json:"tile"`
	StartWireId int    `json:"startWireId"`
	EndWireId   int    `json:"endWireId"`
}

type device_model struct {
	info       device_info
	tile_types []tile_type
	tiles      []*tile
	wires      []*wire
	sites      []*site
	pips       []*pip

	tiles_by_name  map[string]*tile
	tiles_by_coord map[[2]int]*tile
	tiles_by_type  map[string][]*tile
	wires_by_tile  map[string][]*wire
	sites_by_tile  map[string][]*site
	pips_by_tile   map[string][]*pip
}

type device_paths struct {
	device_info string
	tile_types  string
	tiles       string
	wires       string
	sites       string
	pips        string
}

// load_device_model reads the six-file JSON bundle, builds the
// indices, and validates cross references.
func load_device_model(paths device_paths) (*device_model, error) {
	var dm = &device_model{}

	if err := read_json(paths.device_info, &dm.info); err != nil {
		return nil, err
	}
	if err := read_json(paths.tile_types, &dm.tile_types); err != nil {
		return nil, err
	}
	if err := read_json(paths.tiles, &dm.tiles); err != nil {
		return nil, err
	}
	if err := read_json(paths.wires, &dm.wires); err != nil {
		return nil, err
	}
	if err := read_json(paths.sites, &dm.sites); err != nil {
		return nil, err
	}
	if err := read_json(paths.pips, &dm.pips); err != nil {
		return nil, err
	}

	dm.build_indices()
	if err := dm.validate(); err != nil {
		return nil, err
	}

	ambient_log.Debug("device model loaded",
		"part", dm.info.Part,
		"tiles", len(dm.tiles),
		"wires", len(dm.wires),
		"pips", len(dm.pips))

	return dm, nil
}

// new_device_model builds a model from already-decoded collections
// (tests construct small devices this way).
func new_device_model(info device_info, types []tile_type, tiles []*tile,
	wires []*wire, sites []*site, pips []*pip) (*device_model, error) {

	var dm = &device_model{
		info:       info,
		tile_types: types,
		tiles:      tiles,
		wires:      wires,
		sites:      sites,
		pips:       pips,
	}
	dm.build_indices()
	if err := dm.validate(); err != nil {
		return nil, err
	}
	return dm, nil
}

func read_json(path string, out interface{}) error {
	var data, err = os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("device data: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("device data %s: %w", path, err)
	}
	return nil
}

func (dm *device_model) build_indices() {
	dm.tiles_by_name = make(map[string]*tile, len(dm.tiles))
	dm.tiles_by_coord = make(map[[2]int]*tile, len(dm.tiles))
	dm.tiles_by_type = make(map[string][]*tile)
	for _, t := range dm.tiles {
		dm.tiles_by_name[t.Name] = t
		dm.tiles_by_coord[[2]int{t.Col, t.Row}] = t
		dm.tiles_by_type[t.Type] = append(dm.tiles_by_type[t.Type], t)
	}

	dm.wires_by_tile = make(map[string][]*wire)
	for _, w := range dm.wires {
		dm.wires_by_tile[w.Tile] = append(dm.wires_by_tile[w.Tile], w)
	}
	dm.sites_by_tile = make(map[string][]*site)
	for _, s := range dm.sites {
		dm.sites_by_tile[s.Tile] = append(dm.sites_by_tile[s.Tile], s)
	}
	dm.pips_by_tile = make(map[string][]*pip)
	for _, p := range dm.pips {
		dm.pips_by_tile[p.Tile] = append(dm.pips_by_tile[p.Tile], p)
	}
}

// validate checks that every wire, site, and PIP names a tile that
// exists.  Any dangling reference is fatal.
func (dm *device_model) validate() error {
	for _, w := range dm.wires {
		if dm.tiles_by_name[w.Tile] == nil {
			return fmt.Errorf("device data: wire %d references unknown tile %q", w.WireId, w.Tile)
		}
	}
	for _, s := range dm.sites {
		if dm.tiles_by_name[s.Tile] == nil {
			return fmt.Errorf("device data: site %q references unknown tile %q", s.Name, s.Tile)
		}
	}
	for _, p := range dm.pips {
		if dm.tiles_by_name[p.Tile] == nil {
			return fmt.Errorf("device data: pip %d->%d references unknown tile %q", p.StartWireId, p.EndWireId, p.Tile)
		}
	}
	return nil
}

func (dm *device_model) dimensions() (int, int) {
	return dm.info.Cols, dm.info.Rows
}

func (dm *device_model) tile_by_name(name string) *tile {
	return dm.tiles_by_name[name]
}

func (dm *device_model) tile_at(col int, row int) *tile {
	return dm.tiles_by_coord[[2]int{col, row}]
}

func (dm *device_model) tiles_of_type(name string) []*tile {
	return dm.tiles_by_type[name]
}

func (dm *device_model) tiles_in_row(row int) []*tile {
	var result []*tile
	for _, t := range dm.tiles {
		if t.Row == row {
			result = append(result, t)
		}
	}
	return result
}

func (dm *device_model) tiles_in_column(col int) []*tile {
	var result []*tile
	for _, t := range dm.tiles {
		if t.Col == col {
			result = append(result, t)
		}
	}
	return result
}

func (dm *device_model) wires_of_tile(name string) []*wire {
	return dm.wires_by_tile[name]
}

func (dm *device_model) pips_of_tile(name string) []*pip {
	return dm.pips_by_tile[name]
}

func (dm *device_model) sites_of_tile(name string) []*site {
	return dm.sites_by_tile[name]
}

type routing_edge struct {
	end_tile string
	end_wire int
}

// pips_from returns the routing-graph edges leaving (tile, wire_id).
// PIPs are tile-local on this device, so the end tile is the PIP's
// own tile.
func (dm *device_model) pips_from(tile_name string, wire_id int) []routing_edge {
	var edges []routing_edge
	for _, p := range dm.pips_by_tile[tile_name] {
		if p.StartWireId == wire_id {
			edges = append(edges, routing_edge{end_tile: p.Tile, end_wire: p.EndWireId})
		}
	}
	return edges
}

// Tile classification by canonical type-name substrings.
func is_routing_tile(t *tile) bool {
	return contains_any(t.Type, "INT", "INTERCONNECT")
}

func is_logic_tile(t *tile) bool {
	return contains_any(t.Type, "CLB", "SLICE", "LOGIC")
}

func is_clock_tile(t *tile) bool {
	return contains_any(t.Type, "HCLK", "CLK", "BUFG", "CMT")
}

func contains_any(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
