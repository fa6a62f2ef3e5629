package bitsentry

/*------------------------------------------------------------------
 *
 * Purpose:	Operator-supplied used-tile lists.
 *
 * Description: A YAML document naming the tiles the legitimate
 *		design occupies:
 *
 *			tiles:
 *			  - CLBLL_X23Y45
 *			  - INT_X23Y45
 *
 *		When no list is supplied the baseline builder infers
 *		usage from frame occupancy instead.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type used_tiles_file struct {
	Tiles []string `yaml:"tiles"`
}

// load_used_tiles reads a tile list.  An empty document yields an
// empty (but non-nil) set, which callers treat as "everything
// unused" rather than "infer".
func load_used_tiles(path string) (map[string]bool, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("used-tile list: %w", err)
	}

	var parsed used_tiles_file
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("used-tile list %s: %w", path, err)
	}

	var tiles = make(map[string]bool)
	for _, name := range parsed.Tiles {
		name = strings.TrimSpace(name)
		if name != "" {
			tiles[name] = true
		}
	}

	ambient_log.Debug("used-tile list loaded", "path", path, "tiles", len(tiles))
	return tiles, nil
}
