package units

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/condoboard/assembly-vote/models"
)

// Directory is the immutable unit roster, loaded once at startup. All
// lookups normalize block and unit spellings so "Bloco A"/"0012" and
// "A"/"12" resolve to the same unit.
type Directory struct {
	units []models.Unit
	byKey map[string]models.Unit
}

type rosterEntry struct {
	ID       int     `json:"id"`
	Block    string  `json:"block"`
	Unit     string  `json:"unit"`
	Fraction float64 `json:"fraction"`
	Code     string  `json:"code"`
}

// Load reads the roster JSON file and builds the directory.
func Load(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit roster: %w", err)
	}

	var entries []rosterEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse unit roster %s: %w", path, err)
	}

	d := &Directory{byKey: make(map[string]models.Unit, len(entries))}
	for _, e := range entries {
		block, unit := Normalize(e.Block, e.Unit)
		if e.Fraction <= 0 || e.Fraction > 1 {
			return nil, fmt.Errorf("unit %s/%s: fraction %v out of range (0, 1]", block, unit, e.Fraction)
		}
		u := models.Unit{
			ID:           e.ID,
			Block:        block,
			UnitID:       unit,
			Fraction:     e.Fraction,
			AccessSecret: e.Code,
		}
		key := block + "/" + unit
		if _, dup := d.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate unit %s in roster", key)
		}
		d.byKey[key] = u
		d.units = append(d.units, u)
	}

	return d, nil
}

// Normalize canonicalizes block and unit spellings: the block is uppercased
// with a leading "BLOCO" prefix stripped, the unit loses leading zeros.
func Normalize(block, unit string) (string, string) {
	b := strings.ToUpper(strings.TrimSpace(block))
	b = strings.TrimSpace(strings.TrimPrefix(b, "BLOCO"))
	u := strings.TrimLeft(strings.TrimSpace(unit), "0")
	return b, u
}

// List returns every unit in roster order.
func (d *Directory) List() []models.Unit {
	out := make([]models.Unit, len(d.units))
	copy(out, d.units)
	return out
}

// FindByBlockUnit looks up one unit by its normalized identity.
func (d *Directory) FindByBlockUnit(block, unit string) (models.Unit, bool) {
	b, u := Normalize(block, unit)
	found, ok := d.byKey[b+"/"+u]
	return found, ok
}

// FindByID looks up one unit by its roster id.
func (d *Directory) FindByID(id int) (models.Unit, bool) {
	for _, u := range d.units {
		if u.ID == id {
			return u, true
		}
	}
	return models.Unit{}, false
}
