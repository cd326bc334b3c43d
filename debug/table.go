package debug

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lumastream/podwire/errors"
)

// ObjectInfo names one object type and its property keys.
type ObjectInfo struct {
	Name string            `yaml:"name"`
	Keys map[uint32]string `yaml:"keys"`
}

// TypeTable maps the numeric tags that appear on the wire to readable
// names. Tags without an entry render as plain numbers, so an empty
// table is always usable.
type TypeTable struct {
	Objects  map[uint32]ObjectInfo `yaml:"objects"`
	Ids      map[uint32]string     `yaml:"ids"`
	Controls map[uint32]string     `yaml:"controls"`
	Pointers map[uint32]string     `yaml:"pointers"`
}

// DefaultTable returns an empty table; everything renders numerically.
func DefaultTable() *TypeTable {
	return &TypeTable{}
}

// LoadTable parses a YAML type table.
//
// The layout mirrors the struct:
//
//	objects:
//	  262147:
//	    name: Format
//	    keys:
//	      1: mediaType
//	ids:
//	  1: audio
func LoadTable(r io.Reader) (*TypeTable, error) {
	var t TypeTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(errors.PhaseTooling, errors.KindInvalidData, err, "type table")
	}
	return &t, nil
}

// LoadTableFile reads a YAML type table from disk.
func LoadTableFile(path string) (*TypeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTooling, errors.KindInvalidData, err, "type table")
	}
	defer f.Close()
	return LoadTable(f)
}

// ObjectName renders an object type tag.
func (t *TypeTable) ObjectName(typ uint32) string {
	if t != nil {
		if info, ok := t.Objects[typ]; ok && info.Name != "" {
			return fmt.Sprintf("%s (%d)", info.Name, typ)
		}
	}
	return fmt.Sprintf("%d", typ)
}

// KeyName renders a property key within an object type.
func (t *TypeTable) KeyName(objType, key uint32) string {
	if t != nil {
		if info, ok := t.Objects[objType]; ok {
			if name, ok := info.Keys[key]; ok {
				return fmt.Sprintf("%s (%d)", name, key)
			}
		}
	}
	return fmt.Sprintf("%d", key)
}

// IdName renders an id value.
func (t *TypeTable) IdName(id uint32) string {
	if t != nil {
		if name, ok := t.Ids[id]; ok {
			return fmt.Sprintf("%s (%d)", name, id)
		}
	}
	return fmt.Sprintf("%d", id)
}

// ControlName renders a sequence control type.
func (t *TypeTable) ControlName(ctype uint32) string {
	if t != nil {
		if name, ok := t.Controls[ctype]; ok {
			return fmt.Sprintf("%s (%d)", name, ctype)
		}
	}
	return fmt.Sprintf("%d", ctype)
}

// PointerName renders a pointer type tag.
func (t *TypeTable) PointerName(ptype uint32) string {
	if t != nil {
		if name, ok := t.Pointers[ptype]; ok {
			return fmt.Sprintf("%s (%d)", name, ptype)
		}
	}
	return fmt.Sprintf("%d", ptype)
}
