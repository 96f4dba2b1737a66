package missions

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed packs/*.yaml
var builtinFS embed.FS

// Builtin returns the packs shipped with the binary.
func Builtin() ([]Pack, error) {
	return LoadPacks(builtinFS, "packs")
}

// LoadPacks reads every *.yaml file directly under root, sorted by pack id.
func LoadPacks(fsys fs.FS, root string) ([]Pack, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}
	packs := make([]Pack, 0, len(entries))
	seen := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		p := path.Join(root, entry.Name())
		pack, err := readPack(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("load pack %s: %w", p, err)
		}
		if other, dup := seen[pack.PackID]; dup {
			return nil, fmt.Errorf("pack_id %q defined in both %s and %s", pack.PackID, other, p)
		}
		seen[pack.PackID] = p
		packs = append(packs, pack)
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].PackID < packs[j].PackID })
	return packs, nil
}

func readPack(fsys fs.FS, p string) (Pack, error) {
	var pack Pack
	b, err := fs.ReadFile(fsys, p)
	if err != nil {
		return pack, err
	}
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return pack, err
	}
	if err := pack.Validate(); err != nil {
		return pack, err
	}
	pack.Path = p
	return pack, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Catalog indexes missions across packs by id, keeping pack order.
type Catalog struct {
	order []string
	byID  map[string]Mission
}

func NewCatalog(packs []Pack) (*Catalog, error) {
	c := &Catalog{byID: map[string]Mission{}}
	for _, p := range packs {
		for _, m := range p.Missions {
			if _, dup := c.byID[m.ID]; dup {
				return nil, fmt.Errorf("mission id %q appears in more than one pack", m.ID)
			}
			c.byID[m.ID] = m
			c.order = append(c.order, m.ID)
		}
	}
	return c, nil
}

func (c *Catalog) Get(id string) (Mission, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) Missions() []Mission {
	out := make([]Mission, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
