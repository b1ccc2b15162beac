// Package universe holds the fixed catalog of ticker symbols the tool knows
// about, grouped by sector.
package universe

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sector is an ordered group of ticker symbols.
type Sector struct {
	Key     string
	Name    string
	Symbols []string
}

// Universe is an immutable, ordered set of sectors.
type Universe struct {
	sectors []Sector
	byKey   map[string]int
}

var defaultSectors = []Sector{
	{Key: "materials", Symbols: []string{"AEM.TO", "ABX.TO", "CCL.B.TO", "FM.TO", "FNV.TO", "K.TO", "NTR.TO", "TECK.B.TO", "WPM.TO"}},
	{Key: "communication-services", Symbols: []string{"BCE.TO", "RCI.B.TO", "T.TO"}},
	{Key: "consumer-cyclical", Symbols: []string{"CTC.A.TO", "GIL.TO", "MG.TO", "QSR.TO"}},
	{Key: "consumer-staples", Symbols: []string{"ATD.TO", "DOL.TO", "L.TO", "MRU.TO", "SAP.TO", "WN.TO"}},
	{Key: "energy", Symbols: []string{"CCO.TO", "CNQ.TO", "CVE.TO", "ENB.TO", "IMO.TO", "PPL.TO", "SU.TO", "TOU.TO", "TRP.TO"}},
	{Key: "financial-services", Symbols: []string{"BAM.TO", "BMO.TO", "BN.TO", "BNS.TO", "CM.TO", "IFC.TO", "MFC.TO", "NA.TO", "POW.TO", "RY.TO", "SLF.TO", "TD.TO"}},
	{Key: "industrials", Symbols: []string{"CAE.TO", "CNR.TO", "CP.TO", "TRI.TO", "WCN.TO", "WSP.TO"}},
	{Key: "information-technology", Symbols: []string{"CSU.TO", "GIB.A.TO", "OTEX.TO", "SHOP.TO"}},
	{Key: "real-estate", Symbols: []string{"CAR.UN.TO", "FSV.TO"}},
	{Key: "utilities", Symbols: []string{"AQN.TO", "BIP.UN.TO", "EMA.TO", "FTS.TO", "H.TO"}},
}

// Default returns the built-in TSX universe.
func Default() *Universe {
	u, err := New(defaultSectors)
	if err != nil {
		panic(err)
	}
	return u
}

// New builds a universe from sectors. Keys are normalized to lower case and
// must be unique; every sector must list at least one symbol.
func New(sectors []Sector) (*Universe, error) {
	u := &Universe{
		sectors: make([]Sector, 0, len(sectors)),
		byKey:   make(map[string]int, len(sectors)),
	}
	for _, s := range sectors {
		key := normalizeKey(s.Key)
		if key == "" {
			return nil, fmt.Errorf("sector with empty key")
		}
		if _, dup := u.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate sector %q", key)
		}
		symbols := Union(s.Symbols)
		if len(symbols) == 0 {
			return nil, fmt.Errorf("sector %q has no symbols", key)
		}
		name := s.Name
		if name == "" {
			name = DisplayName(key)
		}
		u.byKey[key] = len(u.sectors)
		u.sectors = append(u.sectors, Sector{Key: key, Name: name, Symbols: symbols})
	}
	return u, nil
}

// Sectors returns the sectors in catalog order.
func (u *Universe) Sectors() []Sector {
	out := make([]Sector, len(u.sectors))
	for i, s := range u.sectors {
		out[i] = Sector{Key: s.Key, Name: s.Name, Symbols: append([]string(nil), s.Symbols...)}
	}
	return out
}

// Sector looks a sector up by key or display name, ignoring case.
func (u *Universe) Sector(key string) (Sector, bool) {
	i, ok := u.byKey[normalizeKey(key)]
	if !ok {
		return Sector{}, false
	}
	s := u.sectors[i]
	return Sector{Key: s.Key, Name: s.Name, Symbols: append([]string(nil), s.Symbols...)}, true
}

// Expand returns the symbols of the named sectors, sector by sector in the
// order given.
func (u *Universe) Expand(keys []string) ([]string, error) {
	var lists [][]string
	for _, key := range keys {
		s, ok := u.Sector(key)
		if !ok {
			return nil, fmt.Errorf("unknown sector %q", key)
		}
		lists = append(lists, s.Symbols)
	}
	return Union(lists...), nil
}

// Symbols returns every symbol of the universe in catalog order.
func (u *Universe) Symbols() []string {
	lists := make([][]string, 0, len(u.sectors))
	for _, s := range u.sectors {
		lists = append(lists, s.Symbols)
	}
	return Union(lists...)
}

// Union flattens lists into one symbol list. Symbols are trimmed and upper
// cased; blanks are dropped and duplicates keep their first position.
func Union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, s := range list {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// DisplayName turns a sector key such as "real-estate" into "Real Estate".
func DisplayName(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "-", " "))
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Join(strings.Fields(strings.ReplaceAll(key, "_", " ")), "-")
}
