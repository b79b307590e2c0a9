package scoring

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fallback values for keys missing from a lookup table.
const (
	defaultCompanySizeScore = 50
	defaultIndustryScore    = 60
	defaultSourceScore      = 50
	defaultTimelineScore    = 40
	defaultMultiplier       = 1.0
)

// Tables holds the lookup data behind the table-driven factors and the
// deal-value and conversion multipliers. Keys match exactly first and then
// case-insensitively.
type Tables struct {
	CompanySize            map[string]float64 `yaml:"company_size"`
	Industry               map[string]float64 `yaml:"industry"`
	Source                 map[string]float64 `yaml:"source"`
	Timeline               map[string]float64 `yaml:"timeline"`
	DealSizeMultiplier     map[string]float64 `yaml:"deal_size_multiplier"`
	DealIndustryMultiplier map[string]float64 `yaml:"deal_industry_multiplier"`
	ConversionMultiplier   map[string]float64 `yaml:"conversion_industry_multiplier"`
}

// DefaultTables returns the built-in lookup data.
func DefaultTables() Tables {
	return Tables{
		CompanySize: map[string]float64{
			"1-10":     40,
			"11-50":    65,
			"51-200":   85,
			"201-500":  90,
			"501-1000": 95,
			"1000+":    100,
		},
		Industry: map[string]float64{
			"Technology":    95,
			"Finance":       90,
			"Healthcare":    85,
			"Manufacturing": 75,
			"Retail":        70,
			"Education":     65,
		},
		Source: map[string]float64{
			"Referral":       95,
			"Website":        80,
			"LinkedIn":       75,
			"Trade Show":     70,
			"Email Campaign": 60,
			"Social Media":   55,
			"Cold Call":      45,
		},
		Timeline: map[string]float64{
			"Immediate": 100,
			"ASAP":      100,
			"Q1 2024":   95,
			"Q2 2024":   85,
			"Q3 2024":   70,
			"Q4 2024":   60,
			"2024":      50,
		},
		DealSizeMultiplier: map[string]float64{
			"1-10":     0.5,
			"11-50":    1.0,
			"51-200":   1.5,
			"201-500":  2.0,
			"501-1000": 2.5,
			"1000+":    3.5,
		},
		DealIndustryMultiplier: map[string]float64{
			"Technology":    1.5,
			"Finance":       2.0,
			"Healthcare":    1.8,
			"Manufacturing": 1.3,
			"Retail":        1.0,
		},
		ConversionMultiplier: map[string]float64{
			"Technology": 1.2,
			"Healthcare": 1.1,
			"Finance":    1.15,
		},
	}
}

// LoadTables reads a YAML file and overlays its entries on the defaults.
// An empty path returns the defaults unchanged.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read scoring tables: %w", err)
	}

	var overlay Tables
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return Tables{}, fmt.Errorf("parse scoring tables %s: %w", path, err)
	}

	tables.CompanySize = overlayTable(tables.CompanySize, overlay.CompanySize)
	tables.Industry = overlayTable(tables.Industry, overlay.Industry)
	tables.Source = overlayTable(tables.Source, overlay.Source)
	tables.Timeline = overlayTable(tables.Timeline, overlay.Timeline)
	tables.DealSizeMultiplier = overlayTable(tables.DealSizeMultiplier, overlay.DealSizeMultiplier)
	tables.DealIndustryMultiplier = overlayTable(tables.DealIndustryMultiplier, overlay.DealIndustryMultiplier)
	tables.ConversionMultiplier = overlayTable(tables.ConversionMultiplier, overlay.ConversionMultiplier)
	return tables, nil
}

func overlayTable(base, overlay map[string]float64) map[string]float64 {
	for k, v := range overlay {
		base[k] = v
	}
	return base
}

// lookupTable resolves keys exactly, then by case-folded match.
type lookupTable struct {
	exact  map[string]float64
	folded map[string]float64
}

func compileTable(src map[string]float64) lookupTable {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := lookupTable{
		exact:  make(map[string]float64, len(src)),
		folded: make(map[string]float64, len(src)),
	}
	for _, k := range keys {
		t.exact[k] = src[k]
		lower := strings.ToLower(k)
		if _, taken := t.folded[lower]; !taken {
			t.folded[lower] = src[k]
		}
	}
	return t
}

func (t lookupTable) get(key string) (float64, bool) {
	key = strings.TrimSpace(key)
	if v, ok := t.exact[key]; ok {
		return v, true
	}
	v, ok := t.folded[strings.ToLower(key)]
	return v, ok
}

func (t lookupTable) getOr(key string, fallback float64) float64 {
	if v, ok := t.get(key); ok {
		return v
	}
	return fallback
}

type compiledTables struct {
	companySize            lookupTable
	industry               lookupTable
	source                 lookupTable
	timeline               lookupTable
	dealSizeMultiplier     lookupTable
	dealIndustryMultiplier lookupTable
	conversionMultiplier   lookupTable
}

func compileTables(t Tables) compiledTables {
	return compiledTables{
		companySize:            compileTable(t.CompanySize),
		industry:               compileTable(t.Industry),
		source:                 compileTable(t.Source),
		timeline:               compileTable(t.Timeline),
		dealSizeMultiplier:     compileTable(t.DealSizeMultiplier),
		dealIndustryMultiplier: compileTable(t.DealIndustryMultiplier),
		conversionMultiplier:   compileTable(t.ConversionMultiplier),
	}
}
