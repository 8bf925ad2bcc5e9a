package ml

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Catalog is the set of categorical values the pipeline was fitted on.
// It is read-only after construction.
type Catalog struct {
	values map[string][]string
	index  map[string]map[string]struct{}
}

// NewCatalog builds a catalog from raw values. Values are trimmed,
// de-duplicated and sorted; blanks are dropped.
func NewCatalog(crops, seasons, states []string) *Catalog {
	c := &Catalog{
		values: make(map[string][]string, 3),
		index:  make(map[string]map[string]struct{}, 3),
	}
	c.set(ColumnCrop, crops)
	c.set(ColumnSeason, seasons)
	c.set(ColumnState, states)
	return c
}

func (c *Catalog) set(column string, raw []string) {
	seen := make(map[string]struct{}, len(raw))
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	c.values[column] = values
	c.index[column] = seen
}

func (c *Catalog) Crops() []string   { return c.Values(ColumnCrop) }
func (c *Catalog) Seasons() []string { return c.Values(ColumnSeason) }
func (c *Catalog) States() []string  { return c.Values(ColumnState) }

// Values returns a sorted copy of the values of a categorical column.
func (c *Catalog) Values(column string) []string {
	return append([]string(nil), c.values[column]...)
}

func (c *Catalog) Contains(column, value string) bool {
	_, ok := c.index[column][value]
	return ok
}

// Validate checks the request's categorical fields.
func (c *Catalog) Validate(req Request) error {
	checks := []struct {
		column string
		value  string
	}{
		{ColumnCrop, req.Crop},
		{ColumnSeason, req.Season},
		{ColumnState, req.State},
	}
	for _, ch := range checks {
		if !c.Contains(ch.column, ch.value) {
			return invalidCategory(ch.column, ch.value)
		}
	}
	return nil
}

// LoadCatalog reads the reference table. .xlsx files are read from their
// first sheet; anything else is parsed as CSV. The header row must name
// Crop, Season and State; other columns are ignored.
func LoadCatalog(path string) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, artifactError("catalog", err, "reference table not readable")
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSXRows(path)
	default:
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, artifactError("catalog", err, "reference table corrupt")
	}
	return catalogFromRows(rows)
}

func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func catalogFromRows(rows [][]string) (*Catalog, error) {
	if len(rows) < 2 {
		return nil, artifactError("catalog", nil, "reference table needs a header row and at least one data row")
	}

	positions := make(map[string]int, 3)
	for i, header := range rows[0] {
		name := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		for _, column := range CategoricalNames() {
			if name == column {
				positions[column] = i
			}
		}
	}
	for _, column := range CategoricalNames() {
		if _, ok := positions[column]; !ok {
			return nil, artifactError("catalog", nil, "reference table is missing column %q", column)
		}
	}

	collected := make(map[string][]string, 3)
	for _, row := range rows[1:] {
		for column, pos := range positions {
			if pos < len(row) {
				collected[column] = append(collected[column], row[pos])
			}
		}
	}

	catalog := NewCatalog(collected[ColumnCrop], collected[ColumnSeason], collected[ColumnState])
	for _, column := range CategoricalNames() {
		if len(catalog.values[column]) == 0 {
			return nil, artifactError("catalog", nil, "reference table has no values for %q", column)
		}
	}
	return catalog, nil
}
