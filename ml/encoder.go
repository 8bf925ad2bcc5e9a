package ml

import (
	"fmt"
	"strings"
)

// OneHotEncoder expands each categorical column into a block of indicator
// features. Block order follows the column list; within a block, the
// category order is the fitted order from the artifact.
type OneHotEncoder struct {
	columns    []string
	categories map[string][]string
	index      map[string]map[string]int
	width      int
}

func NewOneHotEncoder(columns []string, categories map[string][]string) (*OneHotEncoder, error) {
	enc := &OneHotEncoder{
		columns:    append([]string(nil), columns...),
		categories: make(map[string][]string, len(columns)),
		index:      make(map[string]map[string]int, len(columns)),
	}
	for _, column := range columns {
		values, ok := categories[column]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("encoder has no categories for %q", column)
		}
		idx := make(map[string]int, len(values))
		cleaned := make([]string, len(values))
		for i, v := range values {
			v = strings.TrimSpace(v)
			if _, dup := idx[v]; dup {
				return nil, fmt.Errorf("encoder category %q repeated in %q", v, column)
			}
			idx[v] = i
			cleaned[i] = v
		}
		enc.categories[column] = cleaned
		enc.index[column] = idx
		enc.width += len(values)
	}
	return enc, nil
}

// Width is the number of features the encoder emits.
func (e *OneHotEncoder) Width() int {
	return e.width
}

func (e *OneHotEncoder) Knows(column, value string) bool {
	_, ok := e.index[column][value]
	return ok
}

// Encode appends the indicator blocks for values to dst.
func (e *OneHotEncoder) Encode(dst []float64, values []string) ([]float64, error) {
	if len(values) != len(e.columns) {
		return nil, fmt.Errorf("expected %d categorical values, got %d", len(e.columns), len(values))
	}
	for i, column := range e.columns {
		pos, ok := e.index[column][values[i]]
		if !ok {
			return nil, invalidCategory(column, values[i])
		}
		block := make([]float64, len(e.categories[column]))
		block[pos] = 1
		dst = append(dst, block...)
	}
	return dst, nil
}
