package outline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SortConfigVersion is the version tag of serialized sort configurations.
const SortConfigVersion = 4

const sortConfigPrefix = "S"

var (
	ErrSortConfigVersion = errors.New("unsupported sort config version")
	ErrSortConfigSyntax  = errors.New("malformed sort config")
)

// SortCriterion is one column's entry in a serialized sort configuration.
type SortCriterion struct {
	ColumnID  int
	Sequence  int
	Ascending bool
}

// EncodeSortConfig renders criteria as "S4\t<count>(\t<id>\t<seq>\t<asc>)*".
func EncodeSortConfig(criteria []SortCriterion) string {
	var b strings.Builder
	b.WriteString(sortConfigPrefix)
	b.WriteString(strconv.Itoa(SortConfigVersion))
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(len(criteria)))
	for _, c := range criteria {
		fmt.Fprintf(&b, "\t%d\t%d\t%t", c.ColumnID, c.Sequence, c.Ascending)
	}
	return b.String()
}

// ParseSortConfig decodes a string produced by EncodeSortConfig.
func ParseSortConfig(config string) ([]SortCriterion, error) {
	fields := strings.Split(config, "\t")
	if len(fields) < 2 || !strings.HasPrefix(fields[0], sortConfigPrefix) {
		return nil, ErrSortConfigSyntax
	}
	version, err := strconv.Atoi(strings.TrimPrefix(fields[0], sortConfigPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: version %q", ErrSortConfigSyntax, fields[0])
	}
	if version != SortConfigVersion {
		return nil, fmt.Errorf("%w: %d", ErrSortConfigVersion, version)
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil || count < 0 || len(fields) != 2+count*3 {
		return nil, fmt.Errorf("%w: column count", ErrSortConfigSyntax)
	}
	out := make([]SortCriterion, 0, count)
	for i := 0; i < count; i++ {
		base := 2 + i*3
		id, idErr := strconv.Atoi(fields[base])
		seq, seqErr := strconv.Atoi(fields[base+1])
		asc, ascErr := strconv.ParseBool(fields[base+2])
		if err := errors.Join(idErr, seqErr, ascErr); err != nil {
			return nil, fmt.Errorf("%w: column %d: %v", ErrSortConfigSyntax, i, err)
		}
		out = append(out, SortCriterion{ColumnID: id, Sequence: seq, Ascending: asc})
	}
	return out, nil
}

// SortConfig serializes the active sort, or returns "" when nothing sorts.
func (m *Model) SortConfig() string {
	var criteria []SortCriterion
	active := false
	for _, col := range m.columns {
		if col.sequence >= 0 {
			active = true
		}
		criteria = append(criteria, SortCriterion{ColumnID: col.ID, Sequence: col.sequence, Ascending: col.ascending})
	}
	if !active {
		return ""
	}
	return EncodeSortConfig(criteria)
}

// ApplySortConfig restores sort criteria from config and sorts. It returns
// false when config is rejected. A config with the current version that
// fails to parse or names an unknown column leaves the sort cleared. Any
// other rejected config leaves the model untouched. An empty config clears
// the sort and reports true.
func (m *Model) ApplySortConfig(config string) bool {
	switch m.applySortCriteria(config) {
	case sortApplied:
		m.Sort()
		return true
	case sortReset:
		m.notify(func(l Listener) { l.SortCleared(m) })
		return true
	case sortRejectedCleared:
		m.notify(func(l Listener) { l.SortCleared(m) })
	}
	return false
}

type sortApplyResult int

const (
	sortRejected sortApplyResult = iota
	sortRejectedCleared
	sortReset
	sortApplied
)

// applySortCriteria sets column sequences only. Rows are not reordered.
func (m *Model) applySortCriteria(config string) sortApplyResult {
	if config == "" {
		m.clearSortInternal()
		return sortReset
	}
	criteria, err := ParseSortConfig(config)
	if errors.Is(err, ErrSortConfigVersion) || (err != nil && !strings.HasPrefix(config, sortConfigPrefix+strconv.Itoa(SortConfigVersion)+"\t")) {
		return sortRejected
	}
	if err == nil {
		for _, c := range criteria {
			if m.Column(c.ColumnID) == nil {
				err = fmt.Errorf("%w: unknown column %d", ErrSortConfigSyntax, c.ColumnID)
				break
			}
		}
	}
	m.clearSortInternal()
	if err != nil {
		return sortRejectedCleared
	}
	active := false
	for _, c := range criteria {
		m.Column(c.ColumnID).SetSortCriteria(c.Sequence, c.Ascending)
		if c.Sequence >= 0 {
			active = true
		}
	}
	if !active {
		return sortReset
	}
	return sortApplied
}
