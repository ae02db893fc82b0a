package validate

import (
	"errors"
	"slices"
	"strings"

	"nexus/internal/core"
)

// Errors returned by CompetitorList.Add. Their text is shown to the user.
var (
	ErrEmptyCompetitor     = errors.New("竞品名称不能为空")
	ErrCompetitorLimit     = errors.New("最多添加5个竞品")
	ErrDuplicateCompetitor = errors.New("该竞品已添加")
)

// CompetitorList is the ordered competitor input of one analysis. Entries
// are refused at input time instead of being merged later: a duplicate
// (exact, case-sensitive) or an entry past the limit leaves the list as it was.
type CompetitorList struct {
	names []string
}

// NewCompetitorList adds each name in order and reports every refusal.
func NewCompetitorList(names ...string) (*CompetitorList, []error) {
	list := &CompetitorList{}
	var errs []error
	for _, name := range names {
		if err := list.Add(name); err != nil {
			errs = append(errs, err)
		}
	}
	return list, errs
}

// Add appends the trimmed name.
func (l *CompetitorList) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCompetitor
	}
	if len(l.names) >= core.MaxCompetitors {
		return ErrCompetitorLimit
	}
	if slices.Contains(l.names, name) {
		return ErrDuplicateCompetitor
	}
	l.names = append(l.names, name)
	return nil
}

// Remove drops name and reports whether it was present.
func (l *CompetitorList) Remove(name string) bool {
	idx := slices.Index(l.names, name)
	if idx < 0 {
		return false
	}
	l.names = slices.Delete(l.names, idx, idx+1)
	return true
}

// Len returns the number of entries
func (l *CompetitorList) Len() int {
	return len(l.names)
}

// Names returns a copy of the entries in input order
func (l *CompetitorList) Names() []string {
	return slices.Clone(l.names)
}
