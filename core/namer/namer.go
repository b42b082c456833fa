package namer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fixture-builder/core/utils"
)

var (
	// ErrInvalidName groups the errors for blank names and blank objects.
	ErrInvalidName = errors.New("invalid name")
	// ErrEmptyName is returned when a custom name is blank.
	ErrEmptyName = fmt.Errorf("%w: cannot name an object blank", ErrInvalidName)
	// ErrEmptyObject is returned when an object to be named has no table or id.
	ErrEmptyObject = fmt.Errorf("%w: cannot name a blank object", ErrInvalidName)

	// ErrNamingConflict groups the errors for conflicting custom names.
	ErrNamingConflict = errors.New("naming conflict")
	// ErrDuplicateName is returned when an object already has a different custom name.
	ErrDuplicateName = fmt.Errorf("%w: object is already named", ErrNamingConflict)
)

// DefaultNameFields are the record fields tried, in order, when inferring a name.
var DefaultNameFields = []string{"unique_name", "display_name", "name", "title", "username", "login"}

// IDField is the record field used to look up custom names.
const IDField = "id"

// Ref identifies one row of one table.
type Ref struct {
	Table string
	ID    string
}

// NewRef builds a Ref, normalising id so that numeric ids of any Go type
// and their decimal string form address the same row.
func NewRef(table string, id any) Ref {
	return Ref{Table: table, ID: idKey(id)}
}

// IsZero reports whether the ref lacks a table or an id.
func (r Ref) IsZero() bool {
	return r.Table == "" || r.ID == ""
}

func (r Ref) String() string {
	return fmt.Sprintf("[%s %s]", r.Table, r.ID)
}

func idKey(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case float32, float64:
		return utils.ToString(id)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	if i, ok := utils.ToInt(id); ok {
		return strconv.Itoa(i)
	}
	return strings.TrimSpace(utils.ToString(id))
}

// NameFunc names a record of one table. index is the table's row counter
// after it has been advanced for this record, starting at 1.
type NameFunc func(record map[string]any, index int) string

// OverrideKind tags the variants of Override.
type OverrideKind int

const (
	// NoOverride resolves names through custom names and inference.
	NoOverride OverrideKind = iota
	// NamingFunction resolves every name of the table through Func.
	NamingFunction
)

// Override is the per-table naming strategy.
type Override struct {
	Kind OverrideKind
	Func NameFunc
}

// Namer assigns names to the records of each table. A Namer lives for a
// single build and is not safe for concurrent use.
type Namer struct {
	fields    []string
	custom    map[Ref]string
	overrides map[string]Override
	tables    map[string]*Table
}

// New creates a Namer that infers names from fields, in order. An empty
// list selects DefaultNameFields.
func New(fields []string) *Namer {
	if len(fields) == 0 {
		fields = DefaultNameFields
	}
	return &Namer{
		fields:    append([]string(nil), fields...),
		custom:    make(map[Ref]string),
		overrides: make(map[string]Override),
		tables:    make(map[string]*Table),
	}
}

// NameWith registers fn as the naming function of table.
func (n *Namer) NameWith(table string, fn NameFunc) {
	o := Override{Kind: NamingFunction, Func: fn}
	if fn == nil {
		o = Override{Kind: NoOverride}
	}
	n.overrides[table] = o
	if t, ok := n.tables[table]; ok {
		t.override = o
	}
}

// Name registers name as the custom name of every ref. Registering the
// same name twice is allowed; a different name for an already named ref
// fails with ErrDuplicateName. Nothing is registered when any ref fails.
func (n *Namer) Name(name string, refs ...Ref) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	for _, ref := range refs {
		if ref.IsZero() {
			return fmt.Errorf("%w: %s", ErrEmptyObject, ref)
		}
		if existing, ok := n.custom[ref]; ok && existing != name {
			return fmt.Errorf("%w: %s is %q, cannot rename to %q", ErrDuplicateName, ref, existing, name)
		}
	}
	for _, ref := range refs {
		n.custom[ref] = name
	}
	return nil
}

// Lookup returns the custom name registered for ref.
func (n *Namer) Lookup(ref Ref) (string, bool) {
	name, ok := n.custom[ref]
	return name, ok
}

// Table returns the naming scope of table, creating it on first use.
func (n *Namer) Table(table string) *Table {
	if t, ok := n.tables[table]; ok {
		return t
	}
	t := &Table{
		name:     table,
		namer:    n,
		override: n.overrides[table],
	}
	n.tables[table] = t
	return t
}

// RecordName resolves the name of record within table.
func (n *Namer) RecordName(record map[string]any, table string) string {
	return n.Table(table).Name(record)
}

// Table is the naming scope of one table: its row counter and the names
// assigned so far.
type Table struct {
	name     string
	namer    *Namer
	override Override
	counter  int
	history  []string
}

// Name resolves the name of the next record of the table. The first
// matching strategy wins: the table's naming function, the custom name of
// the record's id, a name inferred from the record's name fields, and
// finally the table name with the zero-padded row counter.
func (t *Table) Name(record map[string]any) string {
	if t.override.Kind == NamingFunction {
		t.counter++
		return t.override.Func(record, t.counter)
	}

	var name string
	if custom, ok := t.namer.custom[NewRef(t.name, record[IDField])]; ok {
		name = custom
	} else if inferred, ok := t.infer(record); ok {
		name = inferred
	} else {
		t.counter++
		name = t.name + "_" + FormatIndex(t.counter)
	}

	t.history = append(t.history, name)
	return name
}

// Names returns the names recorded for the table, in assignment order.
func (t *Table) Names() []string {
	return append([]string(nil), t.history...)
}

func (t *Table) infer(record map[string]any) (string, bool) {
	for _, field := range t.namer.fields {
		value, ok := record[field]
		if !ok {
			continue
		}
		s := utils.ToString(value)
		if strings.TrimSpace(s) == "" {
			continue
		}

		base := Normalize(s)
		count := 0
		for _, prev := range t.history {
			if strings.HasPrefix(prev, base) {
				count++
			}
		}
		if count == 0 {
			return base, true
		}
		return base + "_" + strconv.Itoa(count), true
	}
	return "", false
}

var (
	acronymBoundary = regexp.MustCompile(`([A-Z\d]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
	nonWord         = regexp.MustCompile(`\W+`)
)

// Normalize turns a field value into a name token: CamelCase is split into
// words, everything is lower-cased, and each run of non-word characters
// becomes a single underscore.
func Normalize(s string) string {
	s = acronymBoundary.ReplaceAllString(s, "${1}_${2}")
	s = wordBoundary.ReplaceAllString(s, "${1}_${2}")
	s = strings.ToLower(s)
	return nonWord.ReplaceAllString(s, "_")
}

// FormatIndex formats a row counter the way fallback names carry it.
func FormatIndex(i int) string {
	return fmt.Sprintf("%03d", i)
}
