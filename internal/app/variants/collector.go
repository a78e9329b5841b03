package variants

import (
	"strings"

	"github.com/oklog/ulid/v2"

	"emprendyup-catalog/internal/domain/model"
	"emprendyup-catalog/internal/textutil"
)

type AxisKind string

const (
	AxisColors AxisKind = "colors"
	AxisSizes  AxisKind = "sizes"
	AxisCustom AxisKind = "custom"
)

const (
	FieldName  = "name"
	FieldValue = "value"
	FieldType  = "type"
)

// Candidate is user input for a new axis entry. Type is only read for custom entries.
type Candidate struct {
	Type    string
	Name    string
	Value   string
	AuxData map[string]any
}

type CollectorDeps struct {
	IDGenerator func() string
}

// Collector owns the colour, size and custom entry lists of one product form.
type Collector struct {
	state model.AxisState
	newID func() string
}

func NewCollector(deps CollectorDeps) *Collector {
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &Collector{newID: newID}
}

// AddEntry appends a normalised entry to axis. A name that matches an existing
// entry case-insensitively is rejected and the state is left untouched.
func (c *Collector) AddEntry(axis AxisKind, candidate Candidate) (model.AxisEntry, error) {
	name := strings.TrimSpace(candidate.Name)
	if name == "" {
		return model.AxisEntry{}, validationErr(axis, FieldName, candidate.Name, ErrNameRequired)
	}
	entry := model.AxisEntry{
		Name:    name,
		Value:   textutil.FirstNonEmpty(candidate.Value, name),
		AuxData: cloneAux(candidate.AuxData),
	}

	switch axis {
	case AxisColors:
		if indexByName(c.state.Colors, name) >= 0 {
			return model.AxisEntry{}, validationErr(axis, FieldName, name, ErrDuplicateEntry)
		}
		entry.ID = c.newID()
		c.state.Colors = append(c.state.Colors, entry)
	case AxisSizes:
		if indexByName(c.state.Sizes, name) >= 0 {
			return model.AxisEntry{}, validationErr(axis, FieldName, name, ErrDuplicateEntry)
		}
		entry.ID = c.newID()
		c.state.Sizes = append(c.state.Sizes, entry)
	case AxisCustom:
		kind := strings.TrimSpace(candidate.Type)
		if err := validateCustomType(kind); err != nil {
			return model.AxisEntry{}, err
		}
		if indexCustom(c.state.Custom, kind, name) >= 0 {
			return model.AxisEntry{}, validationErr(axis, FieldName, kind+":"+name, ErrDuplicateEntry)
		}
		entry.ID = c.newID()
		c.state.Custom = append(c.state.Custom, model.CustomEntry{Type: kind, AxisEntry: entry})
	default:
		return model.AxisEntry{}, validationErr(axis, "", "", ErrUnknownAxis)
	}
	return copyEntry(entry), nil
}

// RemoveEntry deletes an entry by id. Generated combinations are not touched.
func (c *Collector) RemoveEntry(axis AxisKind, id string) error {
	switch axis {
	case AxisColors:
		i := indexByID(c.state.Colors, id)
		if i < 0 {
			return validationErr(axis, "id", id, ErrEntryNotFound)
		}
		c.state.Colors = append(c.state.Colors[:i], c.state.Colors[i+1:]...)
	case AxisSizes:
		i := indexByID(c.state.Sizes, id)
		if i < 0 {
			return validationErr(axis, "id", id, ErrEntryNotFound)
		}
		c.state.Sizes = append(c.state.Sizes[:i], c.state.Sizes[i+1:]...)
	case AxisCustom:
		for i := range c.state.Custom {
			if c.state.Custom[i].ID == id {
				c.state.Custom = append(c.state.Custom[:i], c.state.Custom[i+1:]...)
				return nil
			}
		}
		return validationErr(axis, "id", id, ErrEntryNotFound)
	default:
		return validationErr(axis, "", "", ErrUnknownAxis)
	}
	return nil
}

// UpdateEntry sets one field of an entry in place. Fields other than name, value
// and type are written to the entry's aux data. Uniqueness is not re-checked.
func (c *Collector) UpdateEntry(axis AxisKind, id, field, value string) error {
	var entry *model.AxisEntry
	var custom *model.CustomEntry
	switch axis {
	case AxisColors:
		if i := indexByID(c.state.Colors, id); i >= 0 {
			entry = &c.state.Colors[i]
		}
	case AxisSizes:
		if i := indexByID(c.state.Sizes, id); i >= 0 {
			entry = &c.state.Sizes[i]
		}
	case AxisCustom:
		for i := range c.state.Custom {
			if c.state.Custom[i].ID == id {
				custom = &c.state.Custom[i]
				entry = &custom.AxisEntry
				break
			}
		}
	default:
		return validationErr(axis, "", "", ErrUnknownAxis)
	}
	if entry == nil {
		return validationErr(axis, "id", id, ErrEntryNotFound)
	}

	field = strings.TrimSpace(field)
	switch field {
	case FieldName:
		name := strings.TrimSpace(value)
		if name == "" {
			return validationErr(axis, field, value, ErrNameRequired)
		}
		entry.Name = name
	case FieldValue:
		entry.Value = textutil.FirstNonEmpty(value, entry.Name)
	case FieldType:
		if custom == nil {
			return validationErr(axis, field, value, ErrUnknownAxis)
		}
		kind := strings.TrimSpace(value)
		if err := validateCustomType(kind); err != nil {
			return err
		}
		custom.Type = kind
	default:
		if field == "" {
			return validationErr(axis, field, value, ErrNameRequired)
		}
		if entry.AuxData == nil {
			entry.AuxData = map[string]any{}
		}
		entry.AuxData[field] = value
	}
	return nil
}

// Entries returns a copy of the colour or size list, or the custom entries
// without their type labels.
func (c *Collector) Entries(axis AxisKind) []model.AxisEntry {
	switch axis {
	case AxisColors:
		return copyEntries(c.state.Colors)
	case AxisSizes:
		return copyEntries(c.state.Sizes)
	case AxisCustom:
		out := make([]model.AxisEntry, 0, len(c.state.Custom))
		for _, e := range c.state.Custom {
			out = append(out, copyEntry(e.AxisEntry))
		}
		return out
	}
	return nil
}

// Axes lists the non-empty axes in generation order: colour, size, then one axis
// per custom type in order of first appearance.
func (c *Collector) Axes() []model.VariantAxis {
	axes := make([]model.VariantAxis, 0, 2+len(c.state.Custom))
	if len(c.state.Colors) > 0 {
		axes = append(axes, model.VariantAxis{Type: model.AxisTypeColor, Entries: copyEntries(c.state.Colors)})
	}
	if len(c.state.Sizes) > 0 {
		axes = append(axes, model.VariantAxis{Type: model.AxisTypeSize, Entries: copyEntries(c.state.Sizes)})
	}

	positions := map[string]int{}
	for _, e := range c.state.Custom {
		key := textutil.Key(e.Type)
		pos, ok := positions[key]
		if !ok {
			pos = len(axes)
			positions[key] = pos
			axes = append(axes, model.VariantAxis{Type: e.Type})
		}
		axes[pos].Entries = append(axes[pos].Entries, copyEntry(e.AxisEntry))
	}
	return axes
}

func (c *Collector) Empty() bool {
	return len(c.state.Colors) == 0 && len(c.state.Sizes) == 0 && len(c.state.Custom) == 0
}

// State returns a deep copy suitable for snapshots.
func (c *Collector) State() model.AxisState {
	out := model.AxisState{
		Colors: copyEntries(c.state.Colors),
		Sizes:  copyEntries(c.state.Sizes),
		Custom: make([]model.CustomEntry, 0, len(c.state.Custom)),
	}
	for _, e := range c.state.Custom {
		out.Custom = append(out.Custom, model.CustomEntry{Type: e.Type, AxisEntry: copyEntry(e.AxisEntry)})
	}
	return out
}

// Restore replaces the collector state by replaying every entry through AddEntry,
// so a restored state obeys the same rules as typed input. Entry ids are kept.
func (c *Collector) Restore(state model.AxisState) error {
	next := &Collector{newID: c.newID}
	replay := func(axis AxisKind, kind string, e model.AxisEntry) error {
		id := e.ID
		if id != "" {
			next.newID = func() string { return id }
		}
		_, err := next.AddEntry(axis, Candidate{Type: kind, Name: e.Name, Value: e.Value, AuxData: e.AuxData})
		next.newID = c.newID
		return err
	}
	for _, e := range state.Colors {
		if err := replay(AxisColors, "", e); err != nil {
			return err
		}
	}
	for _, e := range state.Sizes {
		if err := replay(AxisSizes, "", e); err != nil {
			return err
		}
	}
	for _, e := range state.Custom {
		if err := replay(AxisCustom, e.Type, e.AxisEntry); err != nil {
			return err
		}
	}
	c.state = next.state
	return nil
}

func validateCustomType(kind string) error {
	if kind == "" {
		return validationErr(AxisCustom, FieldType, kind, ErrTypeRequired)
	}
	// Colour and size have their own axes; sharing the label would merge
	// backend variants of different axes.
	if textutil.SameKey(kind, model.AxisTypeColor) || textutil.SameKey(kind, model.AxisTypeSize) {
		return validationErr(AxisCustom, FieldType, kind, ErrReservedType)
	}
	return nil
}

func indexByName(entries []model.AxisEntry, name string) int {
	key := textutil.Key(name)
	for i, e := range entries {
		if textutil.Key(e.Name) == key {
			return i
		}
	}
	return -1
}

func indexByID(entries []model.AxisEntry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func indexCustom(entries []model.CustomEntry, kind, name string) int {
	key := textutil.PairKey(kind, name)
	for i, e := range entries {
		if textutil.PairKey(e.Type, e.Name) == key {
			return i
		}
	}
	return -1
}

func copyEntries(entries []model.AxisEntry) []model.AxisEntry {
	out := make([]model.AxisEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, copyEntry(e))
	}
	return out
}

func copyEntry(e model.AxisEntry) model.AxisEntry {
	e.AuxData = cloneAux(e.AuxData)
	return e
}

func cloneAux(aux map[string]any) map[string]any {
	if len(aux) == 0 {
		return nil
	}
	out := make(map[string]any, len(aux))
	for k, v := range aux {
		out[k] = v
	}
	return out
}
