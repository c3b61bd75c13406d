package models

import "time"

// VocabKind names one of the controlled-vocabulary lookup collections the
// goal form is built from.
type VocabKind string

const (
	VocabType      VocabKind = "types"
	VocabAction    VocabKind = "actions"
	VocabRubric    VocabKind = "rubrics"
	VocabAmount    VocabKind = "amounts"
	VocabPortion   VocabKind = "portions"
	VocabFrequency VocabKind = "frequencies"
)

// VocabKinds lists all lookup collections, in form order.
var VocabKinds = []VocabKind{
	VocabType, VocabAction, VocabRubric, VocabAmount, VocabPortion, VocabFrequency,
}

// VocabItem is a single entry of a lookup collection.
type VocabItem struct {
	ID    string
	Kind  VocabKind
	Label string
}

// Goal references one entry of each lookup collection plus a date range.
// Template goals are reusable professional-authored definitions not bound
// to any patient; non-template goals are bound to exactly one patient via
// the patient's goal set.
type Goal struct {
	ID               string
	TypeID           string
	ActionID         string
	RubricID         string
	AmountID         string
	PortionID        string
	FrequencyID      string
	StartDate        time.Time
	Deadline         time.Time
	NotificationTime time.Time
	Template         bool
	AuthorID         string
}
