package types

// TagType is the kind of traceability unit a tag describes.
type TagType string

// Tag type constants, grouped by category.
const (
	// PRIMARY lifecycle
	TypeREQ    TagType = "REQ"
	TypeDESIGN TagType = "DESIGN"
	TypeTASK   TagType = "TASK"
	TypeTEST   TagType = "TEST"

	// STEERING
	TypeVISION TagType = "VISION"
	TypeSTRUCT TagType = "STRUCT"
	TypeTECH   TagType = "TECH"
	TypeADR    TagType = "ADR"

	// IMPLEMENTATION
	TypeFEATURE TagType = "FEATURE"
	TypeAPI     TagType = "API"
	TypeUI      TagType = "UI"
	TypeDATA    TagType = "DATA"

	// QUALITY
	TypePERF TagType = "PERF"
	TypeSEC  TagType = "SEC"
	TypeDOCS TagType = "DOCS"
	TypeTAG  TagType = "TAG"
)

// AllTypes lists every tag type in declaration order.
var AllTypes = []TagType{
	TypeREQ, TypeDESIGN, TypeTASK, TypeTEST,
	TypeVISION, TypeSTRUCT, TypeTECH, TypeADR,
	TypeFEATURE, TypeAPI, TypeUI, TypeDATA,
	TypePERF, TypeSEC, TypeDOCS, TypeTAG,
}

// LifecycleOrder is the canonical primary chain.
var LifecycleOrder = []TagType{TypeREQ, TypeDESIGN, TypeTASK, TypeTEST}

// IsValid checks if the tag type value is valid
func (t TagType) IsValid() bool {
	_, ok := typeCategory[t]
	return ok
}

// Category returns the category a type belongs to, or "" for unknown types.
func (t TagType) Category() Category {
	return typeCategory[t]
}

// LifecycleIndex returns the position of t in LifecycleOrder, or -1.
func (t TagType) LifecycleIndex() int {
	for i, lt := range LifecycleOrder {
		if lt == t {
			return i
		}
	}
	return -1
}

// Category groups tag types.
type Category string

// Category constants
const (
	CategoryPrimary        Category = "PRIMARY"
	CategorySteering       Category = "STEERING"
	CategoryImplementation Category = "IMPLEMENTATION"
	CategoryQuality        Category = "QUALITY"
)

// AllCategories lists every category.
var AllCategories = []Category{CategoryPrimary, CategorySteering, CategoryImplementation, CategoryQuality}

// IsValid checks if the category value is valid
func (c Category) IsValid() bool {
	switch c {
	case CategoryPrimary, CategorySteering, CategoryImplementation, CategoryQuality:
		return true
	}
	return false
}

var typeCategory = map[TagType]Category{
	TypeREQ: CategoryPrimary, TypeDESIGN: CategoryPrimary, TypeTASK: CategoryPrimary, TypeTEST: CategoryPrimary,
	TypeVISION: CategorySteering, TypeSTRUCT: CategorySteering, TypeTECH: CategorySteering, TypeADR: CategorySteering,
	TypeFEATURE: CategoryImplementation, TypeAPI: CategoryImplementation, TypeUI: CategoryImplementation, TypeDATA: CategoryImplementation,
	TypePERF: CategoryQuality, TypeSEC: CategoryQuality, TypeDOCS: CategoryQuality, TypeTAG: CategoryQuality,
}

// Status represents the work state of a persisted tag.
type Status string

// Tag status constants
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// AllStatuses lists every status.
var AllStatuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusBlocked}

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Priority ranks a tag.
type Priority string

// Priority constants
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// BlockStatus is the STATUS field of an embedded TAG block.
type BlockStatus string

// Block status constants
const (
	BlockActive     BlockStatus = "active"
	BlockDeprecated BlockStatus = "deprecated"
	BlockCompleted  BlockStatus = "completed"
)

// IsValid checks if the block status value is valid
func (s BlockStatus) IsValid() bool {
	switch s {
	case BlockActive, BlockDeprecated, BlockCompleted:
		return true
	}
	return false
}
