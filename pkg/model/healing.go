package model

// ActionKind enumerates the kinds of repair the topology healer can
// record.
type ActionKind int

const (
	VertexDedup ActionKind = iota
	DuplicateRemove
)

func (k ActionKind) String() string {
	switch k {
	case VertexDedup:
		return "vertex_dedup"
	case DuplicateRemove:
		return "duplicate_remove"
	default:
		return "unknown"
	}
}

// ActionSeverity distinguishes routine repairs from suspicious ones.
type ActionSeverity string

const (
	SeverityInfo    ActionSeverity = "info"
	SeverityWarning ActionSeverity = "warning"
)

// HealingAction is one entry in the append-only audit log of what
// healing changed.
type HealingAction struct {
	Kind             ActionKind     `json:"kind"`
	AffectedEntities []string       `json:"affected_entities"`
	Description      string         `json:"description"`
	Severity         ActionSeverity `json:"severity"`
}
