package domain

import "time"

// KnowledgeType categorizes a vault item.
type KnowledgeType string

const (
	KnowledgeConcept           KnowledgeType = "Concept"
	KnowledgeProcess           KnowledgeType = "Process"
	KnowledgeSQLQuery          KnowledgeType = "SQL Query"
	KnowledgeConfiguration     KnowledgeType = "Configuration"
	KnowledgeDebugPattern      KnowledgeType = "Debug Pattern"
	KnowledgeArchitecture      KnowledgeType = "Architecture"
	KnowledgeIssueResolution   KnowledgeType = "Issue Resolution"
	KnowledgeInterviewQuestion KnowledgeType = "Interview Question"
	KnowledgeChecklist         KnowledgeType = "Checklist"
	KnowledgeProductionPattern KnowledgeType = "Production Pattern"
)

// KnowledgeTypes lists every valid knowledge type in display order.
var KnowledgeTypes = []KnowledgeType{
	KnowledgeConcept,
	KnowledgeProcess,
	KnowledgeSQLQuery,
	KnowledgeConfiguration,
	KnowledgeDebugPattern,
	KnowledgeArchitecture,
	KnowledgeIssueResolution,
	KnowledgeInterviewQuestion,
	KnowledgeChecklist,
	KnowledgeProductionPattern,
}

// IsValid reports whether k is one of the defined knowledge types.
func (k KnowledgeType) IsValid() bool {
	for _, t := range KnowledgeTypes {
		if k == t {
			return true
		}
	}
	return false
}

// VaultItem is a captured piece of knowledge: a concept, an SQL snippet,
// a runbook, an incident note.
type VaultItem struct {
	ID            string
	Title         string
	Content       string
	KnowledgeType KnowledgeType
	Tags          []string
	Pinned        bool
	Archived      bool
	SourceID      int64 // 0 when created by hand rather than imported
	ContentHash   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
