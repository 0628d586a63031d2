package models

// Archetype is a named, ordered template of phases describing one target
// technology stack. Immutable after catalog load.
type Archetype struct {
	// ID is the catalog identifier (e.g. "fastapi-sqlite").
	ID string `json:"id" yaml:"id"`
	// Name is the human-readable display name.
	Name string `json:"name" yaml:"name"`
	// Description summarizes the generated project.
	Description string `json:"description" yaml:"description"`
	// Tags lists the technologies involved (e.g. "python", "fastapi").
	Tags []string `json:"tags" yaml:"tags"`
	// Phases is the ordered list of phase templates.
	Phases []PhaseTemplate `json:"phases" yaml:"phases"`
}

// ArchetypeSummary is the listing view of an archetype. Phase detail is
// deliberately not included.
type ArchetypeSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Summary returns the listing view of the archetype.
func (a Archetype) Summary() ArchetypeSummary {
	return ArchetypeSummary{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Tags:        append([]string(nil), a.Tags...),
	}
}
