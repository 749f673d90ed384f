package importer

// Stage identifies the orchestrator's position in the pipeline. Stages
// advance strictly forward; Failed is reachable only from Parsing.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageParsing         Stage = "parsing"
	StageAnalyzing       Stage = "analyzing"
	StageProcessingMedia Stage = "processing_media"
	StageBuilding        Stage = "building"
	StageSaving          Stage = "saving"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// Progress is one fire-and-forget notification to the caller. Percent is
// within the stage's band of the whole run.
type Progress struct {
	Stage   Stage  `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// ProgressFunc receives progress notifications. Implementations must not
// block; the pipeline calls them inline.
type ProgressFunc func(Progress)

// Failure is one row-level failure, isolated to a single source card.
type Failure struct {
	SourceCardID int64  `json:"source_card_id"`
	NoteTypeName string `json:"note_type_name"`
	Reason       string `json:"reason"`
	FieldPreview string `json:"field_preview"`
}

// Stats summarizes a run.
type Stats struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Result is the outcome handed back to the caller. Success reflects only
// the fatal/archive-level outcome: a partially-clean import with row
// failures still reports Success = true, and every dropped card is
// accounted for in Failures.
type Result struct {
	Success  bool      `json:"success"`
	Stats    Stats     `json:"stats"`
	Failures []Failure `json:"failures"`
	Warnings []string  `json:"warnings,omitempty"`
}
