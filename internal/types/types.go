package types

import "time"

// Photo is an opaque reference to captured image bytes. It is handed to the
// pipeline by value and never persisted durably; only its analysis output is.
type Photo struct {
	Name string
	Data []byte
}

// Empty reports whether there is no photo to analyze.
func (p Photo) Empty() bool { return len(p.Data) == 0 }

// FeatureSet is the stage-1 output: a free-form description of the extracted
// facial features. The "no face detected" sentinel never appears here; the
// analysis client converts it to a typed error before it reaches the pipeline.
type FeatureSet string

// MiniAnalysis is the stage-2 output: three labeled detail sections. The
// order 1..3 matters for display concatenation, not for meaning.
type MiniAnalysis struct {
	Detail1 string `json:"detail1"`
	Detail2 string `json:"detail2"`
	Detail3 string `json:"detail3"`
}

// ScoreAnalysis is the stage-3 output. Score is 0-100 by convention
// (not enforced); the wire names score1/score2 come from the scoring API.
type ScoreAnalysis struct {
	Score   float64 `json:"score1"`
	Summary string  `json:"score2"`
}

// ReportDraft is the merged output of a successful pipeline run, handed to
// the store for persistence.
type ReportDraft struct {
	Features FeatureSet
	Mini     MiniAnalysis
	Score    ScoreAnalysis
}

// Report is the durable, immutable record of one completed analysis.
// The store assigns the identifier and the creation timestamp; there is no
// update path afterwards.
type Report struct {
	ID        string
	Features  FeatureSet
	Mini      MiniAnalysis
	Score     ScoreAnalysis
	CreatedAt time.Time
}

// FailureReason is the machine-readable tag attached to every failure event.
type FailureReason string

const (
	ReasonNoFace        FailureReason = "NoFaceDetected"
	ReasonRemote        FailureReason = "RemoteCallFailure"
	ReasonPersistence   FailureReason = "PersistenceFailure"
	ReasonNotFound      FailureReason = "NotFound"
	ReasonMissingInput  FailureReason = "MissingInput"
	ReasonExportExpired FailureReason = "ExportExpired"
)
