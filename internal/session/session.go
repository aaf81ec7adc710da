package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"facefortune/internal/types"
)

const (
	photoFile  = "face_photo.json"
	resultFile = "wealth_result.json"
)

// Store is the session backup channel: a best-effort, reload-resilient
// mirror of in-flight pipeline state. Entries live under a session-scoped
// directory and are superseded by the durable report once persistence
// succeeds. Readers treat absence as normal, not as an error.
type Store struct {
	dir string
}

// Open returns a backup store rooted at dir.
func Open(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir is the session namespace location. It lives under the temp
// directory so the backup does not outlive the machine session.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "facefortune-session")
}

type photoEnvelope struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// resultEnvelope mirrors the payload the pipeline hands off on completion:
// the report identifier plus all three stage outputs.
type resultEnvelope struct {
	ID       string  `json:"id"`
	Features string  `json:"features"`
	Detail1  string  `json:"detail1"`
	Detail2  string  `json:"detail2"`
	Detail3  string  `json:"detail3"`
	Score    float64 `json:"score1"`
	Summary  string  `json:"score2"`
}

// WritePhoto mirrors the raw photo reference so an interrupted run can
// resume without the original file.
func (s *Store) WritePhoto(p types.Photo) error {
	return s.write(photoFile, photoEnvelope{Name: p.Name, Data: p.Data})
}

// ReadPhoto returns the backed-up photo, or ok=false when none exists.
func (s *Store) ReadPhoto() (types.Photo, bool) {
	var env photoEnvelope
	if !s.read(photoFile, &env) || len(env.Data) == 0 {
		return types.Photo{}, false
	}
	return types.Photo{Name: env.Name, Data: env.Data}, true
}

// WriteResult mirrors a finished report. Called only after the durable
// create succeeded, so the backup never holds an identifier without a report
// behind it.
func (s *Store) WriteResult(r types.Report) error {
	return s.write(resultFile, resultEnvelope{
		ID:       r.ID,
		Features: string(r.Features),
		Detail1:  r.Mini.Detail1,
		Detail2:  r.Mini.Detail2,
		Detail3:  r.Mini.Detail3,
		Score:    r.Score.Score,
		Summary:  r.Score.Summary,
	})
}

// ReadResult returns the backed-up result, or ok=false when none exists.
// The backup never carried a creation timestamp; the durable record is
// authoritative for expiry.
func (s *Store) ReadResult() (types.Report, bool) {
	var env resultEnvelope
	if !s.read(resultFile, &env) || env.ID == "" {
		return types.Report{}, false
	}
	return types.Report{
		ID:       env.ID,
		Features: types.FeatureSet(env.Features),
		Mini:     types.MiniAnalysis{Detail1: env.Detail1, Detail2: env.Detail2, Detail3: env.Detail3},
		Score:    types.ScoreAnalysis{Score: env.Score, Summary: env.Summary},
	}, true
}

// Clear removes all backup entries.
func (s *Store) Clear() error {
	return os.RemoveAll(s.dir)
}

func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0644)
}

// read decodes one backup entry. Any failure (missing file, corrupt JSON)
// reads as absence.
func (s *Store) read(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
