package photoreal

import (
	"errors"
	"fmt"
	"time"

	"github.com/spaghettifunk/gardenia/engine/garden"
)

type Step int

const (
	StepIdle Step = iota
	StepFirstPassRunning
	StepAwaitingReview
	StepSecondPassRunning
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepFirstPassRunning:
		return "first-pass-running"
	case StepAwaitingReview:
		return "awaiting-review"
	case StepSecondPassRunning:
		return "second-pass-running"
	case StepComplete:
		return "complete"
	}
	return "unknown"
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	for st := StepIdle; st <= StepComplete; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session step %q", string(text))
}

type Stage string

const (
	StageFirstPass  Stage = "first pass"
	StageSecondPass Stage = "second pass"
	StageSeasonal   Stage = "seasonal generation"
)

// StageError labels a remote failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Stage)
	}
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsStage reports whether err is a StageError for stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}

/**
 * @brief What the second pass and the prompt need to know about the garden
 * that was rendered. Captured when the session is created.
 */
type SceneContext struct {
	Bounds    garden.GardenBounds
	Plants    []garden.PlantInstance3D
	Inventory garden.Inventory
	Season    garden.Season
}

/**
 * @brief One run of the two pass pipeline for a single exported image.
 * FirstPass is kept after approval so a failed second pass can fall back
 * to it.
 */
type Session struct {
	ID            string
	Step          Step
	OriginalImage string
	FirstPass     string
	Final         string
	// Surfaced to the user; Error for a failed first pass, Warning for a
	// second pass that fell back.
	Error         string
	Warning       string
	UsedFallback  bool
	Scene         SceneContext
	CreatedAt     time.Time
	UpdatedAt     time.Time

	attempt uint64
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID             string    `json:"id"`
	Step           Step      `json:"step"`
	OriginalImage  string    `json:"originalImage"`
	FirstPassImage string    `json:"firstPassImage,omitempty"`
	FinalImage     string    `json:"finalImage,omitempty"`
	Error          string    `json:"error,omitempty"`
	Warning        string    `json:"warning,omitempty"`
	UsedFallback   bool      `json:"usedFallback"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:             s.ID,
		Step:           s.Step,
		OriginalImage:  s.OriginalImage,
		FirstPassImage: s.FirstPass,
		FinalImage:     s.Final,
		Error:          s.Error,
		Warning:        s.Warning,
		UsedFallback:   s.UsedFallback,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
