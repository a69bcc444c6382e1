package photoreal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

// Dispatcher runs remote work off the caller's goroutine. The engine's job
// system satisfies it.
type Dispatcher interface {
	Submit(jt metadata.JobTask) error
}

// InlineDispatcher runs jobs on the calling goroutine.
type InlineDispatcher struct{}

func (InlineDispatcher) Submit(jt metadata.JobTask) error {
	if jt.OnCompletionCallback != nil {
		defer jt.OnCompletionCallback()
	}
	result, err := jt.OnStart(context.Background(), jt.InputParams)
	if err != nil {
		if jt.OnFailure != nil {
			jt.OnFailure(err)
		}
		return nil
	}
	if jt.OnComplete != nil {
		jt.OnComplete(result)
	}
	return nil
}

type StateMachineConfig struct {
	Width     uint32
	Height    uint32
	Strength  float32
	CFGScale  float32
	Seed      int64
	TimeOfDay string
	Style     string
	// Year for seasonal dates; zero means the year of Now.
	Year            int
	SeasonalSamples int
	// Upper bound for a single remote call including its retries.
	Timeout time.Duration
	Now     func() time.Time
}

func StateMachineConfigFrom(cfg *config.Config) StateMachineConfig {
	return StateMachineConfig{
		Width:           cfg.Export.Width,
		Height:          cfg.Export.Height,
		Strength:        cfg.Enhancer.Strength,
		CFGScale:        cfg.Enhancer.CFGScale,
		Seed:            cfg.Enhancer.Seed,
		TimeOfDay:       cfg.Enhancer.TimeOfDay,
		Style:           cfg.Enhancer.Style,
		Year:            cfg.Enhancer.Year,
		SeasonalSamples: cfg.Enhancer.SeasonalSamples,
		Timeout:         cfg.Enhancer.Timeout.Duration * time.Duration(cfg.Enhancer.MaxAttempts),
	}
}

/**
 * @brief Drives one photorealization session at a time through
 * idle -> first-pass-running -> awaiting-review -> second-pass-running ->
 * complete. The second pass only ever starts from Approve. Every launch
 * gets a fresh attempt token and results carrying an older token are
 * dropped, so superseded, regenerated or discarded work never lands.
 */
type StateMachine struct {
	mu         sync.Mutex
	config     StateMachineConfig
	enhancer   Enhancer
	dispatcher Dispatcher
	session    *Session
	token      uint64
}

func NewStateMachine(config StateMachineConfig, enhancer Enhancer, dispatcher Dispatcher) (*StateMachine, error) {
	if enhancer == nil {
		err := errors.New("photoreal state machine needs an enhancer")
		core.LogError("%s", err)
		return nil, err
	}
	if dispatcher == nil {
		dispatcher = InlineDispatcher{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.SeasonalSamples <= 0 {
		config.SeasonalSamples = 4
	}
	return &StateMachine{
		config:     config,
		enhancer:   enhancer,
		dispatcher: dispatcher,
	}, nil
}

/**
 * @brief Opens a new session for an exported image, replacing the current
 * one whatever step it is in. Results still in flight for the old session
 * are dropped when they arrive.
 */
func (sm *StateMachine) NewSession(original string, scene SceneContext) (Snapshot, error) {
	if original == "" {
		return Snapshot{}, fmt.Errorf("%w: session needs an exported image", core.ErrNoSurface)
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if old := sm.session; old != nil && old.Step != StepComplete && old.Step != StepIdle {
		core.LogInfo("superseding photoreal session %s in step %s", old.ID, old.Step)
	}
	now := sm.config.Now()
	sm.token++
	sm.session = &Session{
		ID:            uuid.NewString(),
		Step:          StepIdle,
		OriginalImage: original,
		Scene:         scene,
		CreatedAt:     now,
		UpdatedAt:     now,
		attempt:       sm.token,
	}
	core.LogDebug("photoreal session %s created", sm.session.ID)
	return sm.session.snapshot(), nil
}

// Snapshot returns the current session, false when there is none.
func (sm *StateMachine) Snapshot() (Snapshot, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.session == nil {
		return Snapshot{}, false
	}
	return sm.session.snapshot(), true
}

// Start runs the first pass from idle.
func (sm *StateMachine) Start() (Snapshot, error) {
	return sm.launch(StageFirstPass, StepIdle)
}

// Regenerate throws the first pass result away and runs it again.
func (sm *StateMachine) Regenerate() (Snapshot, error) {
	return sm.launch(StageFirstPass, StepAwaitingReview)
}

// Approve accepts the first pass and runs the second one.
func (sm *StateMachine) Approve() (Snapshot, error) {
	return sm.launch(StageSecondPass, StepAwaitingReview)
}

// Discard drops the first pass result and goes back to idle.
func (sm *StateMachine) Discard() (Snapshot, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, err := sm.expect(StepAwaitingReview, "discard")
	if err != nil {
		return Snapshot{}, err
	}
	sm.token++
	s.attempt = sm.token
	s.FirstPass = ""
	s.Error = ""
	s.Step = StepIdle
	s.UpdatedAt = sm.config.Now()
	core.LogInfo("photoreal session %s: first pass discarded", s.ID)
	return s.snapshot(), nil
}

func (sm *StateMachine) expect(step Step, op string) (*Session, error) {
	if sm.session == nil {
		return nil, fmt.Errorf("%w: %s without a session", core.ErrInvalidTransition, op)
	}
	if sm.session.Step != step {
		return nil, fmt.Errorf("%w: cannot %s from %s", core.ErrInvalidTransition, op, sm.session.Step)
	}
	return sm.session, nil
}

type attempt struct {
	sessionID string
	token     uint64
}

func (sm *StateMachine) launch(stage Stage, from Step) (Snapshot, error) {
	op := "start"
	switch {
	case stage == StageSecondPass:
		op = "approve"
	case from == StepAwaitingReview:
		op = "regenerate"
	}

	sm.mu.Lock()
	s, err := sm.expect(from, op)
	if err != nil {
		sm.mu.Unlock()
		return Snapshot{}, err
	}
	sm.token++
	s.attempt = sm.token
	s.Error = ""
	s.UpdatedAt = sm.config.Now()
	at := attempt{sessionID: s.ID, token: s.attempt}

	var call func(ctx context.Context) (ImageResponse, error)
	if stage == StageFirstPass {
		s.Step = StepFirstPassRunning
		s.FirstPass = ""
		req := sm.firstPassRequest(s)
		call = func(ctx context.Context) (ImageResponse, error) { return sm.enhancer.FirstPass(ctx, req) }
	} else {
		s.Step = StepSecondPassRunning
		req := sm.secondPassRequest(s)
		call = func(ctx context.Context) (ImageResponse, error) { return sm.enhancer.SecondPass(ctx, req) }
	}
	core.LogInfo("photoreal session %s: %s started", s.ID, stage)
	sm.mu.Unlock()

	fireStage(at.sessionID, stage, "started")

	err = sm.dispatcher.Submit(metadata.JobTask{
		JobType: metadata.JOB_TYPE_REMOTE,
		Name:    fmt.Sprintf("%s %s", stage, at.sessionID),
		OnStart: func(ctx context.Context, _ interface{}) (interface{}, error) {
			if sm.config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, sm.config.Timeout)
				defer cancel()
			}
			return call(ctx)
		},
		OnComplete: func(result interface{}) {
			sm.finish(stage, at, result.(ImageResponse).ImageURL, nil)
		},
		OnFailure: func(err error) {
			sm.finish(stage, at, "", err)
		},
	})
	if err != nil {
		sm.finish(stage, at, "", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.session == nil {
		return Snapshot{}, nil
	}
	return sm.session.snapshot(), nil
}

func (sm *StateMachine) finish(stage Stage, at attempt, imageURL string, err error) {
	sm.mu.Lock()
	s := sm.session
	if s == nil || s.ID != at.sessionID || s.attempt != at.token {
		sm.mu.Unlock()
		core.LogInfo("dropping stale %s result for session %s", stage, at.sessionID)
		return
	}

	// One result per attempt; a second callback for it is stale.
	sm.token++
	s.attempt = sm.token

	outcome := "ok"
	s.UpdatedAt = sm.config.Now()
	switch stage {
	case StageFirstPass:
		if err != nil {
			se := &StageError{Stage: stage, Err: err}
			s.Step = StepIdle
			s.FirstPass = ""
			s.Error = se.Error()
			outcome = "error"
			core.LogError("%s", se)
		} else {
			s.FirstPass = imageURL
			s.Step = StepAwaitingReview
		}
	case StageSecondPass:
		s.Step = StepComplete
		if err != nil {
			se := &StageError{Stage: stage, Err: err}
			s.Final = s.FirstPass
			s.UsedFallback = true
			s.Warning = se.Error()
			outcome = "fallback"
			core.LogWarn("%s, keeping the first pass image", se.Error())
		} else {
			s.Final = imageURL
			s.UsedFallback = false
			s.Warning = ""
		}
	}
	id, step := s.ID, s.Step
	sm.mu.Unlock()

	core.LogInfo("photoreal session %s: %s %s, now %s", id, stage, outcome, step)
	fireStage(id, stage, outcome)
}

func fireStage(sessionID string, stage Stage, outcome string) {
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_PHOTOREAL_STAGE,
		Data: &core.StageEvent{SessionID: sessionID, Stage: string(stage), Outcome: outcome},
	})
}

func (sm *StateMachine) season(s *Session) garden.Season {
	if s.Scene.Season != "" {
		return s.Scene.Season
	}
	return garden.SeasonForDay(garden.DayOfYear(sm.config.Now()))
}

func (sm *StateMachine) firstPassRequest(s *Session) FirstPassRequest {
	season := sm.season(s)
	return FirstPassRequest{
		ReferenceImage: s.OriginalImage,
		Prompt:         BuildPrompt(s.Scene.Bounds.Shape, s.Scene.Plants, season, sm.config.TimeOfDay),
		NegativePrompt: NEGATIVE_PROMPT,
		Width:          sm.config.Width,
		Height:         sm.config.Height,
		Strength:       sm.config.Strength,
		CFGScale:       sm.config.CFGScale,
		Seed:           sm.config.Seed,
		Season:         season,
		TimeOfDay:      sm.config.TimeOfDay,
	}
}

func (sm *StateMachine) secondPassRequest(s *Session) SecondPassRequest {
	plants := make([]RefinementPlant, 0, len(s.Scene.Plants))
	for _, p := range s.Scene.Plants {
		rp := RefinementPlant{
			Name:         p.Name,
			Type:         string(p.Properties.Category),
			FoliageColor: p.Properties.LeafColor,
			Height:       p.Dimensions.Height,
			Position:     Position{X: p.Position.X, Y: p.Position.Y},
		}
		if s.Scene.Inventory != nil {
			if attrs, ok := s.Scene.Inventory.Lookup(p.PlantID); ok {
				rp.BloomTime = attrs.BloomTime
				if attrs.FoliageColor != "" {
					rp.FoliageColor = attrs.FoliageColor
				}
			}
		}
		plants = append(plants, rp)
	}
	bounds := s.Scene.Bounds
	return SecondPassRequest{
		ReferenceImage:      s.FirstPass,
		Plants:              plants,
		Season:              sm.season(s),
		GardenDimensions:    GardenDimensions{Width: bounds.Width(), Length: bounds.Length()},
		GardenShape:         bounds.Shape.String(),
		BotanicalAccuracy:   true,
		MaintainComposition: true,
	}
}

/**
 * @brief Generates seasonal views of the final image for days sampled from
 * the range. Only available once the session is complete; the session
 * itself is left untouched.
 */
func (sm *StateMachine) Seasonal(ctx context.Context, dates garden.DateRange, manifest []garden.ManifestEntry) ([]garden.SeasonalImage, error) {
	return sm.SeasonalWithStyle(ctx, dates, manifest, "")
}

// SeasonalWithStyle is Seasonal with the configured style replaced, unless
// style is empty.
func (sm *StateMachine) SeasonalWithStyle(ctx context.Context, dates garden.DateRange, manifest []garden.ManifestEntry, style string) ([]garden.SeasonalImage, error) {
	if style == "" {
		style = sm.config.Style
	}
	sm.mu.Lock()
	s := sm.session
	if s == nil || s.Step != StepComplete || s.Final == "" {
		sm.mu.Unlock()
		return nil, core.ErrSessionNotComplete
	}
	sessionID, final, scene := s.ID, s.Final, s.Scene
	sm.mu.Unlock()

	if len(manifest) == 0 {
		return nil, core.ErrNoPlants
	}

	req := SeasonalRequest{
		ReferenceImage: final,
		Plants:         make([]SeasonalPlant, 0, len(manifest)),
		GardenSize:     fmt.Sprintf("%.1fm x %.1fm", scene.Bounds.Width(), scene.Bounds.Length()),
		Style:          style,
	}
	for _, m := range manifest {
		req.Plants = append(req.Plants, SeasonalPlant{PlantName: m.Name, X: m.X, Y: m.Y, Size: string(m.SizeClass)})
	}

	if sm.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sm.config.Timeout)
		defer cancel()
	}
	fireStage(sessionID, StageSeasonal, "started")
	resp, err := sm.enhancer.Seasonal(ctx, req)
	if err != nil {
		se := &StageError{Stage: StageSeasonal, Err: err}
		core.LogError("%s", se)
		fireStage(sessionID, StageSeasonal, "error")
		return nil, se
	}

	year := sm.config.Year
	if year == 0 {
		year = sm.config.Now().Year()
	}
	images := make([]garden.SeasonalImage, 0, sm.config.SeasonalSamples)
	for _, day := range dates.Sample(sm.config.SeasonalSamples) {
		season := garden.SeasonForDay(day)
		url := resp.SeasonalImages.For(season)
		if url == "" {
			core.LogWarn("no %s image generated, skipping day %d", season, day)
			continue
		}
		month := int(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1).Month())
		blooming := bloomingPlants(manifest, scene.Inventory, month)
		weather := garden.WeatherForSeason(season)
		images = append(images, garden.SeasonalImage{
			DayOfYear:      day,
			Date:           garden.DateForDay(year, day),
			ImageURL:       url,
			Season:         season,
			Description:    describeSeason(season, weather, blooming),
			BloomingPlants: blooming,
			Weather:        weather,
		})
	}
	if len(images) == 0 {
		se := &StageError{Stage: StageSeasonal, Err: errors.New("no images for the requested dates")}
		core.LogError("%s", se)
		fireStage(sessionID, StageSeasonal, "error")
		return nil, se
	}
	fireStage(sessionID, StageSeasonal, "ok")
	return images, nil
}

func bloomingPlants(manifest []garden.ManifestEntry, inventory garden.Inventory, month int) []string {
	names := []string{}
	if inventory == nil {
		return names
	}
	seen := map[string]bool{}
	for _, m := range manifest {
		if seen[m.Name] {
			continue
		}
		if attrs, ok := inventory.Lookup(m.PlantID); ok && attrs.BloomsInMonth(month) {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}

func describeSeason(season garden.Season, weather string, blooming []string) string {
	d := fmt.Sprintf("The garden in %s, %s weather", season, weather)
	if len(blooming) == 0 {
		return d + ", nothing in flower."
	}
	return d + ", in bloom: " + strings.Join(blooming, ", ") + "."
}
