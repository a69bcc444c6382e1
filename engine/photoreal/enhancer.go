package photoreal

import (
	"context"
	"errors"

	"github.com/spaghettifunk/gardenia/engine/garden"
)

// FirstPassRequest drives the style transfer from the local render.
type FirstPassRequest struct {
	ReferenceImage string        `json:"referenceImage"`
	Prompt         string        `json:"prompt"`
	NegativePrompt string        `json:"negativePrompt"`
	Width          uint32        `json:"width"`
	Height         uint32        `json:"height"`
	Strength       float32       `json:"strength"`
	CFGScale       float32       `json:"cfgScale"`
	Seed           int64         `json:"seed"`
	Season         garden.Season `json:"season"`
	TimeOfDay      string        `json:"timeOfDay"`
}

type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type RefinementPlant struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	BloomTime    string   `json:"bloomTime"`
	FoliageColor string   `json:"foliageColor"`
	Height       float32  `json:"height"`
	Position     Position `json:"position"`
}

type GardenDimensions struct {
	Width  float32 `json:"width"`
	Length float32 `json:"length"`
}

// SecondPassRequest refines the approved first pass for botanical accuracy.
type SecondPassRequest struct {
	ReferenceImage      string            `json:"referenceImage"`
	Plants              []RefinementPlant `json:"plants"`
	Season              garden.Season     `json:"season"`
	GardenDimensions    GardenDimensions  `json:"gardenDimensions"`
	GardenShape         string            `json:"gardenShape"`
	BotanicalAccuracy   bool              `json:"botanicalAccuracy"`
	MaintainComposition bool              `json:"maintainComposition"`
}

type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

type SeasonalPlant struct {
	PlantName string  `json:"plantName"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Size      string  `json:"size"`
}

type SeasonalRequest struct {
	ReferenceImage string          `json:"referenceImage"`
	Plants         []SeasonalPlant `json:"plants"`
	GardenSize     string          `json:"gardenSize"`
	Style          string          `json:"style"`
}

type SeasonalImages struct {
	Spring string `json:"spring,omitempty"`
	Summer string `json:"summer,omitempty"`
	Autumn string `json:"autumn,omitempty"`
	Winter string `json:"winter,omitempty"`
}

// For returns the image generated for s, empty when there is none.
func (s SeasonalImages) For(season garden.Season) string {
	switch season {
	case garden.SeasonSpring:
		return s.Spring
	case garden.SeasonSummer:
		return s.Summer
	case garden.SeasonAutumn:
		return s.Autumn
	case garden.SeasonWinter:
		return s.Winter
	}
	return ""
}

type SeasonalResponse struct {
	SeasonalImages   SeasonalImages  `json:"seasonalImages"`
	GeneratedSeasons []garden.Season `json:"generatedSeasons"`
}

/**
 * @brief The remote image enhancement service. Calls are not cancelled
 * once issued; results that arrive for a superseded attempt are dropped by
 * the state machine.
 */
type Enhancer interface {
	FirstPass(ctx context.Context, req FirstPassRequest) (ImageResponse, error)
	SecondPass(ctx context.Context, req SecondPassRequest) (ImageResponse, error)
	Seasonal(ctx context.Context, req SeasonalRequest) (SeasonalResponse, error)
}

var ErrEnhancerDisabled = errors.New("no enhancer configured, set enhancer.base_url")

// DisabledEnhancer fails every call. Used when no remote service is set up so
// the scene side still works.
type DisabledEnhancer struct{}

func (DisabledEnhancer) FirstPass(context.Context, FirstPassRequest) (ImageResponse, error) {
	return ImageResponse{}, ErrEnhancerDisabled
}

func (DisabledEnhancer) SecondPass(context.Context, SecondPassRequest) (ImageResponse, error) {
	return ImageResponse{}, ErrEnhancerDisabled
}

func (DisabledEnhancer) Seasonal(context.Context, SeasonalRequest) (SeasonalResponse, error) {
	return SeasonalResponse{}, ErrEnhancerDisabled
}
