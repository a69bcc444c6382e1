package garden

type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

func Seasons() []Season {
	return []Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}
}

// SeasonForDay uses northern hemisphere meteorological boundaries at the
// equinoxes and solstices.
func SeasonForDay(day int) Season {
	switch {
	case day >= 80 && day < 172:
		return SeasonSpring
	case day >= 172 && day < 266:
		return SeasonSummer
	case day >= 266 && day < 355:
		return SeasonAutumn
	}
	return SeasonWinter
}

// Weather is a coarse tag used to pick the look of a seasonal image.
func WeatherForSeason(s Season) string {
	switch s {
	case SeasonSpring:
		return "mild"
	case SeasonSummer:
		return "sunny"
	case SeasonAutumn:
		return "overcast"
	}
	return "frost"
}

/**
 * @brief One generated seasonal view of the garden. Produced by the remote
 * enhancer and never changed afterwards.
 */
type SeasonalImage struct {
	DayOfYear      int      `json:"dayOfYear"`
	Date           string   `json:"date"`
	ImageURL       string   `json:"imageUrl"`
	Season         Season   `json:"season"`
	Description    string   `json:"description"`
	BloomingPlants []string `json:"bloomingPlants"`
	Weather        string   `json:"weather"`
}
