package photoreal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spaghettifunk/gardenia/engine/garden"
)

const NEGATIVE_PROMPT string = "cartoon, illustration, 3d render, cgi, low poly, flat shading, " +
	"blurry, distorted plants, extra limbs, text, watermark, people, oversaturated"

const MAX_PROMPT_CATEGORIES int = 3

/**
 * @brief Builds the first pass prompt. The wording only depends on its
 * inputs so the same garden always produces the same prompt.
 */
func BuildPrompt(shape garden.Shape, plants []garden.PlantInstance3D, season garden.Season, timeOfDay string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "photorealistic photograph of a %s garden bed", shapeWords(shape))
	if cats := DominantCategories(plants, MAX_PROMPT_CATEGORIES); len(cats) > 0 {
		words := make([]string, 0, len(cats))
		for _, c := range cats {
			words = append(words, plural(string(c)))
		}
		fmt.Fprintf(&b, " planted with %s", joinWords(words))
	}
	if season != "" {
		fmt.Fprintf(&b, " in %s", season)
	}
	if timeOfDay != "" {
		fmt.Fprintf(&b, ", %s light", timeOfDay)
	}
	b.WriteString(", natural soil and mulch, high detail, shot on a full frame camera")
	return b.String()
}

// DominantCategories orders categories by plant count, ties broken by name.
func DominantCategories(plants []garden.PlantInstance3D, max int) []garden.Category {
	counts := map[garden.Category]int{}
	for _, p := range plants {
		counts[p.Properties.Category]++
	}
	cats := make([]garden.Category, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if max > 0 && len(cats) > max {
		cats = cats[:max]
	}
	return cats
}

func shapeWords(shape garden.Shape) string {
	switch shape {
	case garden.ShapeLShaped:
		return "L-shaped"
	case garden.ShapeRShaped:
		return "R-shaped"
	}
	return shape.String()
}

func plural(word string) string {
	switch {
	case strings.HasSuffix(word, "s"):
		return word + "es"
	case strings.HasSuffix(word, "y"):
		return word
	}
	return word + "s"
}

func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}
	return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
}
