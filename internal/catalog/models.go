package catalog

// DefaultKey is the offerings entry used for zip codes missing from the table.
const DefaultKey = "default"

// ZipEntry describes the neighborhoods served by a zip code.
type ZipEntry struct {
	ZipCode       string   `json:"zip_code"`
	Neighborhoods []string `json:"neighborhoods"`
	Highlights    []string `json:"highlights"`
}

// Offerings holds the three recommendable programs for a zip code, one per
// situational slot.
type Offerings struct {
	Hot    string
	Cold   string
	Normal string
}

// Slice returns the offerings in slot order (hot, cold, normal).
func (o Offerings) Slice() []string {
	return []string{o.Hot, o.Cold, o.Normal}
}

// KeywordRule awards Points to every offering whose name contains Offering
// when any of Keywords matches.
type KeywordRule struct {
	Keywords []string `json:"keywords"`
	Offering string   `json:"offering"`
	Points   int      `json:"points"`
}

// ScoringRules configures the score-accumulation recommendation policy.
type ScoringRules struct {
	HotPoints  int           `json:"hot_points"`
	ColdPoints int           `json:"cold_points"`
	Weather    []KeywordRule `json:"weather"`
	Highlights []KeywordRule `json:"highlights"`
}

// Preset is a named location usable instead of device coordinates.
type Preset struct {
	Key       string  `json:"key"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}
