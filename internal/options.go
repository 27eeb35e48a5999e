package internal

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

const CustomPreset = "custom"

var (
	VictoryRoundOptions      = []int{5, 10, 15}
	VictoryPointOptions      = []int{500, 1000, 1500}
	GraceSecondOptions       = []int{0, 3, 5, 10}
	RoundTimeLimitOptions    = []int{0, 30, 60, 90, 120}
	VotingTimeLimitOptions   = []int{15, 30, 45}
	TimeBetweenRoundsOptions = []int{0, 10, 20, 30}
)

var (
	presetsMu       sync.RWMutex
	categoryPresets = map[string][]string{
		"classic":   {"name", "animal", "city_country", "fruit_food", "color", "thing", "profession"},
		"geography": {"country", "city", "river", "mountain", "sea_ocean", "capital", "continent"},
		"party":     {"song", "artist", "movie", "tv_series", "drink", "food", "celebrity"},
		"kids":      {"animal", "color", "food", "toy", "cartoon", "superhero", "fruit"},
	}
)

// RegisterPresets adds or replaces named category presets. Presets whose
// category count is out of range are skipped and returned by name.
func RegisterPresets(presets map[string][]string) []string {
	presetsMu.Lock()
	defer presetsMu.Unlock()

	var skipped []string
	for name, categories := range presets {
		if name == CustomPreset || len(categories) < MinCategories || len(categories) > MaxCategories {
			skipped = append(skipped, name)
			continue
		}
		categoryPresets[name] = slices.Clone(categories)
	}
	slices.Sort(skipped)
	return skipped
}

func PresetCategories(name string) ([]string, bool) {
	presetsMu.RLock()
	defer presetsMu.RUnlock()
	categories, ok := categoryPresets[name]
	return slices.Clone(categories), ok
}

func PresetNames() []string {
	presetsMu.RLock()
	defer presetsMu.RUnlock()
	return slices.Sorted(maps.Keys(categoryPresets))
}

func DefaultConfig() GameConfig {
	categories, _ := PresetCategories("classic")
	return GameConfig{
		VictoryMode:        VictoryRounds,
		VictoryValue:       10,
		BastaGraceSeconds:  5,
		RoundTimeLimit:     0,
		VotingTimeLimit:    30,
		TimeBetweenRounds:  0,
		MaxPlayers:         MaxPlayersPerRoom,
		Categories:         categories,
		CategoryPreset:     "classic",
		ShowOthersProgress: false,
	}
}

// ConfigPatch is a partial GameConfig; nil fields are left unchanged.
type ConfigPatch struct {
	VictoryMode        *VictoryMode `json:"victory_mode,omitempty"`
	VictoryValue       *int         `json:"victory_value,omitempty"`
	BastaGraceSeconds  *int         `json:"basta_grace_seconds,omitempty"`
	RoundTimeLimit     *int         `json:"round_time_limit,omitempty"`
	VotingTimeLimit    *int         `json:"voting_time_limit,omitempty"`
	TimeBetweenRounds  *int         `json:"time_between_rounds,omitempty"`
	MaxPlayers         *int         `json:"max_players,omitempty"`
	Categories         []string     `json:"categories,omitempty"`
	CategoryPreset     *string      `json:"category_preset,omitempty"`
	ShowOthersProgress *bool        `json:"show_others_progress,omitempty"`
}

// Apply returns cfg with the patch applied, or an INVALID_MESSAGE error if
// the result is not a legal configuration. cfg itself is never modified.
func (p ConfigPatch) Apply(cfg GameConfig) (GameConfig, error) {
	next := cfg
	next.Categories = slices.Clone(cfg.Categories)

	if p.VictoryMode != nil {
		if *p.VictoryMode != next.VictoryMode && p.VictoryValue == nil {
			next.VictoryValue = defaultVictoryValue(*p.VictoryMode)
		}
		next.VictoryMode = *p.VictoryMode
	}
	if p.VictoryValue != nil {
		next.VictoryValue = *p.VictoryValue
	}
	if p.BastaGraceSeconds != nil {
		next.BastaGraceSeconds = *p.BastaGraceSeconds
	}
	if p.RoundTimeLimit != nil {
		next.RoundTimeLimit = *p.RoundTimeLimit
	}
	if p.VotingTimeLimit != nil {
		next.VotingTimeLimit = *p.VotingTimeLimit
	}
	if p.TimeBetweenRounds != nil {
		next.TimeBetweenRounds = *p.TimeBetweenRounds
	}
	if p.MaxPlayers != nil {
		next.MaxPlayers = *p.MaxPlayers
	}
	if p.ShowOthersProgress != nil {
		next.ShowOthersProgress = *p.ShowOthersProgress
	}

	if p.CategoryPreset != nil && *p.CategoryPreset != CustomPreset {
		categories, ok := PresetCategories(*p.CategoryPreset)
		if !ok {
			return cfg, NewGameError(CodeInvalidMessage, "Unknown category preset %q", *p.CategoryPreset)
		}
		next.CategoryPreset = *p.CategoryPreset
		next.Categories = categories
	}
	if p.Categories != nil {
		categories, err := cleanCategories(p.Categories)
		if err != nil {
			return cfg, err
		}
		next.Categories = categories
		next.CategoryPreset = CustomPreset
	} else if p.CategoryPreset != nil && *p.CategoryPreset == CustomPreset {
		next.CategoryPreset = CustomPreset
	}

	if err := ValidateConfig(next); err != nil {
		return cfg, err
	}
	return next, nil
}

func ValidateConfig(cfg GameConfig) error {
	switch cfg.VictoryMode {
	case VictoryRounds:
		if !slices.Contains(VictoryRoundOptions, cfg.VictoryValue) {
			return NewGameError(CodeInvalidMessage, "Invalid round target %d", cfg.VictoryValue)
		}
	case VictoryPoints:
		if !slices.Contains(VictoryPointOptions, cfg.VictoryValue) {
			return NewGameError(CodeInvalidMessage, "Invalid points target %d", cfg.VictoryValue)
		}
	default:
		return NewGameError(CodeInvalidMessage, "Invalid victory mode %q", cfg.VictoryMode)
	}
	if !slices.Contains(GraceSecondOptions, cfg.BastaGraceSeconds) {
		return NewGameError(CodeInvalidMessage, "Invalid grace period %d", cfg.BastaGraceSeconds)
	}
	if !slices.Contains(RoundTimeLimitOptions, cfg.RoundTimeLimit) {
		return NewGameError(CodeInvalidMessage, "Invalid round time limit %d", cfg.RoundTimeLimit)
	}
	if !slices.Contains(VotingTimeLimitOptions, cfg.VotingTimeLimit) {
		return NewGameError(CodeInvalidMessage, "Invalid voting time limit %d", cfg.VotingTimeLimit)
	}
	if !slices.Contains(TimeBetweenRoundsOptions, cfg.TimeBetweenRounds) {
		return NewGameError(CodeInvalidMessage, "Invalid time between rounds %d", cfg.TimeBetweenRounds)
	}
	if cfg.MaxPlayers < MinPlayersToStart || cfg.MaxPlayers > MaxPlayersPerRoom {
		return NewGameError(CodeInvalidMessage, "Max players must be between %d and %d", MinPlayersToStart, MaxPlayersPerRoom)
	}
	if len(cfg.Categories) < MinCategories || len(cfg.Categories) > MaxCategories {
		return NewGameError(CodeInvalidMessage, "Pick between %d and %d categories", MinCategories, MaxCategories)
	}
	return nil
}

func cleanCategories(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, NewGameError(CodeInvalidMessage, "Category names cannot be empty")
		}
		if slices.Contains(out, c) {
			return nil, NewGameError(CodeInvalidMessage, "Duplicate category %q", c)
		}
		out = append(out, c)
	}
	return out, nil
}

func defaultVictoryValue(mode VictoryMode) int {
	if mode == VictoryPoints {
		return 1000
	}
	return 10
}
