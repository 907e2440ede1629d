package models

// BadgeDefinition is an immutable catalog entry. Condition must be a pure
// function of the stats it is given.
type BadgeDefinition struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Icon        string                     `json:"icon"`
	Condition   func(EngagementStats) bool `json:"-"`
}

// BadgeStatus pairs a definition with whether the profile has earned it
type BadgeStatus struct {
	BadgeDefinition
	Earned bool `json:"earned"`
}

var badgeCatalog = []BadgeDefinition{
	{
		ID:          "first_book",
		Name:        "First Steps",
		Description: "Started your first book",
		Icon:        "📖",
		Condition:   func(s EngagementStats) bool { return s.BooksStarted >= 1 },
	},
	{
		ID:          "bookworm",
		Name:        "Bookworm",
		Description: "Started 5 books",
		Icon:        "🐛",
		Condition:   func(s EngagementStats) bool { return s.BooksStarted >= 5 },
	},
	{
		ID:          "avid_reader",
		Name:        "Avid Reader",
		Description: "Started 10 books",
		Icon:        "📚",
		Condition:   func(s EngagementStats) bool { return s.BooksStarted >= 10 },
	},
	{
		ID:          "audio_lover",
		Name:        "Audio Lover",
		Description: "Listened to 5 audiobooks",
		Icon:        "🎧",
		Condition:   func(s EngagementStats) bool { return s.AudiobooksPlayed >= 5 },
	},
	{
		ID:          "night_owl",
		Name:        "Night Owl",
		Description: "Read between midnight and 4 AM",
		Icon:        "🦉",
		Condition:   func(s EngagementStats) bool { return s.NightReading },
	},
	{
		ID:          "early_bird",
		Name:        "Early Bird",
		Description: "Read between 5 AM and 7 AM",
		Icon:        "🐦",
		Condition:   func(s EngagementStats) bool { return s.EarlyReading },
	},
	{
		ID:          "streak_3",
		Name:        "Getting Started",
		Description: "3-day reading streak",
		Icon:        "🔥",
		Condition:   func(s EngagementStats) bool { return s.MaxStreak >= 3 },
	},
	{
		ID:          "streak_7",
		Name:        "Week Warrior",
		Description: "7-day reading streak",
		Icon:        "⚡",
		Condition:   func(s EngagementStats) bool { return s.MaxStreak >= 7 },
	},
	{
		ID:          "streak_30",
		Name:        "Monthly Master",
		Description: "30-day reading streak",
		Icon:        "👑",
		Condition:   func(s EngagementStats) bool { return s.MaxStreak >= 30 },
	},
	{
		ID:          "favorites_5",
		Name:        "Curator",
		Description: "Added 5 books to favorites",
		Icon:        "❤️",
		Condition:   func(s EngagementStats) bool { return s.FavoritesCount >= 5 },
	},
	{
		ID:          "explorer",
		Name:        "Explorer",
		Description: "Read books from 3 different genres",
		Icon:        "🧭",
		Condition:   func(s EngagementStats) bool { return s.GenresExplored >= 3 },
	},
	{
		ID:          "collector",
		Name:        "Collector",
		Description: "Created your first collection",
		Icon:        "📂",
		Condition:   func(s EngagementStats) bool { return s.CollectionsCreated >= 1 },
	},
}

// BadgeCatalog returns the badge catalog in declaration order
func BadgeCatalog() []BadgeDefinition {
	return append([]BadgeDefinition(nil), badgeCatalog...)
}

// FindBadge looks up a catalog entry by id
func FindBadge(id string) (BadgeDefinition, bool) {
	for _, b := range badgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return BadgeDefinition{}, false
}

// EarnedBadges is the grow-only set of earned badge ids, kept in earning order
type EarnedBadges []string

// Has reports whether id was earned
func (e EarnedBadges) Has(id string) bool {
	for _, earned := range e {
		if earned == id {
			return true
		}
	}
	return false
}

// Union returns e with every id of other appended that e lacks
func (e EarnedBadges) Union(other EarnedBadges) EarnedBadges {
	out := append(EarnedBadges{}, e...)
	for _, id := range other {
		if !out.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// NewlyEarned returns, in catalog order, the badges whose condition holds for
// stats and which are not yet in earned.
func NewlyEarned(catalog []BadgeDefinition, stats EngagementStats, earned EarnedBadges) []BadgeDefinition {
	var fresh []BadgeDefinition
	for _, badge := range catalog {
		if earned.Has(badge.ID) || badge.Condition == nil {
			continue
		}
		if badge.Condition(stats) {
			fresh = append(fresh, badge)
		}
	}
	return fresh
}
