package domain

// Settings document ids within the settings collection.
const (
	SettingsRamadan       = "ramadan"
	SettingsNotifications = "notifications"
	SettingsButtons       = "buttons"
)

// Notification slot names. These double as the keys of the scheduler's
// last-sent state.
const (
	SlotMorning     = "morning"
	SlotEvening     = "evening"
	SlotDailyReport = "dailyReport"
)

// RamadanWindow defines the start and end of the observed month as ISO dates.
// Day numbering is derived from StartDate.
type RamadanWindow struct {
	ID        string `bson:"_id,omitempty" json:"-"`
	StartDate string `bson:"startDate" json:"startDate"`
	EndDate   string `bson:"endDate" json:"endDate"`
}

// DefaultRamadanWindow returns the window created on first run when the
// settings document is absent.
func DefaultRamadanWindow() RamadanWindow {
	return RamadanWindow{
		ID:        SettingsRamadan,
		StartDate: "2026-02-18",
		EndDate:   "2026-03-20",
	}
}

// SlotConfig configures a single notification occasion.
type SlotConfig struct {
	Enabled bool   `bson:"enabled" json:"enabled"`
	Hour    int    `bson:"hour" json:"hour"`
	Minute  int    `bson:"minute" json:"minute"`
	Message string `bson:"message" json:"message"`
}

// NotificationConfig is the live-updated notification settings document.
type NotificationConfig struct {
	ID          string     `bson:"_id,omitempty" json:"-"`
	Morning     SlotConfig `bson:"morning" json:"morning"`
	Evening     SlotConfig `bson:"evening" json:"evening"`
	DailyReport SlotConfig `bson:"dailyReport" json:"dailyReport"`
}

// Slot returns the configuration for a named slot.
func (c NotificationConfig) Slot(name string) (SlotConfig, bool) {
	switch name {
	case SlotMorning:
		return c.Morning, true
	case SlotEvening:
		return c.Evening, true
	case SlotDailyReport:
		return c.DailyReport, true
	default:
		return SlotConfig{}, false
	}
}

// Button is one dynamically configured menu button: pressing a button whose
// label matches incoming text yields the canned reply.
type Button struct {
	Label string `bson:"label" json:"label"`
	Reply string `bson:"reply" json:"reply"`
}

// ButtonsConfig is the live-updated dynamic buttons document.
type ButtonsConfig struct {
	ID      string   `bson:"_id,omitempty" json:"-"`
	Buttons []Button `bson:"buttons" json:"buttons"`
}

// DailyContent is one day's devotional content (served by /hadis and watched
// for live updates).
type DailyContent struct {
	Day  int    `bson:"day" json:"day"`
	Text string `bson:"text" json:"text"`
}
