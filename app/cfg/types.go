package cfg

type Cfg struct {
	// Telegraph feed configuration
	TelegraphURL     string
	TelegraphChannel string
	PageSize         int
	PollInterval     int

	// Application configuration
	SourcesDir   string
	SettingsFile string
	DBPath       string
	Port         string
	BaseUrl      string
	WorkerCount  int
	APIAccessKey string

	// Announcement configuration
	TelegramToken  string
	TelegramChatID string
	SpeechCommand  string
	PlayerCommand  string
	SoundsDir      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
