// Package config loads recruitpulse configuration via Viper from a TOML
// file, environment variables (RECRUITPULSE_ prefix), and defaults.
package config

// Config is the root recruitpulse configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Dialing    DialingConfig    `mapstructure:"dialing"`
	Screening  ScreeningConfig  `mapstructure:"screening"`
	Callback   CallbackConfig   `mapstructure:"callback"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Voice      VoiceConfig      `mapstructure:"voice"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Mail       MailConfig       `mapstructure:"mail"`
}

// DatabaseConfig configures the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DialingConfig governs the rate-limited call queue.
type DialingConfig struct {
	MaxCallsPerHour  int `mapstructure:"max_calls_per_hour"`  // rolling-hour cap on completed dispatches (default: 6)
	MinDelayMinutes  int `mapstructure:"min_delay_minutes"`   // lower jitter bound between queued calls (default: 3)
	MaxDelayMinutes  int `mapstructure:"max_delay_minutes"`   // upper jitter bound (default: 10)
	CallingStartHour int `mapstructure:"calling_start_hour"`  // working window start, local time (default: 9)
	CallingEndHour   int `mapstructure:"calling_end_hour"`    // working window end, exclusive (default: 18)
	QueueMaxAttempts int `mapstructure:"queue_max_attempts"`  // per-entry dispatch retries before failed (default: 3)
	MaxCallAttempts  int `mapstructure:"max_call_attempts"`   // follow-up redials before giving up (default: 2)
	RetentionDays    int `mapstructure:"retention_days"`      // terminal queue entries kept this long (default: 7)
	StaleCallHours   int `mapstructure:"stale_call_hours"`    // hours in a Calling status before the sweep flags it (default: 6)
}

// ScreeningConfig governs transcript scoring.
type ScreeningConfig struct {
	QualificationThreshold float64 `mapstructure:"qualification_threshold"` // overall score >= threshold qualifies (default: 45)
}

// CallbackConfig governs candidate-requested callbacks.
type CallbackConfig struct {
	MaxAttempts     int `mapstructure:"max_attempts"`      // redials before terminal (default: 3)
	RetryDelayHours int `mapstructure:"retry_delay_hours"` // reschedule offset after a failed redial (default: 2)
}

// AssessmentConfig governs the one-shot scheduling call and link emails.
type AssessmentConfig struct {
	ScheduleDelaySeconds int    `mapstructure:"schedule_delay_seconds"` // delay before the scheduling call (default: 120)
	BaseURL              string `mapstructure:"base_url"`               // assessment link base
}

// VoiceConfig configures the outbound call provider.
type VoiceConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	AgentID           string `mapstructure:"agent_id"`
	FromNumber        string `mapstructure:"from_number"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"` // client-side pacing for provider API calls
}

// LLMConfig configures the language-model API used for parsing and scoring.
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// MailConfig configures the transactional email provider.
type MailConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
}
