package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "recruitpulse.db")

	// Server defaults
	v.SetDefault("server.port", 3000)

	// Dialing defaults (6 calls/hour, 3-10 minute jitter, 9:00-18:00 window)
	v.SetDefault("dialing.max_calls_per_hour", 6)
	v.SetDefault("dialing.min_delay_minutes", 3)
	v.SetDefault("dialing.max_delay_minutes", 10)
	v.SetDefault("dialing.calling_start_hour", 9)
	v.SetDefault("dialing.calling_end_hour", 18)
	v.SetDefault("dialing.queue_max_attempts", 3)
	v.SetDefault("dialing.max_call_attempts", 2)
	v.SetDefault("dialing.retention_days", 7)
	v.SetDefault("dialing.stale_call_hours", 6)

	// Screening defaults
	v.SetDefault("screening.qualification_threshold", 45.0)

	// Callback defaults
	v.SetDefault("callback.max_attempts", 3)
	v.SetDefault("callback.retry_delay_hours", 2)

	// Assessment defaults
	v.SetDefault("assessment.schedule_delay_seconds", 120)
	v.SetDefault("assessment.base_url", "https://assessment.example.com")

	// Voice provider defaults
	v.SetDefault("voice.base_url", "https://api.bolna.ai")
	v.SetDefault("voice.requests_per_minute", 10)

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 1000)
}

// BindSensitiveEnvVars binds credential values to environment variables so
// they never need to live in the config file.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("voice.api_key", "RECRUITPULSE_VOICE_API_KEY", "BOLNA_API_KEY")
	v.BindEnv("voice.agent_id", "RECRUITPULSE_VOICE_AGENT_ID", "BOLNA_AGENT_ID")
	v.BindEnv("voice.from_number", "RECRUITPULSE_VOICE_FROM_NUMBER", "BOLNA_FROM_NUMBER")
	v.BindEnv("llm.api_key", "RECRUITPULSE_LLM_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("mail.api_key", "RECRUITPULSE_MAIL_API_KEY")
}
