package config

// LoggingConfig configures the structured diagnostic log.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"` // Master toggle - false = no logging (production)
	Level     string `yaml:"level"`      // debug, info, warn, error
	Format    string `yaml:"format"`     // json, console
	File      string `yaml:"file"`       // empty = stderr
}

// Enabled reports whether anything should be logged.
func (c LoggingConfig) Enabled() bool {
	return c.DebugMode
}
