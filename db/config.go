package db

// Config is the configuration of the sqlite database shared by the syncing components
type Config struct {
	// Path is the path of the sqlite file
	Path string `mapstructure:"Path"`
}
