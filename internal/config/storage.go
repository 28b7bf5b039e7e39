package config

// StorageConfig selects the keyed-record store backing the ledger and the
// pending-payment stash.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite", "redis".
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisConfig  `yaml:"redis"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}
