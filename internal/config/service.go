package config

type ServiceConfig struct {
	Name        string         `yaml:"name"`
	Environment string         `yaml:"environment"`
	Version     string         `yaml:"version"`
	ClientURL   string         `yaml:"client_url"`
	JWTSecret   string         `yaml:"jwt_secret"`
	PayMongo    PayMongoConfig `yaml:"paymongo"`
}

type PayMongoConfig struct {
	BaseURL   string `yaml:"base_url"`
	PublicKey string `yaml:"public_key"`
	SecretKey string `yaml:"secret_key"`
}
