package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config holds everything the process reads from the environment.
type Config struct {
	Port        string        `envconfig:"PORT" default:"8000"`
	MongoURI    string        `envconfig:"MONGO_DB_URI" required:"true"`
	MongoDBName string        `envconfig:"MONGO_DB_NAME" default:"parley"`
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"168h"`
	UploadDir   string        `envconfig:"UPLOAD_DIR" default:"./public"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"debug"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// .env is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}
	return &cfg, nil
}
