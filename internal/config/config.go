package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DB_USER,required"`
	DBPassword string `env:"DB_PASSWORD,required"`
	DBHost     string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName     string `env:"DB_NAME,required"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	// Growth tuning. Defaults are the canonical values; the envs exist for
	// staging setups that want faster cycles.
	PhaseDuration        time.Duration `env:"PHASE_DURATION" envDefault:"30s"`
	WaterCost            float64       `env:"WATER_COST" envDefault:"5.00"`
	FertilizeCost        float64       `env:"FERTILIZE_COST" envDefault:"10.00"`
	PointsConversionRate int64         `env:"POINTS_CONVERSION_RATE" envDefault:"100"`
	PayoutMultiplier     int64         `env:"MATURITY_PAYOUT_MULTIPLIER" envDefault:"2"`
	InitialHealth        int           `env:"INITIAL_HEALTH" envDefault:"2"`
	SignupPoints         int64         `env:"SIGNUP_POINTS" envDefault:"100"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
