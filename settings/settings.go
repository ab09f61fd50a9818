package settings

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

type DelayConfig struct {
	Min, Max int64
}

type PlayerConfig struct {
	ID          int
	Interpolate bool
	PacketLoss  float64
	Delay       DelayConfig
}

type GameConfig struct {
	CommandDelay int64
	TickRate     int64
}

type Config struct {
	Game    GameConfig
	Players []PlayerConfig
}

func ReadTOML(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := toml.Unmarshal(file, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
