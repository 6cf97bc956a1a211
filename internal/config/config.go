package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Загрузка конфигурации из config.yaml через cleanenv

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Markets       MarketsConfig       `yaml:"markets"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Logger        LoggerConfig        `yaml:"logger"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"  env-default:"info"` // debug|info|warn|error
	Format string `yaml:"format" env-default:"text"` // text|json
}

// MarketsConfig — эндпоинт и стартовый кортеж параметров таблицы.
// Всё, что раньше было бы глобальными константами, живёт здесь и
// внедряется в сервис при сборке приложения.
type MarketsConfig struct {
	BaseURL   string `yaml:"base_url" env-default:"https://api.coingecko.com/api/v3"`
	Currency  string `yaml:"currency" env-default:"usd"`
	Order     string `yaml:"order" env-default:"market_cap_desc"`
	Page      int    `yaml:"page" env-default:"1"`
	PerPage   int    `yaml:"per_page" env-default:"10"`
	Sparkline bool   `yaml:"sparkline" env-default:"false"`
	Enabled   bool   `yaml:"enabled" env-default:"true"`

	// TotalRows — косметический верхний предел для пагинации; API не
	// сообщает реальный размер выборки в этом потоке.
	TotalRows int `yaml:"total_rows" env-default:"10000"`

	Timeout       time.Duration `yaml:"timeout" env-default:"8s"`
	RetryAttempts int           `yaml:"retry_attempts" env-default:"3"`
	RetryDelay    time.Duration `yaml:"retry_delay" env-default:"500ms"`
	UserAgent     string        `yaml:"user_agent" env-default:"coin-market-board/1.0"`
}

type NotificationsConfig struct {
	Capacity int           `yaml:"capacity" env-default:"32"`
	TTL      time.Duration `yaml:"ttl" env-default:"1m"`
}

type TelegramConfig struct {
	Enabled         bool          `yaml:"enabled" env-default:"false"`
	Token           string        `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	LongPollTimeout time.Duration `yaml:"long_poll_timeout" env-default:"10s"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Try to read from config file if specified
	configPath := fetchConfigPath()
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, err
		}
	}

	// Read from environment variables
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fetchConfigPath() string {
	var res string
	flag.StringVar(&res, "c", "", "config file path")
	flag.Parse()
	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	return res
}
