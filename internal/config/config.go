package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Search   SearchConfig   `mapstructure:"search"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Mail     MailConfig     `mapstructure:"mail"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig: driver postgres, sqlite ou memory. Para sqlite a URL é o caminho do arquivo.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// RabbitMQConfig: desligado, as buscas rodam no próprio processo da API.
type RabbitMQConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	Prefetch    int    `mapstructure:"prefetch"`
	Concurrency int    `mapstructure:"concurrency"`
}

type SearchConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type ScraperConfig struct {
	Delay    time.Duration `mapstructure:"delay"`
	MinLeads int           `mapstructure:"min_leads"`
	MaxLeads int           `mapstructure:"max_leads"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"pass"`
	From     string `mapstructure:"from"`
}

func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.Host) != ""
}

type HTTPConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// SetDefaults registra todas as chaves; sem default o viper não lê a env no Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "leadscout.db")

	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", "5672")
	v.SetDefault("rabbitmq.prefetch", 4)
	v.SetDefault("rabbitmq.concurrency", 4)

	v.SetDefault("search.timeout", 300*time.Second)
	v.SetDefault("search.stale_after", 15*time.Minute)
	v.SetDefault("search.sweep_interval", time.Minute)

	v.SetDefault("scraper.delay", 2*time.Second)
	v.SetDefault("scraper.min_leads", 10)
	v.SetDefault("scraper.max_leads", 29)

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.user", "")
	v.SetDefault("mail.pass", "")
	v.SetDefault("mail.from", "LeadScout <no-reply@leadscout.local>")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.allowed_origins", []string{"http://localhost:5173", "*"})

	v.SetDefault("log.json", true)
	v.SetDefault("log.level", "info")
}

// NewViper lê .env, defaults, arquivo opcional e variáveis de ambiente
// (database.url <- DATABASE_URL), nessa ordem de precedência.
func NewViper(configFile string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", configFile)
		}
	}
	return v, nil
}

func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return LoadWithViper(v)
}

func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "memory":
	case "postgres", "postgresql", "sqlite", "sqlite3":
		if strings.TrimSpace(c.Database.URL) == "" {
			return errors.Newf("database.url is required for driver %q", c.Database.Driver)
		}
	default:
		return errors.Newf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.Search.Timeout <= 0 {
		return errors.New("search.timeout must be positive")
	}
	if c.Search.StaleAfter <= 0 || c.Search.SweepInterval <= 0 {
		return errors.New("search.stale_after and search.sweep_interval must be positive")
	}
	// Senão a varredura marca como failed buscas que ainda estão dentro do timeout.
	if c.Search.StaleAfter <= c.Search.Timeout {
		return errors.Newf("search.stale_after (%s) must be greater than search.timeout (%s)", c.Search.StaleAfter, c.Search.Timeout)
	}
	if c.Scraper.MinLeads < 1 || c.Scraper.MaxLeads < c.Scraper.MinLeads {
		return errors.Newf("invalid scraper lead bounds [%d, %d]", c.Scraper.MinLeads, c.Scraper.MaxLeads)
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.Host == "" {
		return errors.New("rabbitmq.host is required when rabbitmq is enabled")
	}
	return nil
}

// InMemory indica que nada é persistido entre reinícios.
func (c *Config) InMemory() bool {
	return strings.EqualFold(c.Database.Driver, "memory")
}
