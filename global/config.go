package global

import (
	"os"
	"strconv"
	"strings"
	"time"

	"CareGene/tools/errs"

	"github.com/mitchellh/mapstructure"
)

const (
	defaultListenAddr   = ":8080"
	defaultMongoTimeout = 5 * time.Second
)

type Config struct {
	Env        string `mapstructure:"env"` // "production" hides raw error messages
	ListenAddr string `mapstructure:"listen_addr"`

	Mongo struct {
		Uri         string `mapstructure:"uri"`
		Database    string `mapstructure:"database"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		MaxPoolSize int    `mapstructure:"max_pool_size"`
		TimeoutMS   int    `mapstructure:"timeout_ms"`
	} `mapstructure:"mongo"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Kafka struct {
		Brokers      []string `mapstructure:"brokers"`
		MessageTopic string   `mapstructure:"message_topic"`
		Partitions   int32    `mapstructure:"partitions"`
		Replication  int16    `mapstructure:"replication"`
	} `mapstructure:"kafka"`

	Nats struct {
		Servers []string `mapstructure:"servers"`
		Name    string   `mapstructure:"name"`
	} `mapstructure:"nats"`

	Gateway struct {
		Secret string `mapstructure:"secret"` // HMAC key shared with the upstream gateway
	} `mapstructure:"gateway"`
}

var conf Config

// Conf returns the loaded process configuration.
func Conf() *Config { return &conf }

// MongoTimeout is the per-call storage deadline.
func (c *Config) MongoTimeout() time.Duration {
	if c.Mongo.TimeoutMS > 0 {
		return time.Duration(c.Mongo.TimeoutMS) * time.Millisecond
	}
	return defaultMongoTimeout
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load fills the global config from the environment and applies
// defaults. Values come in as a loosely-typed map so mapstructure does
// the coercion ("20" -> int etc.).
func Load() error {
	src := map[string]any{
		"env":         GetEnv("CAREGENE_ENV", "development"),
		"listen_addr": GetEnv("LISTEN_ADDR", defaultListenAddr),
		"mongo": map[string]any{
			"uri":           GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			"database":      GetEnv("MONGO_DATABASE", "caregene"),
			"username":      GetEnv("MONGO_USERNAME", ""),
			"password":      GetEnv("MONGO_PASSWORD", ""),
			"max_pool_size": GetEnv("MONGO_MAX_POOL_SIZE", "100"),
			"timeout_ms":    GetEnv("MONGO_TIMEOUT_MS", "5000"),
		},
		"redis": map[string]any{
			"addr":     GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
			"password": GetEnv("REDIS_PASSWORD", ""),
			"db":       GetEnv("REDIS_DB", "0"),
		},
		"kafka": map[string]any{
			"brokers":       strings.Split(GetEnv("KAFKA_BROKERS", "127.0.0.1:9092"), ","),
			"message_topic": GetEnv("KAFKA_MESSAGE_TOPIC", "caregene.messages"),
			"partitions":    GetEnv("KAFKA_PARTITIONS", "8"),
			"replication":   GetEnv("KAFKA_REPLICATION", "1"),
		},
		"nats": map[string]any{
			"servers": strings.Split(GetEnv("NATS_SERVERS", "nats://127.0.0.1:4222"), ","),
			"name":    GetEnv("NATS_NAME", "caregene-api"),
		},
		"gateway": map[string]any{
			"secret": GetEnv("GATEWAY_SECRET", ""),
		},
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &conf,
	})
	if err != nil {
		return errs.Wrap(err)
	}
	if err := dec.Decode(src); err != nil {
		return errs.WrapMsg(err, "decode config")
	}
	return conf.ValidateAndSetDefaults()
}

func (c *Config) ValidateAndSetDefaults() error {
	if c.Mongo.Uri == "" {
		return errs.New("mongo uri is required").Wrap()
	}
	if c.Mongo.Database == "" {
		return errs.New("mongo database is required").Wrap()
	}
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.Mongo.MaxPoolSize <= 0 {
		c.Mongo.MaxPoolSize = 100
	}
	if c.Kafka.Partitions <= 0 {
		c.Kafka.Partitions = 8
	}
	if c.Kafka.Replication <= 0 {
		c.Kafka.Replication = 1
	}
	return nil
}

func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
