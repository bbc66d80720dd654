package global

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	if err := Load(); err != nil {
		t.Fatal(err)
	}
	c := Conf()
	if c.ListenAddr != ":8080" {
		t.Fatalf("listen addr %q", c.ListenAddr)
	}
	if c.Mongo.Database != "caregene" {
		t.Fatalf("database %q", c.Mongo.Database)
	}
	if c.Mongo.MaxPoolSize != 100 {
		t.Fatalf("pool size %d", c.Mongo.MaxPoolSize)
	}
	if c.Kafka.MessageTopic != "caregene.messages" {
		t.Fatalf("topic %q", c.Kafka.MessageTopic)
	}
	if c.MongoTimeout() != 5*time.Second {
		t.Fatalf("timeout %v", c.MongoTimeout())
	}
	if c.IsProduction() {
		t.Fatal("default env must not be production")
	}
}

func TestLoadCoercesEnvStrings(t *testing.T) {
	t.Setenv("MONGO_TIMEOUT_MS", "1500")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CAREGENE_ENV", "Production")
	if err := Load(); err != nil {
		t.Fatal(err)
	}
	c := Conf()
	if c.MongoTimeout() != 1500*time.Millisecond {
		t.Fatalf("timeout %v", c.MongoTimeout())
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers %v", c.Kafka.Brokers)
	}
	if !c.IsProduction() {
		t.Fatal("production should match case-insensitively")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SOME_INT", "42")
	if GetEnvInt("SOME_INT", 1) != 42 {
		t.Fatal("set value should win")
	}
	if GetEnvInt("UNSET_INT", 7) != 7 {
		t.Fatal("unset should fall back")
	}
	t.Setenv("BAD_INT", "abc")
	if GetEnvInt("BAD_INT", 7) != 7 {
		t.Fatal("unparsable should fall back")
	}
}
