package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"CareGene/api"
	mongoutil "CareGene/data/database/mgo/mongoutil"
	"CareGene/global"
	"CareGene/logger"
	"CareGene/middleware"
	"CareGene/module/community"
	"CareGene/module/feed"
	"CareGene/module/messaging"
	"CareGene/module/social"
	"CareGene/service/kafka"
	"CareGene/service/mgo"
	"CareGene/service/natsx"
	redisstore "CareGene/service/storage/redis"
	"CareGene/service/ws"
	"CareGene/tools/ids"

	"github.com/gin-gonic/gin"
)

func main() {
	if err := global.Load(); err != nil {
		logger.Errorf("load config: %v", err)
		return
	}
	cfg := global.Conf()
	ids.SetNodeID(int64(global.GetEnvInt("NODE_ID", 1)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoCfg := &mongoutil.Config{
		Uri:         cfg.Mongo.Uri,
		Database:    cfg.Mongo.Database,
		Username:    cfg.Mongo.Username,
		Password:    cfg.Mongo.Password,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	}
	mgo.StartAsync(ctx, mongoCfg)

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mgo.WaitReady(waitCtx); err != nil {
		logger.Errorf("mongo not ready: %v", err)
		return
	}
	db := mgo.GetDB()

	if err := redisstore.InitRedis(redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		logger.Errorf("redis init: %v", err)
		return
	}
	defer redisstore.CloseRedis()

	if err := kafka.InitKafkaClient(cfg.Kafka.Brokers); err != nil {
		logger.Errorf("kafka client: %v", err)
		return
	}
	defer kafka.CloseKafkaClient()
	if err := kafka.InitSyncProducerFromClient(); err != nil {
		logger.Errorf("kafka producer: %v", err)
		return
	}
	if err := kafka.EnsureTopic(cfg.Kafka.MessageTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
		logger.Errorf("kafka topic: %v", err)
		return
	}

	bus, err := natsx.NewNatsManager(natsx.NatsxConfig{
		Servers: cfg.Nats.Servers,
		Name:    cfg.Nats.Name,
	})
	if err != nil {
		logger.Errorf("nats connect: %v", err)
		return
	}
	defer bus.Close()

	hub := ws.NewHub()
	if err := hub.AttachBus(bus); err != nil {
		logger.Errorf("ws bus: %v", err)
		return
	}

	msgStore := messaging.NewStore(db)
	socialStore := social.NewStore(db)
	communityStore := community.NewStore(db)
	feedStore := feed.NewStore(db)

	idxCtx, idxCancel := context.WithTimeout(ctx, 30*time.Second)
	defer idxCancel()
	for name, ensure := range map[string]func(context.Context) error{
		"messaging": msgStore.EnsureIndexes,
		"social":    socialStore.EnsureIndexes,
		"community": communityStore.EnsureIndexes,
		"feed":      feedStore.EnsureIndexes,
	} {
		if err := ensure(idxCtx); err != nil {
			logger.Errorf("ensure %s indexes: %v", name, err)
			return
		}
	}

	msgIndex := messaging.NewClientMsgIndex(redisstore.GetRedis())

	server := &api.Server{
		Messaging:   messaging.NewService(msgStore, msgIndex, bus, cfg.Kafka.MessageTopic),
		Social:      social.NewService(socialStore, bus),
		Communities: community.NewService(communityStore, bus),
		Feed:        feed.NewService(feedStore, communityStore),
		Hub:         hub,
		MongoCfg:    mongoCfg,
	}

	seedCommunities(ctx, server.Communities)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	middleware.Manager().Add(middleware.Origin())
	engine.Use(middleware.Manager().Use())
	server.Register(engine)

	logger.Infof("listening on %s", cfg.ListenAddr)
	if err := engine.Run(cfg.ListenAddr); err != nil {
		logger.Errorf("server stopped: %v", err)
	}
}

// seedCommunities upserts the built-in regional communities; reruns are
// no-ops.
func seedCommunities(ctx context.Context, svc *community.Service) {
	seedCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	seeds := []struct {
		title, description, region string
		tags                       []string
	}{
		{"Caregivers Connect", "A place for caregivers everywhere to share advice and support.", "global", []string{"support", "caregiving"}},
		{"New to Caregiving", "Getting started guides and first-steps discussions for new caregivers.", "global", []string{"beginners", "caregiving"}},
	}
	for _, s := range seeds {
		if err := svc.SeedSystem(seedCtx, s.title, s.description, s.region, s.tags); err != nil {
			logger.Warn("seed community failed: " + s.title)
		}
	}
}
