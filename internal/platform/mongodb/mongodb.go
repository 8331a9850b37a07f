package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mediacrawler/internal/logger"
)

type Options struct {
	URI      string
	Database string
}

type Service struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

func New(ctx context.Context, opts Options) (*Service, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Service{
		client: client,
		db:     client.Database(opts.Database),
		log:    logger.New("MongoDB"),
	}, nil
}

func (s *Service) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func (s *Service) Database() *mongo.Database { return s.db }

func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		s.log.LogErrorf("Mongo health check failed: %v", err)
		return fmt.Errorf("mongo ping failed: %v", err)
	}
	return nil
}
