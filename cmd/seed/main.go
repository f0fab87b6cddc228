package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xypp3/leetcode-battleroyal/internal/config"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
	"github.com/xypp3/leetcode-battleroyal/internal/service"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	questionSvc := service.NewQuestionService(repository.NewQuestionRepo(db))

	if err := questionSvc.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed questions: %v", err)
	}

	log.Println("Question bank ready")
}
