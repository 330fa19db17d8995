// Command seed populates a development database through the service layer.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"socialpost/internal/config"
	"socialpost/internal/database"
	"socialpost/internal/seed"
	"socialpost/internal/server"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	mutualRatio := flag.Float64("mutual-ratio", 0.3, "Share of user pairs that follow each other")
	followRatio := flag.Float64("follow-ratio", 0.2, "Share of remaining pairs with a one-way follow")
	messages := flag.Int("messages", 3, "Messages exchanged by each mutual pair")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	scenario := flag.String("scenario", "", "YAML scenario file; overrides the random options")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Redis is optional here: without it notifications are stored but not published.
	srv, err := server.NewServerWithDeps(cfg, db, nil)
	if err != nil {
		log.Fatalf("Failed to build services: %v", err)
	}
	seeder := seed.NewSeeder(srv.SeedServices(), *randSeed)

	ctx := context.Background()
	var summary *seed.Summary
	if *scenario != "" {
		log.Printf("Applying scenario %s", *scenario)
		sc, loadErr := seed.LoadScenario(*scenario)
		if loadErr != nil {
			log.Fatalf("Failed to load scenario: %v", loadErr)
		}
		summary, err = seeder.ApplyScenario(ctx, sc)
	} else {
		log.Printf("Target: %d users, %d posts, mutual-ratio=%.2f", *numUsers, *numPosts, *mutualRatio)
		summary, err = seeder.Random(ctx, seed.Options{
			Users:           *numUsers,
			Posts:           *numPosts,
			MutualRatio:     *mutualRatio,
			FollowRatio:     *followRatio,
			MessagesPerPair: *messages,
		})
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// Drain queued notifications before closing the database.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	log.Printf("Seeded %s", summary)
	log.Printf("All generated users have the password: %s", seed.DefaultPassword)
}
