package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classtrack/internal/config"
	"classtrack/internal/metrics"
	"classtrack/internal/queue"
	"classtrack/internal/rfid"
	"classtrack/internal/rooms"
	"classtrack/internal/store"
	"classtrack/internal/treestore"
)

// The worker drains swipe events and performs the slow follow-ups the api
// refuses to do inline: clearing stale room assignments and closing out
// audit rows.
func main() {
	cfg := config.Load()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var tree treestore.Store
	if cfg.StoreBackend == "memory" {
		log.Fatal("worker requires the redis store backend; in-memory state is not shared with the api")
	}
	tree = treestore.NewRedis(redisClient.Client)

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable, audit rows stay open: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()
	var auditRepo *rfid.Repository
	if db != nil && err == nil {
		auditRepo = rfid.NewRepository(db.Client)
		if serr := auditRepo.EnsureSchema(context.Background()); serr != nil {
			log.Fatalf("schema setup failed: %v", serr)
		}
	}

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)

	cards := rfid.NewService(tree, auditRepo, nil)
	board := rooms.NewService(tree, cards)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume failed: %v", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Println("Worker started, waiting for swipe events")
	for msg := range msgs {
		if msg.Type != "swipe" {
			log.Printf("skipping message of type %q", msg.Type)
			continue
		}
		if err := handleSwipe(ctx, board, auditRepo, msg.Body); err != nil {
			log.Printf("swipe handling failed: %v", err)
		}
	}
	log.Println("Worker exited")
}

// handleSwipe reconciles the room mapped to the swiped card. Only a
// completed visit can clear a schedule; swipe-ins are recorded and left
// alone.
func handleSwipe(ctx context.Context, board *rooms.Service, repo *rfid.Repository, body []byte) error {
	var work rfid.SwipeWork
	if err := json.Unmarshal(body, &work); err != nil {
		return err
	}

	if work.Direction == "out" {
		b, room, ok, err := board.RoomForCard(ctx, work.UID)
		if err != nil {
			return err
		}
		if ok {
			cleared, err := board.ReconcileStaleAssignment(ctx, b, room)
			if err != nil {
				return err
			}
			if cleared {
				metrics.AssignmentsCleared.Inc()
				log.Printf("cleared stale assignment for %s room %s (card %s)", b.Key, room, work.UID)
			}
		}
		if repo != nil && work.EventID != "" {
			if err := repo.UpdateEventStatus(ctx, work.EventID, "closed"); err != nil {
				return err
			}
		}
	}
	return nil
}
