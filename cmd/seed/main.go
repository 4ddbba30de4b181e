package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/natours/natours-api/internal/auth"
	"github.com/natours/natours-api/internal/config"
	"github.com/natours/natours-api/internal/seeds"
	"github.com/natours/natours-api/internal/users"
)

func main() {
	importFlag := flag.Bool("import", false, "import the users in -file")
	deleteFlag := flag.Bool("delete", false, "delete every user")
	file := flag.String("file", "dev-data/users.yaml", "users fixture file")
	flag.Parse()

	if *importFlag == *deleteFlag {
		log.Fatal("pass exactly one of -import or -delete")
	}

	_ = godotenv.Load(".env")

	storeCfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, closeStore, err := users.Open(ctx, storeCfg, logger)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer func() { _ = closeStore(context.Background()) }()

	if *deleteFlag {
		n, err := seeds.DeleteUsers(ctx, store)
		if err != nil {
			log.Fatalf("delete failed: %v", err)
		}
		log.Printf("Deleted %d users", n)
		return
	}

	fixtures, err := seeds.LoadUsers(*file)
	if err != nil {
		log.Fatalf("load fixtures: %v", err)
	}

	n, err := seeds.ImportUsers(ctx, store, auth.NewHasher(bcrypt.DefaultCost), fixtures, time.Now())
	if err != nil {
		log.Fatalf("import failed after %d users: %v", n, err)
	}
	log.Printf("Imported %d users", n)
}
