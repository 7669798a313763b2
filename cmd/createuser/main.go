// Command createuser registers a user from the command line.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/finsight/finsight-backend/internal/config"
	"github.com/finsight/finsight-backend/internal/database"
	"github.com/finsight/finsight-backend/internal/memory"
)

func main() {
	username := flag.String("username", "", "username to register")
	password := flag.String("password", "", "password for the new user")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("failed to run migrations: ", err)
	}

	store := memory.NewStore(db.DB, nil, 0, nil)
	ok, err := store.RegisterUser(context.Background(), *username, *password)
	if err != nil {
		log.Fatal("failed to register user: ", err)
	}
	if !ok {
		log.Fatalf("username %q already exists", *username)
	}

	log.Printf("user %q created", *username)
}
