// roomctl creates rooms directly in the badger store. In production rooms
// come from the CRUD collaborator; this tool seeds a local environment.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"pairchat/repositories"
)

func main() {
	_ = godotenv.Load()

	participantA := flag.String("a", "", "first participant identity")
	participantB := flag.String("b", "", "second participant identity")
	flag.Parse()

	if *participantA == "" || *participantB == "" {
		log.Fatal("missing -a or -b")
	}

	path := os.Getenv("BADGER_FILEPATH")
	if path == "" {
		log.Fatal("BADGER_FILEPATH must be set")
	}

	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store, err := repositories.NewRoomStore(db)
	if err != nil {
		log.Fatalf("Failed to open room store: %v", err)
	}
	defer store.Close()

	room, err := store.CreateRoom(*participantA, *participantB)
	if err != nil {
		log.Fatalf("Failed to create room: %v", err)
	}
	fmt.Printf("room %d: %s <-> %s (created %s)\n",
		room.ID, room.ParticipantA, room.ParticipantB, room.CreatedAt.Format("2006-01-02 15:04:05"))
}
