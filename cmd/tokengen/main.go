// tokengen mints development JWTs compatible with the gateway's verifier.
// The real issuer is the external auth service; this tool only exists so a
// local gateway can be exercised without it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pairchat/auth"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "", "user identity to put in the token")
	displayName := flag.String("name", "", "optional display name")
	duration := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		log.Fatal("missing -user")
	}

	secret := os.Getenv("JWT_SECRET")
	issuer := os.Getenv("JWT_ISSUER")
	if secret == "" || issuer == "" {
		log.Fatal("JWT_SECRET and JWT_ISSUER must be set")
	}

	token, err := auth.GenerateToken(secret, issuer, *userID, *displayName, *duration)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
