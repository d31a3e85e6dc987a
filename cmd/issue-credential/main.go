// Command issue-credential mints a signed membership credential for local
// development and testing. The production credential is issued by the
// external activation flow; this tool only mirrors its shape.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"server/internal/credential"
	"server/internal/domain"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "", "user id (subject)")
	tier := flag.String("tier", string(domain.TierTrial), "membership tier")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", 720*time.Hour, "credential lifetime")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: issue-credential -user <id> [-tier <tier>] [-email <email>] [-ttl <duration>]")
		os.Exit(2)
	}
	parsedTier, err := domain.ParseTier(*tier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue-credential: %v (known: %v)\n", err, domain.Tiers())
		os.Exit(2)
	}

	secret := os.Getenv("CREDENTIAL_SECRET")
	manager, err := credential.NewManager(credential.Config{
		Secret:   secret,
		Issuer:   envOr("CREDENTIAL_ISSUER", "membergate"),
		Audience: envOr("CREDENTIAL_AUDIENCE", "members"),
		TTL:      *ttl,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue-credential: %v\n", err)
		os.Exit(1)
	}

	token, err := manager.Issue(*userID, parsedTier, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue-credential: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
