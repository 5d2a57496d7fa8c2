package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"crypto-invoice.backend/pkg/jwt"
)

// functoken mints bearer tokens for the /functions/v1 endpoints. Without a
// configured FUNCTIONS_JWT_SECRET it also generates one.
func main() {
	subject := flag.String("subject", "wallet-backend", "token subject")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	hexLen := flag.Int("hex-len", 64, "generated secret length in hex chars (must be even)")
	flag.Parse()

	_ = godotenv.Load()

	secret, generated, err := resolveSecret(os.Getenv("FUNCTIONS_JWT_SECRET"), *hexLen)
	if err != nil {
		log.Fatal(err)
	}

	token, err := mintToken(secret, *subject, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	if generated {
		fmt.Println("Generated function credentials")
		fmt.Printf("FUNCTIONS_JWT_SECRET=%s\n", secret)
	}
	fmt.Printf("Authorization: Bearer %s\n", token)
}

func resolveSecret(configured string, hexLen int) (string, bool, error) {
	if configured != "" {
		return configured, false, nil
	}
	if err := validateHexLen(hexLen); err != nil {
		return "", false, err
	}
	s, err := generateRandomHex(hexLen)
	if err != nil {
		return "", false, fmt.Errorf("failed to generate secret: %w", err)
	}
	return s, true, nil
}

func validateHexLen(hexLen int) error {
	if hexLen <= 0 || hexLen%2 != 0 {
		return fmt.Errorf("invalid hex-len: %d (must be positive and even)", hexLen)
	}
	return nil
}

func mintToken(secret, subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	return jwt.NewVerifier(secret).Sign(subject, ttl)
}

func generateRandomHex(n int) (string, error) {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
