// Command token issues and verifies access-gate bearer tokens for local
// development and API testing.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/wealth-ledger/internal/authgate"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "issue":
		runIssue()
	case "verify":
		runVerify()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Wealth Ledger token tool")
	fmt.Println("\nUsage:")
	fmt.Println("  token <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  issue     Issue a bearer token for a user ID")
	fmt.Println("  verify    Verify a token and print the user ID it carries")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nThe signing key comes from JWT_SECRET (a .env file is honored).")
}

func gateFromEnv() *authgate.Gate {
	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET is required")
		os.Exit(1)
	}
	return authgate.New([]byte(secret))
}

func runIssue() {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	userID := fs.String("user", "", "User ID the token authenticates as")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Error: --user is required")
		os.Exit(1)
	}

	token, err := gateFromEnv().IssueToken(*userID, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func runVerify() {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	token := fs.String("token", "", "Bearer token to verify")
	fs.Parse(os.Args[2:])

	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: --token is required")
		os.Exit(1)
	}

	req, err := http.NewRequest(http.MethodGet, "/", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Authorization", "Bearer "+*token)

	userID, err := gateFromEnv().Authenticate(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(userID)
}
