// Command token issues a bearer token for a portal user, for operators and
// local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/telepoint/emi-portal/internal/auth"
	"github.com/telepoint/emi-portal/internal/core"
)

func main() {
	user := flag.String("user", "", "user id (required)")
	role := flag.String("role", string(core.RoleRetailer), "role: super_admin or retailer")
	retailer := flag.String("retailer", "", "retailer id, required for the retailer role")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Overload()

	secret := os.Getenv("JWT_SECRET")
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "emi-portal"
	}

	p := core.Principal{UserID: *user, Role: core.Role(*role), RetailerID: *retailer}
	if err := checkPrincipal(p, secret); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(2)
	}

	token, err := auth.NewManager(secret, issuer, *ttl).Issue(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func checkPrincipal(p core.Principal, secret string) error {
	switch {
	case secret == "":
		return fmt.Errorf("JWT_SECRET is not set")
	case p.UserID == "":
		return fmt.Errorf("-user is required")
	case p.Role != core.RoleAdmin && p.Role != core.RoleRetailer:
		return fmt.Errorf("unknown role %q", p.Role)
	case p.Role == core.RoleRetailer && p.RetailerID == "":
		return fmt.Errorf("-retailer is required for the retailer role")
	}
	return nil
}
