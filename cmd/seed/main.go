// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev callback policy already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	callbackdomain "digital-forms-platform/runner/internal/callback/domain"
	callbackrepo "digital-forms-platform/runner/internal/callback/repository"
	"digital-forms-platform/runner/internal/config"
	"digital-forms-platform/runner/internal/db"
)

// devRegoPolicy allows any callback host under gov.uk for the sample form,
// matching the policy shape in internal/callback/engine/opa_evaluator.go.
const devRegoPolicy = `package forms.callback

default allow = false

allow if {
	endswith(input.hostname, ".gov.uk")
}

allow if {
	input.hostname == input.whitelist[_]
}
`

const (
	devPolicyID = "6f9a1f4e-0000-4000-8000-000000000001"
	devFormID   = "sample-form"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; add it to .env or the environment")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	policies := callbackrepo.NewPostgresRepository(conn)

	existing, err := policies.GetByID(ctx, devPolicyID)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev callback policy exists). Skipping.")
		os.Exit(0)
	}

	if err := policies.Create(ctx, &callbackdomain.CallbackPolicy{
		ID:        devPolicyID,
		FormID:    devFormID,
		Rules:     devRegoPolicy,
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		log.Fatalf("create callback policy: %v", err)
	}

	log.Println("Seed completed successfully.")
	log.Printf("Callback policy for form %q allows *.gov.uk hosts.", devFormID)
}
