// seed-client creates or updates a tenant and its API key.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/seed-client -id store-001 -name "Store One" -key <api-key>
//
// The API key is printed once here and only its bcrypt hash is stored.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/google/uuid"
)

func main() {
	id := flag.String("id", "", "client id (opaque identity, required)")
	name := flag.String("name", "", "client name (required)")
	email := flag.String("email", "", "contact email")
	apiKey := flag.String("key", "", "api key (generated when omitted)")
	flag.Parse()

	if *id == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-client -id <client-id> -name <name> [-email <email>] [-key <api-key>]")
		os.Exit(2)
	}

	key := *apiKey
	if key == "" {
		key = uuid.NewString() + uuid.NewString()[:8]
	}
	if len(key) < 24 {
		fmt.Fprintln(os.Stderr, "api key must be at least 24 characters")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx = utils.SetIsAdminInContext(ctx, true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	models.MigrateTable()

	if _, err := models.GetClient(ctx, *id); err != nil {
		client, err := models.CreateClient(ctx, &models.NewClient{
			ID:     *id,
			Name:   *name,
			Email:  *email,
			ApiKey: key,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created client %q\nAPI key (store it now, it is not shown again): %s\n", client.ID, key)
		return
	}

	hashed, err := utils.HashApiKey(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash api key: %v\n", err)
		os.Exit(1)
	}
	if err := db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", *id).Updates(map[string]any{
		"name":           *name,
		"email":          *email,
		"api_key_prefix": key[:8],
		"api_key_hash":   string(hashed),
		"is_active":      utils.NewTrue(),
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update client: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated client %q\nAPI key (store it now, it is not shown again): %s\n", *id, key)
}
