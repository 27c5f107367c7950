package models_test

import (
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
)

func TestCreateClientRejectsShortApiKey(t *testing.T) {
	_, err := models.CreateClient(context.Background(), &models.NewClient{
		ID:     "store-1",
		Name:   "Store One",
		ApiKey: "short",
	})
	if err == nil {
		t.Fatal("expected an error for an api key shorter than 24 characters")
	}
}

func TestCreateClientRejectsMalformedId(t *testing.T) {
	_, err := models.CreateClient(context.Background(), &models.NewClient{
		ID:     "bad id!",
		Name:   "Store One",
		ApiKey: "0123456789abcdef01234567",
	})
	if !errors.Is(err, utils.ErrorMalformedIdentity) {
		t.Fatalf("expected ErrorMalformedIdentity, got %v", err)
	}
}

func TestAuthenticateApiKeyRejectsShortKey(t *testing.T) {
	_, err := models.AuthenticateApiKey(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected an error for a key shorter than the prefix length")
	}
}
