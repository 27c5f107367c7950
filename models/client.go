package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
)

// Client is a tenant: a retail operator the agents run for. The ID is an
// opaque external identity, not an auto-increment.
type Client struct {
	ID           string `gorm:"primaryKey;size:64" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name" binding:"required"`
	Email        string `gorm:"size:255;default:null" json:"email"`
	Phone        string `gorm:"size:100;default:null" json:"phone"`
	Address      string `gorm:"type:text;default:null" json:"address"`
	ApiKeyPrefix string `gorm:"index;size:12;default:null" json:"-"`
	ApiKeyHash   string `gorm:"size:255;default:null" json:"-"`
	IsActive     *bool  `gorm:"not null;default:true" json:"is_active"`
}

type NewClient struct {
	ID      string `json:"id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	ApiKey  string `json:"api_key" binding:"required,min=24"`
}

const (
	apiKeyPrefixLength = 8
	minApiKeyLength    = 24
)

func CreateClient(ctx context.Context, input *NewClient) (*Client, error) {
	if err := utils.ValidateIdentity(input.ID); err != nil {
		return nil, err
	}
	if len(input.ApiKey) < minApiKeyLength {
		return nil, errors.New("api key must be at least 24 characters")
	}

	hash, err := utils.HashApiKey(input.ApiKey)
	if err != nil {
		return nil, err
	}

	client := Client{
		ID:           input.ID,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Address:      input.Address,
		ApiKeyPrefix: input.ApiKey[:apiKeyPrefixLength],
		ApiKeyHash:   string(hash),
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func GetClient(ctx context.Context, id string) (*Client, error) {
	if err := utils.ValidateIdentity(id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var client Client
	err := db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &client, nil
}

// GetActiveClients lists every active tenant. Used by the scheduler sweep;
// runs outside any tenant scope.
func GetActiveClients(ctx context.Context) ([]*Client, error) {
	db := config.GetDB()
	var clients []*Client
	err := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Where("is_active = ?", true).
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// AuthenticateApiKey resolves an API key to its client. The indexed key prefix
// narrows the candidate set so the bcrypt compare runs against a handful of
// rows at most.
func AuthenticateApiKey(ctx context.Context, apiKey string) (*Client, error) {
	if len(apiKey) < apiKeyPrefixLength {
		return nil, errors.New("invalid api key")
	}

	db := config.GetDB()
	var candidates []Client
	err := db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Where("api_key_prefix = ? AND is_active = ?", apiKey[:apiKeyPrefixLength], true).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if err := utils.CompareApiKey(candidates[i].ApiKeyHash, apiKey); err == nil {
			return &candidates[i], nil
		}
	}
	return nil, errors.New("invalid api key")
}
