package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
)

/* DB fetching */

// fetch model from db
// (ctx's client_id is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, clientId string, id int, associations ...string) (*T, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("client_id = ?", clientId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		return nil, ErrorRecordNotFound
	}
	return &result, nil
}
