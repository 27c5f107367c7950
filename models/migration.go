package models

import (
	"log"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Client{},
		&PromotionSuggestion{}, &PromotionSuggestionItem{},
		&OrderSuggestion{}, &OrderSuggestionItem{},
		&PromotionOutcome{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
