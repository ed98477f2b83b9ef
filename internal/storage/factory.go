// internal/storage/factory.go
package storage

import (
	"time"

	"github.com/jmoiron/sqlx"

	"crypto-signal-alert-bot/internal/infrastructure/cache/redis"
	"crypto-signal-alert-bot/internal/infrastructure/persistence/postgres/repository/listingsseen"
	"crypto-signal-alert-bot/internal/infrastructure/persistence/postgres/repository/newsseen"
	"crypto-signal-alert-bot/internal/infrastructure/persistence/postgres/repository/signalhistory"
	"crypto-signal-alert-bot/internal/infrastructure/persistence/postgres/repository/subscribers"
	"crypto-signal-alert-bot/pkg/logger"
)

const dialogTTL = 5 * time.Minute

// Stores - собранный набор хранилищ приложения
type Stores struct {
	Subscribers   SubscriberStore
	SignalHistory SignalHistoryStore
	NewsSeen      NewsSeenStore
	ListingsSeen  ListingsSeenStore
	Dialogs       DialogStore
}

// BuildStores собирает хранилища по доступной инфраструктуре.
// db == nil означает работу в памяти: состояние живет до перезапуска.
func BuildStores(db *sqlx.DB, cache *redis.Cache, adminID int64) *Stores {
	stores := &Stores{}

	if db != nil {
		stores.Subscribers = subscribers.NewRepository(db, cache, adminID)
		stores.SignalHistory = signalhistory.NewRepository(db)
		stores.NewsSeen = newsseen.NewRepository(db)
		stores.ListingsSeen = listingsseen.NewRepository(db)
	} else {
		logger.Warn("⚠️ База данных отключена, состояние хранится в памяти")
		stores.Subscribers = NewInMemorySubscriberStore(adminID)
		stores.SignalHistory = NewInMemorySignalHistory()
		stores.NewsSeen = NewInMemoryNewsSeen()
		stores.ListingsSeen = NewInMemoryListingsSeen()
	}

	if cache != nil {
		stores.Dialogs = redis.NewDialogStore(cache, dialogTTL)
	} else {
		stores.Dialogs = NewInMemoryDialogStore(dialogTTL)
	}

	return stores
}
