// Command seed loads a demo store with a few items. Running it twice is safe.
package main

import (
	"context"
	"errors"
	"log"

	"github.com/storefront/server/internal/app"
	"github.com/storefront/server/internal/module/catalog"
	"github.com/storefront/server/internal/module/catalog/domain"
	"github.com/storefront/server/internal/shared/config"
	"github.com/storefront/server/internal/shared/database"
	"github.com/storefront/server/internal/shared/logger"
	"go.uber.org/zap"
)

const (
	storeCode    = "ST001"
	categoryName = "Bakery"
)

var items = []struct {
	code  string
	name  string
	price string
}{
	{"P001", "Sourdough loaf", "25.00"},
	{"P002", "Chocolate cake", "48.00"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	db, err := database.New(&cfg.Database, zapLog)
	if err != nil {
		zapLog.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db, app.Models()...); err != nil {
		zapLog.Fatal("failed to migrate", zap.Error(err))
	}

	svc := catalog.NewService(catalog.NewRepository(db), zapLog)
	if err := seed(context.Background(), svc, zapLog); err != nil {
		zapLog.Fatal("seed failed", zap.Error(err))
	}
	zapLog.Info("seed complete")
}

func seed(ctx context.Context, svc *catalog.Service, log *zap.Logger) error {
	store, err := findOrCreateStore(ctx, svc)
	if err != nil {
		return err
	}

	category, err := findOrCreateCategory(ctx, svc, store)
	if err != nil {
		return err
	}

	for _, it := range items {
		item, err := svc.CreateItem(ctx, catalog.CreateItemInput{
			StoreID:    store.ID(),
			CategoryID: category.ID(),
			Code:       it.code,
			Name:       it.name,
			Price:      it.price,
		})
		if errors.Is(err, catalog.ErrItemCodeTaken) {
			log.Info("item already seeded", zap.String("code", it.code))
			continue
		}
		if err != nil {
			return err
		}
		log.Info("item seeded", zap.String("code", it.code), zap.String("id", item.ID().String()))
	}
	return nil
}

func findOrCreateStore(ctx context.Context, svc *catalog.Service) (*domain.Store, error) {
	stores, err := svc.ListStores(ctx, catalog.StoreQuery{Status: catalog.StoreStatusAll})
	if err != nil {
		return nil, err
	}
	for _, s := range stores {
		if s.Code() == storeCode {
			return s, nil
		}
	}
	return svc.CreateStore(ctx, catalog.CreateStoreInput{
		Name:    "Downtown",
		Code:    storeCode,
		Address: "1 Main Street",
		IsOpen:  true,
	})
}

func findOrCreateCategory(ctx context.Context, svc *catalog.Service, store *domain.Store) (*domain.Category, error) {
	categories, err := svc.ListCategories(ctx, store.ID())
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if c.Name() == categoryName {
			return c, nil
		}
	}
	return svc.CreateCategory(ctx, store.ID(), categoryName)
}
