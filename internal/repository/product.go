package repository

import (
	"context"

	"checkout-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

// Seed loads a small dev catalog so checkout has prices to resolve against.
func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "linen-shirt", Title: "Linen Shirt", Handle: "linen-shirt", Price: decimal.NewFromFloat(10.00), Currency: "EUR", SKU: "LS-001", Sizes: "S,M,L,XL", Colors: "white,navy"},
		{ID: "wool-scarf", Title: "Wool Scarf", Handle: "wool-scarf", Price: decimal.NewFromFloat(25.50), Currency: "EUR", SKU: "WS-001", Colors: "grey,camel"},
		{ID: "canvas-tote", Title: "Canvas Tote", Handle: "canvas-tote", Price: decimal.NewFromFloat(18.90), Currency: "EUR", SKU: "CT-001"},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
