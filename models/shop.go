package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/google/uuid"
)

type Shop struct {
	ID        uuid.UUID `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewShop struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (input *NewShop) validate(ctx context.Context) error {
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Shop{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("duplicate name")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func CreateShop(ctx context.Context, input *NewShop) (*Shop, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	shop := Shop{
		ID:       uuid.New(),
		Name:     input.Name,
		Address:  input.Address,
		Phone:    input.Phone,
		IsActive: utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&shop).Error; err != nil {
		return nil, err
	}

	return &shop, nil
}

func GetShopById(ctx context.Context, id string) (*Shop, error) {
	db := config.GetDB()
	var shop Shop
	if err := db.WithContext(ctx).Where("id = ?", id).First(&shop).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &shop, nil
}

func ListShops(ctx context.Context) ([]*Shop, error) {
	db := config.GetDB()
	var shops []*Shop
	if err := db.WithContext(ctx).Order("name").Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

func ToggleActiveShop(ctx context.Context, id string, isActive bool) (*Shop, error) {
	db := config.GetDB()
	shop, err := GetShopById(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(shop).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	return shop, nil
}
