package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
)

type Customer struct {
	ID        int          `gorm:"primary_key" json:"id"`
	ShopId    string       `gorm:"index;not null" json:"shop_id" binding:"required"`
	Name      string       `gorm:"size:100;not null" json:"name" binding:"required"`
	Phone     string       `gorm:"size:20" json:"phone"`
	Email     string       `gorm:"size:100" json:"email"`
	Type      CustomerType `gorm:"type:enum('Regular', 'Premium', 'Wholesale');default:'Regular'" json:"type"`
	Notes     string       `gorm:"type:text" json:"notes"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name  string       `json:"name" binding:"required"`
	Phone string       `json:"phone"`
	Email string       `json:"email"`
	Type  CustomerType `json:"type"`
	Notes string       `json:"notes"`
}

func (input *NewCustomer) validate(ctx context.Context, shopId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, shopId, id); err != nil {
			return err
		}
	}
	// validate unique name
	if err := utils.ValidateUnique[Customer](ctx, shopId, "name", input.Name, id); err != nil {
		return err
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidateUnique[Customer](ctx, shopId, "phone", input.Phone, id); err != nil {
			return err
		}
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	// validate email
	if input.Email != "" {
		if !utils.IsValidEmail(input.Email) {
			return errors.New("invalid email")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	if err := input.validate(ctx, shopId, 0); err != nil {
		return nil, err
	}

	customerType := input.Type
	if customerType == "" {
		customerType = CustomerTypeRegular
	}

	customer := Customer{
		ShopId: shopId,
		Name:   input.Name,
		Phone:  input.Phone,
		Email:  input.Email,
		Type:   customerType,
		Notes:  input.Notes,
	}

	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	if err := input.validate(ctx, shopId, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, shopId, id)
	if err != nil {
		return nil, err
	}

	customerType := input.Type
	if customerType == "" {
		customerType = customer.Type
	}

	err = db.WithContext(ctx).Model(customer).Updates(map[string]interface{}{
		"Name":  input.Name,
		"Phone": input.Phone,
		"Email": input.Email,
		"Type":  customerType,
		"Notes": input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}

	return customer, nil
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	customer, err := utils.FetchModel[Customer](ctx, shopId, id)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Delete(customer).Error; err != nil {
		return nil, err
	}

	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}
	return utils.FetchModel[Customer](ctx, shopId, id)
}

func ListCustomers(ctx context.Context) ([]*Customer, error) {
	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}
	return utils.FetchAllModels[Customer](ctx, shopId)
}

// GetCustomerByPhone backs the payment step's phone autofill; exact
// match only, the front end calls it once at least 8 digits are typed.
func GetCustomerByPhone(ctx context.Context, phone string) (*Customer, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	var customer Customer
	err := db.WithContext(ctx).Where("shop_id = ? AND phone = ?", shopId, phone).First(&customer).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &customer, nil
}
