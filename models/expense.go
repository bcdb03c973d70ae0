package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ShopId      string          `gorm:"index;not null" json:"shop_id" binding:"required"`
	Title       string          `gorm:"size:255;not null" json:"title" binding:"required"`
	Category    string          `gorm:"size:100" json:"category"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	ExpenseDate time.Time       `gorm:"not null" json:"expense_date" binding:"required"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewExpense struct {
	Title       string          `json:"title" binding:"required"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date" binding:"required"`
	Notes       string          `json:"notes"`
}

func (input *NewExpense) validate(ctx context.Context, shopId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Expense](ctx, shopId, id); err != nil {
			return err
		}
	}
	if !input.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}

func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	if err := input.validate(ctx, shopId, 0); err != nil {
		return nil, err
	}

	expense := Expense{
		ShopId:      shopId,
		Title:       input.Title,
		Category:    input.Category,
		Amount:      input.Amount,
		ExpenseDate: input.ExpenseDate,
		Notes:       input.Notes,
	}

	if err := db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, err
	}

	return &expense, nil
}

func UpdateExpense(ctx context.Context, id int, input *NewExpense) (*Expense, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	if err := input.validate(ctx, shopId, id); err != nil {
		return nil, err
	}

	expense, err := utils.FetchModel[Expense](ctx, shopId, id)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Model(expense).Updates(map[string]interface{}{
		"Title":       input.Title,
		"Category":    input.Category,
		"Amount":      input.Amount,
		"ExpenseDate": input.ExpenseDate,
		"Notes":       input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}

	return expense, nil
}

func DeleteExpense(ctx context.Context, id int) (*Expense, error) {
	db := config.GetDB()

	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}

	expense, err := utils.FetchModel[Expense](ctx, shopId, id)
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Delete(expense).Error; err != nil {
		return nil, err
	}

	return expense, nil
}

func ListExpenses(ctx context.Context) ([]*Expense, error) {
	shopId, ok := utils.GetShopIdFromContext(ctx)
	if !ok || shopId == "" {
		return nil, errors.New("shop id is required")
	}
	return utils.FetchAllModels[Expense](ctx, shopId)
}
