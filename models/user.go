package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ShopId    string    `gorm:"index" json:"shop_id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('Admin', 'Staff');default:'Staff'" json:"role"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	ShopId   string   `json:"shop_id"`
	Username string   `json:"username" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Password string   `json:"password" binding:"required,min=6"`
	Role     UserRole `json:"role"`
}

// LoginInfo is the sign-in response. SessionId scopes the register
// cart for this device; the front end sends it back on every POS call.
type LoginInfo struct {
	Token     string `json:"token"`
	SessionId string `json:"session_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	ShopId    string `json:"shop_id"`
	ShopName  string `json:"shop_name"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("duplicate username")
	}
	if input.ShopId != "" {
		if _, err := GetShopById(ctx, input.ShopId); err != nil {
			return nil, errors.New("shop not found")
		}
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = UserRoleStaff
	}

	user := User{
		ShopId:   input.ShopId,
		Username: input.Username,
		Name:     input.Name,
		Password: string(hashed),
		Role:     role,
		IsActive: utils.NewTrue(),
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	var err error
	var result LoginInfo

	user := User{}

	// get User info
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return &result, err
	}
	if !exists {
		err = db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error

		if err != nil {
			return &result, errors.New("invalid username or password")
		}
	}

	// check login credentials
	err = utils.ComparePassword(user.Password, password)

	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return &result, errors.New("invalid username or password")
	}

	isActive := *user.IsActive
	if !isActive {
		return &result, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return &result, err
	}

	result.Token = token
	result.SessionId = uuid.NewString()
	result.Name = user.Name
	result.Role = string(user.Role)
	result.ShopId = user.ShopId

	if user.ShopId != "" {
		shop, err := GetShopById(ctx, user.ShopId)
		if err != nil {
			return nil, err
		}
		result.ShopName = shop.Name
	}

	// cache for later logins
	if err := config.SetRedisObject("User:"+username, user, 12*time.Hour); err != nil {
		return nil, err
	}

	return &result, nil
}

func GetUserById(ctx context.Context, id int) (*User, error) {
	return utils.FetchSingleModel[User](ctx, id)
}
