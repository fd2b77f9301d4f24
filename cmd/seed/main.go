package main

import (
	"github.com/lumen-store/internal/config"
	"github.com/lumen-store/internal/logger"
	"github.com/lumen-store/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加商品
	products := []models.Product{
		{
			Slug:        "wireless-earphones",
			Name:        "Wireless Bluetooth Earphones",
			Description: "High quality sound, long battery life, comfortable to wear.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(99.99)),
			Currency:    "USD",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			}),
			Tags:      models.StringArray([]string{"audio", "wireless"}),
			InStock:   true,
			IsActive:  true,
			SortOrder: 30,
		},
		{
			Slug:        "classic-cotton-tee",
			Name:        "Classic Cotton T-Shirt",
			Description: "Soft combed cotton tee in a relaxed everyday fit.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
			Currency:    "USD",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800",
			}),
			Tags:      models.StringArray([]string{"apparel"}),
			Variants:  models.StringArray([]string{"S", "M", "L", "XL"}),
			InStock:   true,
			IsActive:  true,
			SortOrder: 20,
		},
		{
			Slug:        "ceramic-pour-over-set",
			Name:        "Ceramic Pour-Over Coffee Set",
			Description: "Handmade ceramic dripper with matching carafe.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(45.00)),
			Currency:    "USD",
			Images: models.StringArray([]string{
				"https://images.unsplash.com/photo-1495474472287-4d71bcdd2085?w=800",
			}),
			Tags:      models.StringArray([]string{"kitchen", "coffee"}),
			InStock:   true,
			IsActive:  true,
			SortOrder: 10,
		},
		{
			Slug:        "retired-poster-print",
			Name:        "Vintage Poster Print",
			Description: "Limited run art print, no longer available.",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(12.50)),
			Currency:    "USD",
			Tags:        models.StringArray([]string{"art"}),
			InStock:     false,
			IsActive:    false,
			SortOrder:   0,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 添加演示用户
	demoPassword, err := bcrypt.GenerateFromPassword([]byte("Demo12345"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}
	users := []models.User{
		{
			Email:        "demo@example.com",
			PasswordHash: string(demoPassword),
			DisplayName:  "Demo Customer",
			Status:       "active",
		},
	}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
			} else {
				stdLog.Printf("Created user: %s", user.Email)
			}
		} else {
			stdLog.Printf("User already exists: %s", user.Email)
		}
	}

	// 初始化默认管理员
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	stdLog.Printf("Seed finished")
}
