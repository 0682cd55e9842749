// Command seed-admin creates the initial admin account so a fresh deployment
// can log in and manage users. Safe to run repeatedly: an existing account
// with the same email is left untouched.
package main

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pharmacy-service/internal/model"
	"pharmacy-service/pkg/config"
	"pharmacy-service/pkg/database"
	"pharmacy-service/pkg/logger"
)

func main() {
	appConfig, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	email := envOr("ADMIN_EMAIL", "admin@pharmacy.local")
	name := envOr("ADMIN_NAME", "Administrator")
	password := envOr("ADMIN_PASSWORD", "admin123")

	db := database.GetDB()

	var existing model.User
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Info("Admin user already exists", zap.String("email", email))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal("Failed to check for existing admin", zap.Error(err))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password", zap.Error(err))
	}

	admin := model.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     model.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin user", zap.Error(err))
	}

	log.Info("Admin user created",
		zap.Uint("user_id", admin.ID),
		zap.String("email", admin.Email))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
