package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mining_webapp/internal/bot"
	"mining_webapp/internal/db"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/mining"
	"mining_webapp/internal/repository"
	"mining_webapp/internal/service"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Registers a user the way /start does and prints the Mini App link, so the API can be
// exercised without going through Telegram. With -hash it only prints a bcrypt hash for
// ADMIN_PASSWORD_HASH.
func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	id := flag.Int64("id", 1234567890, "telegram user id")
	name := flag.String("name", "Tester", "first name")
	referrer := flag.Int64("ref", 0, "referrer id")
	webApp := flag.String("webapp", os.Getenv("WEBAPP_URL"), "mini app base url")
	hash := flag.String("hash", "", "print the bcrypt hash of this password and exit")
	flag.Parse()

	if *hash != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(*hash), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("hash password", "error", err)
		}
		fmt.Println(string(b))
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	pool := db.Connect(dsn)
	defer pool.Close()

	reg := service.NewRegistrationService(repository.NewPgStore(pool), mining.DefaultRules())
	u, created, err := reg.Register(context.Background(), service.Registration{
		ID:         *id,
		FirstName:  *name,
		Username:   "testuser",
		ReferrerID: *referrer,
	})
	if err != nil {
		logger.Fatal("register user", "error", err)
	}

	logger.Info("test user ready", "id", u.ID, "created", created, "referred_by", u.ReferredBy)
	fmt.Println(bot.LaunchURL(*webApp, u))
}
