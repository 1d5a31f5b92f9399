// Package main provides account management utilities.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/service"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin createsuperuser -email <email> -name <name> [-password <pw>]")
	fmt.Println("  go run ./cmd/admin list                                   - List all users")
	fmt.Println("  go run ./cmd/admin deactivate <email>                     - Block a user from logging in")
	fmt.Println("  go run ./cmd/admin activate <email>                       - Re-enable a user")
	fmt.Println()
	fmt.Println("The password may also come from ADMIN_PASSWORD.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// User records are cached; account changes must reach Redis.
	cache.InitRedis(cfg.RedisURL)

	switch os.Args[1] {
	case "createsuperuser":
		createSuperuser(db, os.Args[2:])
	case "list":
		listUsers(db)
	case "deactivate", "activate":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		setActive(db, os.Args[2], os.Args[1] == "activate")
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func createSuperuser(db *gorm.DB, args []string) {
	fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	password := fs.String("password", os.Getenv("ADMIN_PASSWORD"), "Password")
	_ = fs.Parse(args)

	users := service.NewUserService(repository.NewUserRepository(db))
	user, err := users.CreateSuperuser(context.Background(), service.CreateUserInput{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
			for field, msg := range appErr.Fields {
				fmt.Printf("  %s: %s\n", field, msg)
			}
			os.Exit(1)
		}
		log.Fatalf("Failed to create superuser: %v", err)
	}

	fmt.Printf("✅ Superuser %s (ID: %d) created\n", user.Email, user.ID)
}

func listUsers(db *gorm.DB) {
	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		log.Fatalf("Failed to fetch users: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found in the system")
		return
	}

	fmt.Printf("%-6s %-32s %-24s %-7s %-6s\n", "ID", "EMAIL", "NAME", "ACTIVE", "SUPER")
	for _, u := range users {
		fmt.Printf("%-6d %-32s %-24s %-7t %-6t\n", u.ID, u.Email, u.Name, u.IsActive, u.IsSuperuser)
	}
}

func setActive(db *gorm.DB, email string, active bool) {
	users := service.NewUserService(repository.NewUserRepository(db))
	user, err := users.SetActive(context.Background(), email, active)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			fmt.Printf("User %s not found\n", email)
			os.Exit(1)
		}
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("✅ %s is_active=%t\n", user.Email, user.IsActive)
}
