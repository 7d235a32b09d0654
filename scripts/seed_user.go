package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/video-hearings-api/models"
)

// Quick utility to build a users document the token endpoint can log in with
// Usage: go run scripts/seed_user.go <username> <password> <role>[,<role>...]
func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run scripts/seed_user.go <username> <password> <role>[,<role>...]")
		fmt.Println("Example: go run scripts/seed_user.go judge@court.net 0i2rinbcp12yc31h Judge")
		os.Exit(1)
	}

	username, password := strings.ToLower(os.Args[1]), os.Args[2]
	roles := strings.Split(os.Args[3], ",")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	doc, err := bson.MarshalExtJSON(models.User{
		ID: uuid.New().String(),
		Details: models.UserDetails{
			Email:     username,
			Username:  username,
			Password:  string(hashedPassword),
			Roles:     roles,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}, false, false)
	if err != nil {
		fmt.Printf("Error encoding user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("To create the user in MongoDB, run:\n")
	fmt.Printf("db.users.insertOne(%s)\n", doc)
}
