// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"devlink/internal/models"
	"devlink/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

var statuses = []string{
	"Developer", "Junior Developer", "Senior Developer", "Manager",
	"Student or Learning", "Instructor or Teacher", "Intern", "Other",
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	profiles, err := createProfiles(db, users)
	if err != nil {
		return fmt.Errorf("failed to create profiles: %w", err)
	}
	log.Printf("✓ %d profiles created", len(profiles))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	if err := createEngagement(db, users, posts); err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}
	log.Println("✓ likes and comments created")

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	// Children first so foreign keys never dangle.
	tables := []string{"comments", "likes", "posts", "experiences", "educations", "profiles", "users"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	// A single shared hash keeps seeding fast; every seed user shares the
	// documented password.
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := models.NormalizeEmail(fmt.Sprintf("%s.%d@%s",
			strings.ReplaceAll(strings.ToLower(name), " ", "."), i, gofakeit.DomainName()))

		user := models.User{
			Name:     name,
			Email:    email,
			Password: string(hashed),
			Avatar:   models.GravatarURL(email),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createProfiles(db *gorm.DB, users []models.User) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0, len(users))
	for _, user := range users {
		// Roughly a fifth of seed users have no profile yet, like a real
		// directory.
		if rand.Intn(5) == 0 {
			continue
		}

		skills := make([]string, 0, 5)
		for i := 0; i < 2+rand.Intn(4); i++ {
			skills = append(skills, gofakeit.ProgrammingLanguage())
		}

		profile := models.Profile{
			UserID:   user.ID,
			Company:  gofakeit.Company(),
			Website:  gofakeit.URL(),
			Location: fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.StateAbr()),
			Status:   statuses[rand.Intn(len(statuses))],
			Skills:   validation.ParseSkills(strings.Join(skills, ", ")),
			Bio:      gofakeit.Sentence(12),
			Social: models.SocialHandles{
				Github:  gofakeit.Username(),
				Twitter: gofakeit.Username(),
			},
		}
		if err := db.Create(&profile).Error; err != nil {
			return nil, err
		}

		for i := 0; i < 1+rand.Intn(3); i++ {
			start := gofakeit.DateRange(
				time.Now().AddDate(-10, 0, 0), time.Now().AddDate(-1, 0, 0))
			entry := models.Experience{
				ProfileID:   profile.ID,
				Title:       gofakeit.JobTitle(),
				Company:     gofakeit.Company(),
				Location:    gofakeit.City(),
				Description: gofakeit.Sentence(10),
				StartDate:   start,
				Current:     i == 0,
			}
			if !entry.Current {
				end := gofakeit.DateRange(start, time.Now())
				entry.EndDate = &end
			}
			if err := db.Create(&entry).Error; err != nil {
				return nil, err
			}
		}

		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func createPosts(db *gorm.DB, users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := models.Post{
			UserID: author.ID,
			Name:   author.Name,
			Avatar: author.Avatar,
			Text:   gofakeit.Sentence(8 + rand.Intn(20)),
		}
		if err := db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func createEngagement(db *gorm.DB, users []models.User, posts []models.Post) error {
	for _, post := range posts {
		// Pick distinct likers by shuffling so the post+user unique index
		// never trips.
		perm := rand.Perm(len(users))
		for _, idx := range perm[:rand.Intn(min(len(users), 6))] {
			like := models.Like{PostID: post.ID, UserID: users[idx].ID}
			if err := db.Create(&like).Error; err != nil {
				return err
			}
		}

		for i := 0; i < rand.Intn(4); i++ {
			commenter := users[rand.Intn(len(users))]
			comment := models.Comment{
				PostID: post.ID,
				UserID: commenter.ID,
				Name:   commenter.Name,
				Avatar: commenter.Avatar,
				Text:   gofakeit.Sentence(6 + rand.Intn(10)),
			}
			if err := db.Create(&comment).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
