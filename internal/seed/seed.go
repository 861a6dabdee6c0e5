// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"pulse/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample user with a matching credential
// record. Optional override functions may modify the generated user before
// saving. All seeded users share the password "password123".
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:       gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:          gofakeit.Email(),
		Bio:            gofakeit.Sentence(10),
		Location:       gofakeit.City(),
		Pronouns:       gofakeit.RandomString([]string{"she/her", "he/him", "they/them", ""}),
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	identity := &models.Identity{
		UserID:       user.ID,
		Email:        user.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := f.db.Create(identity).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a sample post for the given user with a
// realistic created_at spread over the last 90 days.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Content: gofakeit.Paragraph(1, 3, 5, "\n"),
		UserID:  user.ID,
	}

	daysBack := f.rng.Intn(90)
	hoursBack := f.rng.Intn(24)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	if f.rng.Intn(3) == 0 {
		post.MediaKind = models.MediaKindImage
		post.MediaURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a sample comment. parent may be nil for a top-level
// comment.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(f.rng.Intn(12) + 3),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if parent != nil {
		parentID := parent.ID
		comment.ParentCommentID = &parentID
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Seeder populates the database with a coherent demo dataset.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll removes all seeded rows. Order respects foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, model := range []interface{}{
		&models.Like{},
		&models.Comment{},
		&models.Post{},
		&models.Identity{},
		&models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedUsers creates n users with credential records.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	log.Printf("Seeding %d users...", n)
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedFeed creates numPosts posts spread across users, then sprinkles likes,
// comments, and replies over them. The cached counters on each post are
// written from the actual row counts so the seeded data starts drift-free.
func (s *Seeder) SeedFeed(users []*models.User, numPosts int) error {
	if len(users) == 0 {
		return fmt.Errorf("no users to seed posts for")
	}
	log.Printf("Seeding %d posts with engagement...", numPosts)

	rng := s.factory.rng
	for i := 0; i < numPosts; i++ {
		author := users[rng.Intn(len(users))]
		post, err := s.factory.CreatePost(author)
		if err != nil {
			return err
		}

		likers := rng.Intn(len(users))
		for _, u := range users[:likers] {
			like := &models.Like{PostID: post.ID, UserID: u.ID}
			if err := s.db.Create(like).Error; err != nil {
				return err
			}
		}

		var topLevel []*models.Comment
		for j := 0; j < rng.Intn(5); j++ {
			commenter := users[rng.Intn(len(users))]
			comment, err := s.factory.CreateComment(commenter, post, nil)
			if err != nil {
				return err
			}
			topLevel = append(topLevel, comment)
		}
		for _, parent := range topLevel {
			if rng.Intn(3) == 0 {
				replier := users[rng.Intn(len(users))]
				if _, err := s.factory.CreateComment(replier, post, parent); err != nil {
					return err
				}
			}
		}

		if err := s.syncCounters(post.ID); err != nil {
			return err
		}
	}
	return nil
}

// syncCounters rewrites a post's cached counters from the actual row counts.
func (s *Seeder) syncCounters(postID string) error {
	var likes, comments int64
	if err := s.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&likes).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
		return err
	}
	return s.db.Model(&models.Post{}).Where("id = ?", postID).Updates(map[string]interface{}{
		"likes_count":    likes,
		"comments_count": comments,
	}).Error
}
