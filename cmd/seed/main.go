package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"natours/internal/config"
	"natours/internal/models"
	"natours/internal/repositories/mongodb"
	"natours/internal/services"
	"natours/internal/validators"
	"natours/pkg/database"
	"natours/pkg/logger"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type seedTour struct {
	ID string `json:"_id"`
	validators.TourCreateRequest
}

type seedUser struct {
	ID       string      `json:"_id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Photo    string      `json:"photo"`
	Password string      `json:"password"`
}

type seedReview struct {
	ID     string  `json:"_id"`
	Review string  `json:"review"`
	Rating float64 `json:"rating"`
	Tour   string  `json:"tour"`
	User   string  `json:"user"`
}

func main() {
	var doImport, doDelete, dropIndexes bool
	var dir string

	flag.BoolVar(&doImport, "import", false, "Import tours, users and reviews")
	flag.BoolVar(&doDelete, "delete", false, "Delete all tours, users and reviews")
	flag.BoolVar(&dropIndexes, "drop-indexes", false, "With --delete, also roll back every index migration")
	flag.StringVar(&dir, "dir", "dev-data/data", "Directory holding tours.json, users.json and reviews.json")
	flag.Parse()

	if doImport == doDelete {
		fmt.Fprintln(os.Stderr, "usage: seed --import | --delete [--drop-indexes] [--dir path]")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mongoDB, err := database.NewMongoDB(cfg.Database.Connection())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer mongoDB.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	if doDelete {
		if err := deleteData(ctx, mongoDB); err != nil {
			log.Fatalf("Delete failed: %v", err)
		}
		if dropIndexes {
			if err := database.NewMigrator(mongoDB.Database, logger.NewNop()).Down(ctx, 0); err != nil {
				log.Fatalf("Failed to roll back migrations: %v", err)
			}
		}
		log.Printf("Data successfully deleted in %s", time.Since(start))
		return
	}

	if err := database.NewMigrator(mongoDB.Database, logger.NewNop()).Up(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := importData(ctx, mongoDB, cfg, dir); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Data successfully loaded in %s", time.Since(start))
}

func deleteData(ctx context.Context, db *database.MongoDB) error {
	for _, name := range []string{database.ReviewsCollection, database.ToursCollection, database.UsersCollection} {
		res, err := db.Collection(name).DeleteMany(ctx, bson.M{})
		if err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
		log.Printf("Deleted %d %s", res.DeletedCount, name)
	}
	return nil
}

// importData loads users, then tours, then reviews. Reviews go through the
// review service so every tour's rating summary is computed as it would be
// in production.
func importData(ctx context.Context, db *database.MongoDB, cfg *config.Config, dir string) error {
	tourRepo := mongodb.NewTourRepository(db.Database, nil, 0)
	userRepo := mongodb.NewUserRepository(db.Database, nil)
	reviewService := services.NewReviewService(mongodb.NewReviewRepository(db.Database), tourRepo, logger.NewNop())

	var users []seedUser
	if err := readJSON(filepath.Join(dir, "users.json"), &users); err != nil {
		return err
	}
	for _, u := range users {
		user, err := u.toModel(cfg.Security.BcryptCost)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return err
		}
	}
	log.Printf("Imported %d users", len(users))

	var tours []seedTour
	if err := readJSON(filepath.Join(dir, "tours.json"), &tours); err != nil {
		return err
	}
	for _, t := range tours {
		tour, err := t.toModel()
		if err != nil {
			return fmt.Errorf("tour %q: %w", t.Name, err)
		}
		if err := tourRepo.Create(ctx, tour); err != nil {
			return err
		}
	}
	log.Printf("Imported %d tours", len(tours))

	var reviews []seedReview
	if err := readJSON(filepath.Join(dir, "reviews.json"), &reviews); err != nil {
		return err
	}
	for _, r := range reviews {
		review, err := r.toModel()
		if err != nil {
			return fmt.Errorf("review %s: %w", r.ID, err)
		}
		if err := reviewService.RecordReview(ctx, review); err != nil {
			return fmt.Errorf("review %s: %w", r.ID, err)
		}
	}
	log.Printf("Imported %d reviews", len(reviews))
	return nil
}

func (s seedTour) toModel() (*models.Tour, error) {
	tour, err := s.TourCreateRequest.ToModel()
	if err != nil {
		return nil, err
	}
	if err := validators.ValidateTour(tour); err != nil {
		return nil, err
	}
	if tour.ID, err = optionalID(s.ID); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s seedUser) toModel(cost int) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     s.Name,
		Email:    s.Email,
		Role:     s.Role,
		Photo:    s.Photo,
		Password: string(hash),
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Photo == "" {
		user.Photo = models.DefaultUserPhoto
	}
	if err := validators.ValidateUser(user); err != nil {
		return nil, err
	}
	if user.ID, err = optionalID(s.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s seedReview) toModel() (*models.Review, error) {
	req := validators.ReviewCreateRequest{Review: s.Review, Rating: s.Rating, Tour: s.Tour, UserID: s.User}
	review, err := req.ToModel()
	if err != nil {
		return nil, err
	}
	if review.ID, err = optionalID(s.ID); err != nil {
		return nil, err
	}
	return review, nil
}

// optionalID keeps the fixed ids from the data files so references line up.
func optionalID(hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, nil
	}
	return primitive.ObjectIDFromHex(hex)
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
