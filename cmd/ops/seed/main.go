// Package main seeds an airline deployment: the airline row itself, its
// fleet, and an optional admin account. The tool is idempotent; existing
// rows are left untouched, so it is safe to re-run against a live database.
//
// Plane specs are passed as CODE:MODEL:CAPACITY triples, for example:
//
//	seed -airline aeroline -planes "EC-AAA:Airbus A320:180,EC-BBB:Boeing 737:160" \
//	     -admin-username ops -admin-email ops@example.com -admin-password ...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"

	"airline/internal/auth"
	"airline/internal/config"
	"airline/internal/db"
	"airline/internal/types"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	airlineName := fs.String("airline", "airline", "airline name to provision")
	planeCount := fs.Int("plane-count", 0, "declared fleet size (defaults to the number of -planes specs)")
	planeSpecs := fs.String("planes", "", "comma-separated plane specs CODE:MODEL:CAPACITY")
	adminUsername := fs.String("admin-username", "", "admin account username (optional)")
	adminEmail := fs.String("admin-email", "", "admin account email")
	adminPassword := fs.String("admin-password", "", "admin account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	planes, err := parsePlaneSpecs(*planeSpecs)
	if err != nil {
		return err
	}
	if *planeCount == 0 {
		*planeCount = len(planes)
	}
	if *adminUsername != "" && (*adminEmail == "" || *adminPassword == "") {
		return errors.New("-admin-email and -admin-password are required with -admin-username")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var dbCfg config.DatabaseConfig
	if err := envconfig.Process("", &dbCfg); err != nil {
		return fmt.Errorf("loading database configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	airlineRepo := db.NewAirlineRepository(pool)
	planeRepo := db.NewPlaneRepository(pool)
	userRepo := db.NewUserRepository(pool)

	airline, err := ensureAirline(ctx, airlineRepo, *airlineName, *planeCount, logger)
	if err != nil {
		return err
	}

	for _, spec := range planes {
		if err := ensurePlane(ctx, planeRepo, airline.ID, spec, logger); err != nil {
			return err
		}
	}

	if *adminUsername != "" {
		if err := ensureAdmin(ctx, userRepo, *adminUsername, *adminEmail, *adminPassword, logger); err != nil {
			return err
		}
	}

	logger.Info("seed complete", "airline", airline.Name, "planes", len(planes))
	return nil
}

type planeSpec struct {
	RegistrationCode string
	Model            string
	Capacity         int
}

func parsePlaneSpecs(raw string) ([]planeSpec, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var specs []planeSpec
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid plane spec %q; want CODE:MODEL:CAPACITY", entry)
		}
		capacity, err := strconv.Atoi(parts[2])
		if err != nil || capacity < 1 {
			return nil, fmt.Errorf("invalid capacity in plane spec %q", entry)
		}
		specs = append(specs, planeSpec{
			RegistrationCode: strings.ToUpper(strings.TrimSpace(parts[0])),
			Model:            strings.TrimSpace(parts[1]),
			Capacity:         capacity,
		})
	}
	return specs, nil
}

func ensureAirline(ctx context.Context, repo *db.AirlineRepository, name string, planeCount int, logger *slog.Logger) (*types.Airline, error) {
	airline, err := repo.GetByName(ctx, name)
	if err == nil {
		logger.Info("airline already exists", "id", airline.ID, "name", airline.Name)
		return airline, nil
	}
	if !isCode(err, types.ErrCodeNotFoundAirline) {
		return nil, fmt.Errorf("looking up airline: %w", err)
	}

	airline = &types.Airline{
		ID:         "al_" + uuid.New().String(),
		Name:       name,
		PlaneCount: planeCount,
	}
	if err := repo.Create(ctx, airline); err != nil {
		return nil, fmt.Errorf("creating airline: %w", err)
	}
	logger.Info("airline created", "id", airline.ID, "name", airline.Name)
	return airline, nil
}

func ensurePlane(ctx context.Context, repo *db.PlaneRepository, airlineID string, spec planeSpec, logger *slog.Logger) error {
	if _, err := repo.GetByRegistrationCode(ctx, spec.RegistrationCode); err == nil {
		logger.Info("plane already exists", "registration_code", spec.RegistrationCode)
		return nil
	} else if !isCode(err, types.ErrCodeNotFoundPlane) {
		return fmt.Errorf("looking up plane %s: %w", spec.RegistrationCode, err)
	}

	plane := &types.Plane{
		ID:               "pl_" + uuid.New().String(),
		Model:            spec.Model,
		Capacity:         spec.Capacity,
		RegistrationCode: spec.RegistrationCode,
		AirlineID:        airlineID,
	}
	if err := repo.Create(ctx, plane); err != nil {
		return fmt.Errorf("creating plane %s: %w", spec.RegistrationCode, err)
	}
	logger.Info("plane created", "id", plane.ID, "registration_code", plane.RegistrationCode)
	return nil
}

func ensureAdmin(ctx context.Context, repo *db.UserRepository, username, email, password string, logger *slog.Logger) error {
	exists, err := repo.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("looking up admin user: %w", err)
	}
	if exists {
		logger.Info("admin user already exists", "username", username)
		return nil
	}

	hash, err := auth.NewBcryptHasher().GenerateFromPassword(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	user := &types.User{
		ID:           "u_" + uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         types.RoleAdmin,
	}
	if err := repo.Create(ctx, user); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	logger.Info("admin user created", "id", user.ID, "username", user.Username)
	return nil
}

func isCode(err error, code types.ErrorCode) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
