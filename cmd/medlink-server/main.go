package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medlink/medlink/internal/config"
	"github.com/medlink/medlink/internal/domain/account"
	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/auth"
	"github.com/medlink/medlink/internal/platform/db"
	"github.com/medlink/medlink/internal/platform/sandbox"
	"github.com/medlink/medlink/migrations"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "medlink-server",
		Short: "Patient and doctor management server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API and web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// migrationFiles returns the embedded migrations, or dir when given.
func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationFiles(dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to a migrations directory (default: embedded)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationFiles(dir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to a migrations directory (default: embedded)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			if problems := auth.ValidatePasswordStrength(password, username, email, firstName, lastName); len(problems) > 0 {
				return fmt.Errorf("weak password: %s", problems[0])
			}

			return withAccounts(func(ctx context.Context, svc *account.Service) error {
				u, err := svc.CreateUser(ctx, account.NewUser{
					Username:  username,
					Email:     email,
					Password:  password,
					FirstName: firstName,
					LastName:  lastName,
				})
				if err != nil {
					return err
				}
				fmt.Printf("Created user %s (%s)\n", u.Username, u.ID)
				return nil
			})
		},
	}
	createCmd.Flags().String("username", "", "Login name")
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Initial password")
	createCmd.Flags().String("first-name", "", "First name")
	createCmd.Flags().String("last-name", "", "Last name")
	cmd.AddCommand(createCmd)

	deactivateCmd := &cobra.Command{
		Use:   "deactivate USERNAME",
		Short: "Disable a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(func(ctx context.Context, svc *account.Service) error {
				if err := svc.Deactivate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("Deactivated user %s\n", args[0])
				return nil
			})
		},
	}
	cmd.AddCommand(deactivateCmd)

	return cmd
}

// withAccounts opens a pool and hands fn an account service. Tokens are never
// issued from the CLI, so the service gets a throwaway issuer.
func withAccounts(fn func(ctx context.Context, svc *account.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	key, _, err := resolveSigningKey(cfg)
	if err != nil {
		return err
	}
	tokens := auth.NewTokenIssuer(auth.TokenConfig{
		SigningKey: key,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, auth.NewPGBlacklist(pool))

	svc := account.NewService(account.NewUserRepoPG(pool), tokens, zerolog.New(os.Stderr))
	return fn(ctx, svc)
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with demo patients, doctors and assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			seedCfg := sandbox.DefaultSeedConfig()
			seedCfg.PatientCount, _ = cmd.Flags().GetInt("patients")
			seedCfg.DoctorCount, _ = cmd.Flags().GetInt("doctors")
			seedCfg.AssignmentsPerPatient, _ = cmd.Flags().GetInt("assignments")
			seedCfg.Seed, _ = cmd.Flags().GetInt64("seed")
			if username == "" {
				return fmt.Errorf("--username is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			owner, err := account.NewUserRepoPG(pool).GetByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("look up %s: %w", username, err)
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			patientSvc := patient.NewService(patient.NewPatientRepoPG(pool))
			doctorSvc := doctor.NewService(doctor.NewDoctorRepoPG(pool))
			mappingSvc := mapping.NewService(mapping.NewMappingRepoPG(pool), patientSvc, doctorSvc, db.NewTxManager(pool), logger)

			result, err := sandbox.NewSeeder(seedCfg, patientSvc, doctorSvc, mappingSvc, logger).Run(ctx, owner.ID)
			if err != nil {
				return err
			}
			fmt.Printf("Created %d patient(s), %d doctor(s), %d assignment(s) for %s.\n",
				result.Patients, result.Doctors, result.Assignments, username)
			return nil
		},
	}
	def := sandbox.DefaultSeedConfig()
	cmd.Flags().String("username", "", "Owner of the generated records")
	cmd.Flags().Int("patients", def.PatientCount, "Number of patients")
	cmd.Flags().Int("doctors", def.DoctorCount, "Number of doctors")
	cmd.Flags().Int("assignments", def.AssignmentsPerPatient, "Assignments per patient")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one)")
	return cmd
}
