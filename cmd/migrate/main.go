package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"asagus.com/internal/auth"
	"asagus.com/internal/ids"
	"asagus.com/internal/migrate"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("ASAGUS_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "ops/migrations/sql", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "ops/migrations/seeds", "Path to SQL seeds")
		adminEmail     = flag.String("admin-email", "admin@asagus.com", "Bootstrap super admin email")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or ASAGUS_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status|bootstrap]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "bootstrap":
		err = bootstrapAdmin(ctx, db, *adminEmail)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

// bootstrapAdmin creates (or re-activates) the super admin account. The
// password comes from ASAGUS_ADMIN_PASSWORD and is hashed here so no hash
// material lives in seed files.
func bootstrapAdmin(ctx context.Context, db *sql.DB, email string) error {
	password := os.Getenv("ASAGUS_ADMIN_PASSWORD")
	if password == "" {
		return errors.New("ASAGUS_ADMIN_PASSWORD is required for bootstrap")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	userID := ids.New()
	err = db.QueryRowContext(ctx, `
		insert into users (id, email, name, password_hash, is_active, email_verified)
		values ($1, $2, 'Site Administrator', $3, true, true)
		on conflict (email) do update
		set password_hash = excluded.password_hash, is_active = true
		returning id
	`, userID, email, hash).Scan(&userID)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		insert into user_roles (user_id, role_id)
		select $1, id from roles where name = $2
		on conflict do nothing
	`, userID, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}
	log.Printf("super admin ready: %s", email)
	return nil
}
