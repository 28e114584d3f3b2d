package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a sample org chart for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"approval_entries", "leave_requests", "tickets", "user_permissions", "users", "departments"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BCryptCost)

		departments := []string{"Engineering", "Operations"}
		deptIDs := make(map[string]int64)
		for _, name := range departments {
			var id int64
			row := db.Raw("SELECT id FROM departments WHERE name = ?", name).Row()
			if err := row.Scan(&id); err != nil {
				if err := db.Exec("INSERT INTO departments (name, created_at, updated_at) VALUES (?, now(), now())", name).Error; err != nil {
					log.Fatalf("failed to insert department %s: %v", name, err)
				}
				if err := db.Raw("SELECT id FROM departments WHERE name = ?", name).Row().Scan(&id); err != nil {
					log.Fatalf("department not found after insert %s: %v", name, err)
				}
				fmt.Println("Seeded department:", name)
			}
			deptIDs[name] = id
		}

		// One user per rung of the ladder, all reporting up the chain.
		ladder := []struct {
			Email string
			Name  string
			Role  string
			Dept  string
		}{
			{"tiara@orgops.dev", "Tiara", "top_executive", ""},
			{"bagus@orgops.dev", "Bagus", "managing_director", ""},
			{"rina@orgops.dev", "Rina", "administrator", ""},
			{"sari@orgops.dev", "Sari", "human_resources", "Operations"},
			{"dimas@orgops.dev", "Dimas", "department_head", "Engineering"},
			{"putri@orgops.dev", "Putri", "assistant_department_head", "Engineering"},
			{"agus@orgops.dev", "Agus", "general_staff", "Engineering"},
		}

		userIDs := make(map[string]int64)
		for _, u := range ladder {
			var id int64
			row := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&id); err == nil {
				fmt.Println("user already exists:", u.Email)
				userIDs[u.Email] = id
				continue
			}

			var deptID interface{}
			if u.Dept != "" {
				deptID = deptIDs[u.Dept]
			}

			if err := db.Exec(
				`INSERT INTO users (email, name, password_hash, role, department_id, leave_balance, conduct_score, is_active, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, 12, 100, true, now(), now())`,
				u.Email, u.Name, string(hash), u.Role, deptID).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			if err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&id); err != nil {
				log.Fatalf("user not found after insert %s: %v", u.Email, err)
			}
			userIDs[u.Email] = id
			fmt.Println("Seeded user:", u.Email, "role:", u.Role)
		}

		// Reporting chain mirrors the ladder top to bottom.
		reporting := map[string]string{
			"bagus@orgops.dev": "tiara@orgops.dev",
			"rina@orgops.dev":  "bagus@orgops.dev",
			"sari@orgops.dev":  "rina@orgops.dev",
			"dimas@orgops.dev": "sari@orgops.dev",
			"putri@orgops.dev": "dimas@orgops.dev",
			"agus@orgops.dev":  "putri@orgops.dev",
		}
		for email, managerEmail := range reporting {
			if err := db.Exec("UPDATE users SET reports_to_id = ?, updated_at = now() WHERE id = ?",
				userIDs[managerEmail], userIDs[email]).Error; err != nil {
				log.Fatalf("failed to set manager for %s: %v", email, err)
			}
		}

		if err := db.Exec("UPDATE departments SET head_user_id = ?, updated_at = now() WHERE id = ?",
			userIDs["dimas@orgops.dev"], deptIDs["Engineering"]).Error; err != nil {
			log.Fatalf("failed to set engineering head: %v", err)
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"submit_leave", "Can submit leave requests"},
			{"respond_leave", "Can approve or reject leave requests"},
			{"issue_tickets", "Can issue disciplinary tickets"},
			{"respond_tickets", "Can act on disciplinary tickets"},
			{"purge_tickets", "Can permanently delete tickets"},
			{"manage_hierarchy", "Can reassign reporting lines"},
		}

		for _, p := range permissions {
			var pid int64
			row := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row()
			if err := row.Scan(&pid); err != nil {
				if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
					log.Fatalf("failed to insert permission %s: %v", p.Name, err)
				}
			}
		}

		// The administrator gets an explicit admin grant on top of the
		// role defaults.
		var adminPermID int64
		if err := db.Raw("SELECT id FROM permissions WHERE name = 'admin'").Row().Scan(&adminPermID); err != nil {
			log.Fatalf("admin permission not found: %v", err)
		}
		adminUserID := userIDs["rina@orgops.dev"]

		var exists int
		if err := db.Raw("SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_id = ?", adminUserID, adminPermID).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO user_permissions (user_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", adminUserID, adminPermID).Error; err != nil {
				log.Fatalf("failed to grant admin permission: %v", err)
			}
		}

		fmt.Println("Org chart seeded successfully")
	},
}
