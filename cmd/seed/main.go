package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ikkim/reviewfunnel-backend/config"
	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/internal/db"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	"github.com/ikkim/reviewfunnel-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// 시트 컬럼 순서
const (
	colSlug = iota
	colName
	colCategory
	colPlaceID
	colMapsURL
	colHeroImage
	colDiscountPercentage
	colDiscountValidDays
	minColumns = colPlaceID + 1
)

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	businessRepo := repository.NewBusinessRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	tenants, skipped, err := readTenantsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total tenants to import: %d (skipped rows: %d)\n", len(tenants), skipped)

	// 사용자 확인
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	owner, err := ensureSeedOwner(userRepo, getEnv("SEED_OWNER_EMAIL", "seed@blooreview.app"), os.Getenv("SEED_OWNER_PASSWORD"))
	if err != nil {
		log.Fatal("Failed to prepare seed owner:", err)
	}

	created, existing, err := importTenants(businessRepo, owner.ID, tenants)
	if err != nil {
		log.Fatal("Failed to import tenants:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Created: %d, already present: %d\n", created, existing)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// readTenantsFromXLSX 첫 시트의 행을 비즈니스로 변환, 첫 행은 헤더
func readTenantsFromXLSX(filePath string) ([]model.Business, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var tenants []model.Business
	seen := make(map[string]bool) // 시트 내 slug 중복 제거
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < minColumns {
			skipped++
			continue
		}

		name := cell(row, colName)
		placeID := cell(row, colPlaceID)
		if name == "" || placeID == "" {
			skipped++
			continue
		}

		slug := util.Slugify(cell(row, colSlug))
		if cell(row, colSlug) == "" {
			slug = util.Slugify(name)
		}
		slug = tenant.RoutableSlug(slug)
		if slug == util.DefaultSlug || seen[slug] {
			skipped++
			continue
		}
		seen[slug] = true

		settings := model.DefaultBusinessSettings()
		if pct := parsePositive(cell(row, colDiscountPercentage)); pct > 0 {
			settings.DiscountPercentage = pct
		}
		if days := parsePositive(cell(row, colDiscountValidDays)); days > 0 {
			settings.DiscountValidDays = days
		}

		tenants = append(tenants, model.Business{
			Slug:          slug,
			Name:          name,
			Category:      cell(row, colCategory),
			PlaceID:       placeID,
			GoogleMapsURL: cell(row, colMapsURL),
			HeroImage:     cell(row, colHeroImage),
			Config:        settings,
		})
	}

	return tenants, skipped, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePositive "15", "15%" 모두 허용, 실패 시 0
func parsePositive(s string) int {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// ensureSeedOwner 시드 계정 조회, 없으면 생성 (pro 플랜, 개수 제한 없음)
func ensureSeedOwner(userRepo repository.UserRepository, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	owner, err := userRepo.FindByEmail(email)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if password == "" {
		return nil, fmt.Errorf("seed owner %s does not exist; set SEED_OWNER_PASSWORD to create it", email)
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	owner = &model.User{
		Email:        email,
		PasswordHash: hash,
		PlanTier:     model.PlanPro,
		PlanStatus:   model.PlanStatusActive,
	}
	if err := userRepo.Create(owner); err != nil {
		return nil, err
	}
	return owner, nil
}

// importTenants 이미 있는 slug는 건너뜀
func importTenants(businessRepo repository.BusinessRepository, ownerID uint, tenants []model.Business) (int, int, error) {
	created, existing := 0, 0
	for i := range tenants {
		b := tenants[i]
		exists, err := businessRepo.SlugExists(b.Slug)
		if err != nil {
			return created, existing, err
		}
		if exists {
			existing++
			continue
		}

		b.UserID = ownerID
		if err := businessRepo.Create(&b); err != nil {
			return created, existing, fmt.Errorf("create %s: %w", b.Slug, err)
		}
		created++
	}
	return created, existing, nil
}
