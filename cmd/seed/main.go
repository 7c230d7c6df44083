// seed carga el catálogo de vinos desde un CSV y crea o actualiza el usuario administrador.
//
// Uso: go run ./cmd/seed [ruta/catalogo.csv]
// Columnas: name,description,price,stock,category,image_url (con encabezado).
// Acepta UTF-8 o Windows-1252 (exportaciones de Excel). Los productos se identifican por nombre.
// Admin: SEED_ADMIN_EMAIL, SEED_ADMIN_PASSWORD y SEED_ADMIN_NAME.
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/vittoswine/vittos-api/internal/application/auth"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/repository"
	"github.com/vittoswine/vittos-api/internal/infrastructure/postgres"
	"github.com/vittoswine/vittos-api/pkg/config"
	"github.com/vittoswine/vittos-api/pkg/logger"
)

var columns = []string{"name", "description", "price", "stock", "category", "image_url"}

func main() {
	_ = godotenv.Load()

	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("seed")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("abrir CSV")
	}
	rows, err := parseCatalog(raw)
	if err != nil {
		log.Fatal().Err(err).Str("path", csvPath).Msg("leer CSV")
	}

	created, updated, err := upsertProducts(ctx, postgres.NewProductRepository(pool), rows, time.Now().UTC())
	if err != nil {
		log.Fatal().Err(err).Msg("cargar productos")
	}
	log.Info().Int("creados", created).Int("actualizados", updated).Msg("catálogo cargado")

	email := strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))
	if email == "" {
		log.Info().Msg("SEED_ADMIN_EMAIL vacío, no se crea administrador")
		return
	}
	name := os.Getenv("SEED_ADMIN_NAME")
	if name == "" {
		name = "Administrador"
	}
	if err := ensureAdmin(ctx, postgres.NewUserRepository(pool), name, email, os.Getenv("SEED_ADMIN_PASSWORD"), time.Now().UTC()); err != nil {
		log.Fatal().Err(err).Msg("crear administrador")
	}
	log.Info().Str("email", email).Msg("administrador listo")
}

// parseCatalog decodifica el CSV. Si el contenido no es UTF-8 válido se asume Windows-1252.
func parseCatalog(raw []byte) ([]*entity.Product, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	r := csv.NewReader(src)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}

	var out []*entity.Product
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }

		price, err := decimal.NewFromString(get("price"))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, get("price"))
		}
		stock, err := strconv.Atoi(get("stock"))
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("línea %d: stock inválido %q", line, get("stock"))
		}
		if get("name") == "" {
			return nil, fmt.Errorf("línea %d: nombre vacío", line)
		}
		out = append(out, &entity.Product{
			Name:        get("name"),
			Description: get("description"),
			Price:       price.Round(2),
			Stock:       stock,
			Category:    get("category"),
			ImageURL:    get("image_url"),
		})
	}
	return out, nil
}

// upsertProducts crea los productos nuevos y actualiza los existentes (mismo nombre).
func upsertProducts(ctx context.Context, repo repository.ProductRepository, rows []*entity.Product, now time.Time) (created, updated int, err error) {
	for _, p := range rows {
		existing, err := repo.GetByName(ctx, p.Name)
		if err != nil {
			return created, updated, err
		}
		if existing == nil {
			p.ID = uuid.New().String()
			p.CreatedAt, p.UpdatedAt = now, now
			if err := repo.Create(ctx, p); err != nil {
				return created, updated, fmt.Errorf("crear %q: %w", p.Name, err)
			}
			created++
			continue
		}
		existing.Description = p.Description
		existing.Price = p.Price
		existing.Stock = p.Stock
		existing.Category = p.Category
		existing.ImageURL = p.ImageURL
		existing.UpdatedAt = now
		if err := repo.Update(ctx, existing); err != nil {
			return created, updated, fmt.Errorf("actualizar %q: %w", p.Name, err)
		}
		updated++
	}
	return created, updated, nil
}

// ensureAdmin crea el administrador o, si el email existe, lo promueve y renueva su contraseña.
func ensureAdmin(ctx context.Context, repo repository.UserRepository, name, rawEmail, password string, now time.Time) error {
	email, err := auth.CheckEmail(rawEmail)
	if err != nil {
		return err
	}
	if len(password) < auth.MinPasswordLength {
		return fmt.Errorf("SEED_ADMIN_PASSWORD debe tener al menos %d caracteres", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	u, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return repo.Create(ctx, &entity.User{
			ID:           uuid.New().String(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         entity.RoleAdmin,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	u.Role = entity.RoleAdmin
	u.PasswordHash = hash
	u.UpdatedAt = now
	return repo.Update(ctx, u)
}
