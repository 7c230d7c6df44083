package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/infrastructure/memory"
)

const catalogCSV = "name,description,price,stock,category,image_url\n" +
	"Carmenere Reserva,Tinto intenso,10.5,12,Viña Uno,https://cdn/x.png\n" +
	"Rosé,Fresco,5,3,Viña Dos,https://cdn/y.png\n"

func TestParseCatalog_UTF8(t *testing.T) {
	rows, err := parseCatalog([]byte("\xef\xbb\xbf" + catalogCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Carmenere Reserva", rows[0].Name)
	assert.Equal(t, "10.5", rows[0].Price.String())
	assert.Equal(t, "Rosé", rows[1].Name)
}

func TestParseCatalog_Windows1252(t *testing.T) {
	// "Viña" con ñ = 0xF1 en Windows-1252
	raw := []byte("name,description,price,stock,category,image_url\nMalbec,Tinto,8,1,Vi\xf1a Sur,u\n")
	rows, err := parseCatalog(raw)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Viña Sur", rows[0].Category)
}

func TestParseCatalog_Errores(t *testing.T) {
	_, err := parseCatalog([]byte("name,price\nX,1\n"))
	assert.Error(t, err, "faltan columnas")

	_, err = parseCatalog([]byte("name,description,price,stock,category,image_url\nX,d,caro,1,c,u\n"))
	assert.Error(t, err)

	_, err = parseCatalog([]byte("name,description,price,stock,category,image_url\nX,d,1,-2,c,u\n"))
	assert.Error(t, err)
}

func TestUpsertProducts_PorNombre(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := store.Products()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows, err := parseCatalog([]byte(catalogCSV))
	require.NoError(t, err)
	created, updated, err := upsertProducts(ctx, repo, rows, now)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)

	rows, err = parseCatalog([]byte("name,description,price,stock,category,image_url\nRosé,Nuevo,6,9,Viña Dos,u\n"))
	require.NoError(t, err)
	created, updated, err = upsertProducts(ctx, repo, rows, now)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)

	p, err := repo.GetByName(ctx, "Rosé")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 9, p.Stock)
	assert.Equal(t, "6", p.Price.String())
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := store.Users()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &entity.User{ID: "u1", Name: "Ana", Email: "ana@vittos.cl", Role: entity.RoleCustomer}))

	require.NoError(t, ensureAdmin(ctx, repo, "Ana", "ANA@vittos.cl", "clave-segura", now))
	u, err := repo.GetByEmail(ctx, "ana@vittos.cl")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("clave-segura")))

	require.NoError(t, ensureAdmin(ctx, repo, "Jefe", "jefe@vittos.cl", "clave-segura", now))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Error(t, ensureAdmin(ctx, repo, "X", "no-es-email", "clave-segura", now))
	assert.Error(t, ensureAdmin(ctx, repo, "X", "x@vittos.cl", "corta", now))
}
