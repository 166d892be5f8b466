package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

func sampleOrder(name string) domain.Order {
	return domain.Order{
		Name:     name,
		Items:    []string{"burger", "fries"},
		Quantity: 2,
		Value:    decimal.RequireFromString("21.90"),
		Extras:   []string{"bacon"},
	}
}

func TestOrderRepository_PostgresLifecycle(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	first, err := repo.Create(ctx, sampleOrder("Ana"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, first.ID, domain.FirstOrderID)
	assert.Equal(t, domain.DefaultStatus, first.Status)
	assert.Equal(t, []string{"burger", "fries"}, first.Items)
	assert.Equal(t, []string{"bacon"}, first.Extras)
	assert.Equal(t, "21.90", first.Value.StringFixed(2))

	noExtras := sampleOrder("Bia")
	noExtras.Extras = nil
	second, err := repo.Create(ctx, noExtras)
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, []string{}, second.Extras)

	got, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)

	replacement := sampleOrder("Ana Maria")
	replacement.ID = first.ID
	replacement.Quantity = 3
	replacement.Value = decimal.RequireFromString("30")
	replacement.Status = "Ready"
	updated, err := repo.Replace(ctx, replacement)
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, "Ready", updated.Status)

	statusChanged, err := repo.UpdateStatus(ctx, second.ID, "Done")
	require.NoError(t, err)
	assert.Equal(t, "Done", statusChanged.Status)
	assert.Equal(t, second.Quantity, statusChanged.Quantity)
	assert.True(t, second.Value.Equal(statusChanged.Value))

	patched, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, statusChanged, patched)
	assert.Equal(t, "Done", patched.Status)
	assert.Equal(t, second.Name, patched.Name)
	assert.Equal(t, second.Items, patched.Items)

	deleted, err := repo.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, patched, deleted)

	_, err = repo.Get(ctx, second.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_PostgresNotFound(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.Get(ctx, 1)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	missing := sampleOrder("Nobody")
	missing.ID = 1
	_, err = repo.Replace(ctx, missing)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = repo.UpdateStatus(ctx, 1, "Done")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = repo.Delete(ctx, 1)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_PostgresReadsLegacyNullExtras(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := store.Connect(ctx)
	require.NoError(t, err)
	var id int64
	err = conn.QueryRow(ctx, `
		INSERT INTO orders (name, product, quantity, value, extras)
		VALUES ('Legacy', '["pastel"]', 1, 7.00, NULL)
		RETURNING id
	`).Scan(&id)
	release(conn)
	require.NoError(t, err)

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Extras)
	assert.Equal(t, domain.DefaultStatus, got.Status)
}

func TestOrderRepository_ConnectionErrorPropagates(t *testing.T) {
	cfg := validConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.SSLMode = "require"
	cfg.ConnectTimeout = 150 * time.Millisecond
	store, err := NewStore(cfg)
	require.NoError(t, err)

	repo := NewOrderRepository(store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = repo.List(ctx)
	require.ErrorIs(t, err, domain.ErrConnection)
}
