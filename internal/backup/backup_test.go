package backup

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/costeo/internal/product"
	"github.com/MikeMC777/costeo/internal/recipe"
)

type productStub struct {
	product.Repository
	items []product.Product
	moves []product.Movement
}

func (s *productStub) ListAll(context.Context, string) ([]product.Product, error) { return s.items, nil }
func (s *productStub) ListAllMovements(context.Context, string) ([]product.Movement, error) {
	return s.moves, nil
}

type recipeStub struct {
	recipe.Repository
	err error
}

func (s *recipeStub) ListAll(context.Context, string) ([]recipe.Recipe, error) {
	return []recipe.Recipe{{ID: "r1", Name: "Cake"}}, s.err
}

type memStore struct {
	key  string
	body []byte
	ct   string
}

func (m *memStore) Put(_ context.Context, key string, body []byte, ct string) error {
	m.key, m.body, m.ct = key, body, ct
	return nil
}

var fixed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func exporter(store Store) *Exporter {
	return &Exporter{
		Products: &productStub{
			items: []product.Product{{ID: "p1", Name: "Flour"}},
			moves: []product.Movement{{ID: "m1", ProductID: "p1", Kind: product.Entry}},
		},
		Recipes: &recipeStub{},
		Store:   store,
		Now:     func() time.Time { return fixed },
	}
}

func TestRun_Inline(t *testing.T) {
	rec, doc, err := exporter(nil).Run(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NotNil(t, doc)
	assert.Equal(t, FormatVersion, doc.Version)
	assert.Len(t, doc.Products, 1)
	assert.Len(t, doc.Movements, 1)
	assert.Len(t, doc.Recipes, 1)
}

func TestRun_Uploads(t *testing.T) {
	store := &memStore{}
	rec, doc, err := exporter(store).Run(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	assert.Equal(t, "backups/t1/20260102T030405Z.json", rec.Key)
	assert.Equal(t, rec.Key, store.key)
	assert.Equal(t, "application/json", store.ct)
	assert.Equal(t, len(store.body), rec.Size)

	var back Document
	require.NoError(t, json.Unmarshal(store.body, &back))
	assert.Equal(t, "t1", back.TenantID)
	assert.Equal(t, "Flour", back.Products[0].Name)
}

func TestRun_PropagatesErrors(t *testing.T) {
	e := exporter(nil)
	e.Recipes = &recipeStub{err: errors.New("db down")}
	_, _, err := e.Run(context.Background(), "t1")
	assert.ErrorContains(t, err, "list recipes")
}
