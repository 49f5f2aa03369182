package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsales/internal/domain"
	"smartsales/internal/models"
)

type fakeSource struct {
	promotions []models.Promotion
	err        error

	calls       int
	categoryIDs []uint
	productIDs  []uint
}

func (f *fakeSource) FindCurrent(_ context.Context, _ time.Time, categoryIDs, productIDs []uint) ([]models.Promotion, error) {
	f.calls++
	f.categoryIDs = categoryIDs
	f.productIDs = productIDs
	return f.promotions, f.err
}

func TestNewEngineEmptyProductSet(t *testing.T) {
	source := &fakeSource{}
	engine, err := NewEngine(context.Background(), source, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, engine.Get(1))
	assert.Equal(t, 0, source.calls, "no products means no fetch")
}

func TestNewEngineBatchesOneFetch(t *testing.T) {
	products := []models.Product{
		{ID: 1, CategoryID: 10, Price: dec("100.00")},
		{ID: 2, CategoryID: 10, Price: dec("50.00")},
		{ID: 3, CategoryID: 20, Price: dec("30.00")},
	}
	source := &fakeSource{}
	_, err := NewEngine(context.Background(), source, products, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.ElementsMatch(t, []uint{10, 20}, source.categoryIDs)
	assert.ElementsMatch(t, []uint{1, 2, 3}, source.productIDs)
}

func TestNewEnginePartitionsByScope(t *testing.T) {
	products := []models.Product{
		{ID: 1, CategoryID: 10, Price: dec("100.00")},
		{ID: 2, CategoryID: 20, Price: dec("100.00")},
		{ID: 3, CategoryID: 30, Price: dec("100.00")},
	}
	catPromo := *percentPromo(1, domain.ScopeCategory, "20")
	catPromo.Categories = []models.Category{{ID: 10}}
	prodPromo := *fixedPromo(2, domain.ScopeProduct, "30.00")
	prodPromo.Products = []models.Product{{ID: 2}}
	globalPromo := *percentPromo(3, domain.ScopeGlobal, "5")

	source := &fakeSource{promotions: []models.Promotion{catPromo, prodPromo, globalPromo}}
	engine, err := NewEngine(context.Background(), source, products, time.Now())
	require.NoError(t, err)

	// Product 1: category 20% (20.00) beats global 5%.
	p1 := engine.Get(1)
	require.NotNil(t, p1)
	assert.Equal(t, uint(1), p1.Promotion.ID)
	assert.True(t, dec("80.00").Equal(p1.FinalPrice))

	// Product 2: product-scoped fixed 30.00 beats global 5%.
	p2 := engine.Get(2)
	require.NotNil(t, p2)
	assert.Equal(t, uint(2), p2.Promotion.ID)
	assert.True(t, dec("70.00").Equal(p2.FinalPrice))

	// Product 3: only the global promotion reaches it.
	p3 := engine.Get(3)
	require.NotNil(t, p3)
	assert.Equal(t, uint(3), p3.Promotion.ID)
	assert.True(t, dec("95.00").Equal(p3.FinalPrice))
}

func TestNewEngineNoApplicablePromotion(t *testing.T) {
	products := []models.Product{{ID: 1, CategoryID: 10, Price: dec("100.00")}}
	catPromo := *percentPromo(1, domain.ScopeCategory, "20")
	catPromo.Categories = []models.Category{{ID: 99}}

	source := &fakeSource{promotions: []models.Promotion{catPromo}}
	engine, err := NewEngine(context.Background(), source, products, time.Now())
	require.NoError(t, err)
	assert.Nil(t, engine.Get(1))
}

func TestNewEngineSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("db down")}
	products := []models.Product{{ID: 1, CategoryID: 10, Price: dec("100.00")}}
	_, err := NewEngine(context.Background(), source, products, time.Now())
	assert.Error(t, err)
}
