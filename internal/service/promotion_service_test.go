package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"smartsales/internal/domain"
	"smartsales/internal/models"
)

type fakePromotionRepo struct {
	promotions map[uint]*models.Promotion
	nextID     uint
}

func newFakePromotionRepo() *fakePromotionRepo {
	return &fakePromotionRepo{promotions: make(map[uint]*models.Promotion)}
}

func (r *fakePromotionRepo) Create(_ context.Context, p *models.Promotion, categoryIDs, productIDs []uint) error {
	r.nextID++
	p.ID = r.nextID
	r.save(p, categoryIDs, productIDs)
	return nil
}

func (r *fakePromotionRepo) Update(_ context.Context, p *models.Promotion, categoryIDs, productIDs []uint) error {
	r.save(p, categoryIDs, productIDs)
	return nil
}

func (r *fakePromotionRepo) save(p *models.Promotion, categoryIDs, productIDs []uint) {
	c := *p
	c.Categories = nil
	for _, id := range categoryIDs {
		c.Categories = append(c.Categories, models.Category{ID: id})
	}
	c.Products = nil
	for _, id := range productIDs {
		c.Products = append(c.Products, models.Product{ID: id})
	}
	r.promotions[p.ID] = &c
}

func (r *fakePromotionRepo) GetByID(_ context.Context, id uint) (*models.Promotion, error) {
	p, ok := r.promotions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakePromotionRepo) List(_ context.Context, _, _ int) ([]models.Promotion, int64, error) {
	var list []models.Promotion
	for _, p := range r.promotions {
		list = append(list, *p)
	}
	return list, int64(len(list)), nil
}

func (r *fakePromotionRepo) FindCurrent(_ context.Context, _ time.Time, _, _ []uint) ([]models.Promotion, error) {
	return nil, nil
}

func validInput() *PromotionInput {
	return &PromotionInput{
		Name:          "Spring Sale",
		DiscountType:  domain.DiscountPercent,
		DiscountValue: dec("10"),
		Scope:         domain.ScopeGlobal,
		StartDate:     time.Now(),
	}
}

func TestPromotionCreateValid(t *testing.T) {
	svc := NewPromotionService(newFakePromotionRepo())
	p, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, domain.ScopeGlobal, p.Scope)
}

func TestPromotionCreateRejectsPercentOverHundred(t *testing.T) {
	svc := NewPromotionService(newFakePromotionRepo())
	in := validInput()
	in.DiscountValue = dec("101")
	_, err := svc.Create(context.Background(), in)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestPromotionCreateRejectsNonPositiveValue(t *testing.T) {
	svc := NewPromotionService(newFakePromotionRepo())
	in := validInput()
	in.DiscountValue = dec("0")
	_, err := svc.Create(context.Background(), in)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestPromotionCreateRequiresScopeSets(t *testing.T) {
	svc := NewPromotionService(newFakePromotionRepo())

	in := validInput()
	in.Scope = domain.ScopeCategory
	_, err := svc.Create(context.Background(), in)
	assert.Equal(t, KindValidation, KindOf(err))

	in = validInput()
	in.Scope = domain.ScopeProduct
	_, err = svc.Create(context.Background(), in)
	assert.Equal(t, KindValidation, KindOf(err))

	in = validInput()
	in.Scope = domain.ScopeProduct
	in.ProductIDs = []uint{1, 2}
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, p.Products, 2)
}

func TestPromotionCreateDropsForeignScopeSets(t *testing.T) {
	svc := NewPromotionService(newFakePromotionRepo())
	in := validInput()
	in.CategoryIDs = []uint{1}
	in.ProductIDs = []uint{2}
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, p.Categories)
	assert.Empty(t, p.Products)
}

func TestPromotionCreateRejectsEndBeforeStart(t *testing.T) {
	svc := NewPromotionService(newFakePromotionRepo())
	in := validInput()
	end := in.StartDate.Add(-time.Hour)
	in.EndDate = &end
	_, err := svc.Create(context.Background(), in)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestPromotionUpdateNotFound(t *testing.T) {
	svc := NewPromotionService(newFakePromotionRepo())
	_, err := svc.Update(context.Background(), 42, validInput())
	assert.Equal(t, KindNotFound, KindOf(err))
}
