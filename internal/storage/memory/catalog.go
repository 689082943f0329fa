package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// ProductData — in-memory каталог.
type ProductData struct {
	mu            sync.RWMutex
	sections      map[int]domain.Section
	brands        map[int]domain.Brand
	products      map[int]domain.Product
	nextSectionID int
	nextBrandID   int
	nextProductID int
}

var _ domain.ProductData = (*ProductData)(nil)

// NewProductData создаёт каталог из начальных данных.
func NewProductData(sections []domain.Section, brands []domain.Brand, products []domain.Product) *ProductData {
	d := &ProductData{
		sections:      make(map[int]domain.Section, len(sections)),
		brands:        make(map[int]domain.Brand, len(brands)),
		products:      make(map[int]domain.Product, len(products)),
		nextSectionID: 1,
		nextBrandID:   1,
		nextProductID: 1,
	}
	for _, s := range sections {
		d.sections[s.ID] = s
		d.nextSectionID = max(d.nextSectionID, s.ID+1)
	}
	for _, b := range brands {
		d.brands[b.ID] = b
		d.nextBrandID = max(d.nextBrandID, b.ID+1)
	}
	for _, p := range products {
		p.Section, p.Brand = nil, nil
		d.products[p.ID] = p
		d.nextProductID = max(d.nextProductID, p.ID+1)
	}
	return d
}

// NewSeededProductData создаёт каталог с демонстрационными данными.
func NewSeededProductData() *ProductData {
	return NewProductData(SeedSections(), SeedBrands(), SeedProducts())
}

func (d *ProductData) GetSections(_ context.Context) ([]domain.Section, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Section, 0, len(d.sections))
	for _, s := range d.sections {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (d *ProductData) GetSectionByID(_ context.Context, id int) (*domain.Section, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.sections[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (d *ProductData) GetBrands(_ context.Context) ([]domain.Brand, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Brand, 0, len(d.brands))
	for _, b := range d.brands {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (d *ProductData) GetBrandByID(_ context.Context, id int) (*domain.Brand, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	b, ok := d.brands[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// GetProducts возвращает товары, подходящие под фильтр, в порядке Order.
func (d *ProductData) GetProducts(_ context.Context, filter *domain.ProductFilter) ([]domain.Product, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]domain.Product, 0, len(d.products))
	for _, p := range d.products {
		if filter.Match(p) {
			result = append(result, d.withRelations(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID < result[j].ID
	})
	return filter.Paginate(result), nil
}

func (d *ProductData) GetProductByID(_ context.Context, id int) (*domain.Product, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.products[id]
	if !ok {
		return nil, nil
	}
	p = d.withRelations(p)
	return &p, nil
}

// CreateProduct находит раздел и бренд по имени без учёта регистра,
// создавая отсутствующие, и добавляет товар.
func (d *ProductData) CreateProduct(_ context.Context, name string, order int, price decimal.Decimal, imageURL, section, brand string) (*domain.Product, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := domain.Product{
		ID:        d.nextProductID,
		Name:      name,
		Order:     order,
		Price:     price,
		ImageURL:  imageURL,
		SectionID: d.sectionByNameLocked(section).ID,
	}
	if strings.TrimSpace(brand) != "" {
		p.BrandID = ptr(d.brandByNameLocked(brand).ID)
	}
	d.nextProductID++
	d.products[p.ID] = p

	p = d.withRelations(p)
	return &p, nil
}

func (d *ProductData) sectionByNameLocked(name string) domain.Section {
	for _, s := range d.sections {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	s := domain.Section{ID: d.nextSectionID, Name: name}
	d.nextSectionID++
	d.sections[s.ID] = s
	return s
}

func (d *ProductData) brandByNameLocked(name string) domain.Brand {
	for _, b := range d.brands {
		if strings.EqualFold(b.Name, name) {
			return b
		}
	}
	b := domain.Brand{ID: d.nextBrandID, Name: name}
	d.nextBrandID++
	d.brands[b.ID] = b
	return b
}

func (d *ProductData) withRelations(p domain.Product) domain.Product {
	if s, ok := d.sections[p.SectionID]; ok {
		p.Section = &s
	}
	if p.BrandID != nil {
		id := *p.BrandID
		p.BrandID = &id
		if b, ok := d.brands[id]; ok {
			p.Brand = &b
		}
	}
	return p
}
