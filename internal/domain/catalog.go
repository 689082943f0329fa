package domain

import "github.com/shopspring/decimal"

// Section — раздел каталога, может быть вложенным.
type Section struct {
	ID       int
	Name     string
	Order    int
	ParentID *int
}

// Brand — производитель товара.
type Brand struct {
	ID    int
	Name  string
	Order int
}

// Product — товар каталога. Section и Brand заполняются хранилищем,
// когда связанная сущность загружена вместе с товаром.
type Product struct {
	ID        int
	Name      string
	Order     int
	Price     decimal.Decimal
	ImageURL  string
	SectionID int
	Section   *Section
	BrandID   *int
	Brand     *Brand
}

// ProductFilter задаёт выборку товаров. Передаётся телом POST-запроса,
// поэтому может расширяться без изменения маршрутов.
type ProductFilter struct {
	SectionID *int  `json:"sectionId,omitempty"`
	BrandID   *int  `json:"brandId,omitempty"`
	IDs       []int `json:"ids,omitempty"`
	Page      int   `json:"page,omitempty" validate:"gte=0"`
	PageSize  int   `json:"pageSize,omitempty" validate:"gte=0,lte=1000"`
}

// Match проверяет, попадает ли товар под фильтр (без учёта пагинации).
func (f *ProductFilter) Match(p Product) bool {
	if f == nil {
		return true
	}
	if f.SectionID != nil && p.SectionID != *f.SectionID {
		return false
	}
	if f.BrandID != nil && (p.BrandID == nil || *p.BrandID != *f.BrandID) {
		return false
	}
	if len(f.IDs) > 0 {
		found := false
		for _, id := range f.IDs {
			if id == p.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Paginate вырезает страницу из уже отфильтрованного списка.
func (f *ProductFilter) Paginate(products []Product) []Product {
	if f == nil || f.PageSize <= 0 {
		return products
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * f.PageSize
	if start >= len(products) {
		return []Product{}
	}
	end := start + f.PageSize
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}
