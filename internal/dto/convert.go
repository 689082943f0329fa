package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// SectionToDTO преобразует раздел в форму для передачи.
func SectionToDTO(s domain.Section) SectionDTO {
	return SectionDTO{ID: s.ID, Name: s.Name, Order: s.Order, ParentID: copyInt(s.ParentID)}
}

// SectionFromDTO восстанавливает раздел.
func SectionFromDTO(d SectionDTO) domain.Section {
	return domain.Section{ID: d.ID, Name: d.Name, Order: d.Order, ParentID: copyInt(d.ParentID)}
}

// SectionsToDTO преобразует список разделов.
func SectionsToDTO(sections []domain.Section) []SectionDTO {
	out := make([]SectionDTO, 0, len(sections))
	for _, s := range sections {
		out = append(out, SectionToDTO(s))
	}
	return out
}

// SectionsFromDTO восстанавливает список разделов.
func SectionsFromDTO(items []SectionDTO) []domain.Section {
	out := make([]domain.Section, 0, len(items))
	for _, d := range items {
		out = append(out, SectionFromDTO(d))
	}
	return out
}

// BrandToDTO преобразует бренд в форму для передачи.
func BrandToDTO(b domain.Brand) BrandDTO {
	return BrandDTO{ID: b.ID, Name: b.Name, Order: b.Order}
}

// BrandFromDTO восстанавливает бренд.
func BrandFromDTO(d BrandDTO) domain.Brand {
	return domain.Brand{ID: d.ID, Name: d.Name, Order: d.Order}
}

// BrandsToDTO преобразует список брендов.
func BrandsToDTO(brands []domain.Brand) []BrandDTO {
	out := make([]BrandDTO, 0, len(brands))
	for _, b := range brands {
		out = append(out, BrandToDTO(b))
	}
	return out
}

// BrandsFromDTO восстанавливает список брендов.
func BrandsFromDTO(items []BrandDTO) []domain.Brand {
	out := make([]domain.Brand, 0, len(items))
	for _, d := range items {
		out = append(out, BrandFromDTO(d))
	}
	return out
}

// ProductToDTO преобразует товар вместе со связанными разделом и брендом.
func ProductToDTO(p domain.Product) ProductDTO {
	d := ProductDTO{
		ID:        p.ID,
		Name:      p.Name,
		Order:     p.Order,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		SectionID: p.SectionID,
		BrandID:   copyInt(p.BrandID),
	}
	if p.Section != nil {
		s := SectionToDTO(*p.Section)
		d.Section = &s
	}
	if p.Brand != nil {
		b := BrandToDTO(*p.Brand)
		d.Brand = &b
	}
	return d
}

// ProductFromDTO восстанавливает товар. Отрицательная цена считается
// повреждёнными данными.
func ProductFromDTO(d ProductDTO) (domain.Product, error) {
	if d.Price.IsNegative() {
		return domain.Product{}, fmt.Errorf("%w: product %d has negative price %s", domain.ErrMalformedData, d.ID, d.Price)
	}
	p := domain.Product{
		ID:        d.ID,
		Name:      d.Name,
		Order:     d.Order,
		Price:     d.Price,
		ImageURL:  d.ImageURL,
		SectionID: d.SectionID,
		BrandID:   copyInt(d.BrandID),
	}
	if d.Section != nil {
		s := SectionFromDTO(*d.Section)
		p.Section = &s
		if p.SectionID == 0 {
			p.SectionID = s.ID
		}
	}
	if d.Brand != nil {
		b := BrandFromDTO(*d.Brand)
		p.Brand = &b
		if p.BrandID == nil {
			p.BrandID = copyInt(&b.ID)
		}
	}
	return p, nil
}

// ProductsToDTO преобразует список товаров.
func ProductsToDTO(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ProductToDTO(p))
	}
	return out
}

// ProductsFromDTO восстанавливает список товаров.
func ProductsFromDTO(items []ProductDTO) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(items))
	for _, d := range items {
		p, err := ProductFromDTO(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CreateProductToDTO собирает тело запроса на создание товара.
func CreateProductToDTO(name string, order int, price decimal.Decimal, imageURL, section, brand string) CreateProductDTO {
	return CreateProductDTO{
		Name:     name,
		Order:    order,
		Price:    price,
		ImageURL: imageURL,
		Section:  section,
		Brand:    brand,
	}
}

// OrderItemToDTO преобразует позицию заказа.
func OrderItemToDTO(item domain.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Price:       item.Price,
		Quantity:    item.Quantity,
	}
}

// OrderItemFromDTO восстанавливает позицию заказа.
func OrderItemFromDTO(d OrderItemDTO) (domain.OrderItem, error) {
	if err := checkLine(d); err != nil {
		return domain.OrderItem{}, err
	}
	return domain.OrderItem{
		ID:          d.ID,
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		Price:       d.Price,
		Quantity:    d.Quantity,
	}, nil
}

// OrderToDTO преобразует заказ.
func OrderToDTO(o domain.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemToDTO(item))
	}
	return OrderDTO{
		ID:          o.ID,
		UserName:    o.UserName,
		Phone:       o.Phone,
		Address:     o.Address,
		Description: o.Description,
		Date:        o.Date,
		Items:       items,
	}
}

// OrderFromDTO восстанавливает заказ.
func OrderFromDTO(d OrderDTO) (domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, itemDTO := range d.Items {
		item, err := OrderItemFromDTO(itemDTO)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %d: %w", d.ID, err)
		}
		items = append(items, item)
	}
	return domain.Order{
		ID:          d.ID,
		UserName:    d.UserName,
		Phone:       d.Phone,
		Address:     d.Address,
		Description: d.Description,
		Date:        d.Date,
		Items:       items,
	}, nil
}

// OrdersToDTO преобразует список заказов.
func OrdersToDTO(orders []domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderToDTO(o))
	}
	return out
}

// OrdersFromDTO восстанавливает список заказов.
func OrdersFromDTO(items []OrderDTO) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(items))
	for _, d := range items {
		o, err := OrderFromDTO(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// CartToDTO превращает корзину в список позиций для создания заказа.
// Порядок строк сохраняется.
func CartToDTO(cart domain.CartView) []OrderItemDTO {
	items := make([]OrderItemDTO, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, OrderItemDTO{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       line.Price,
			Quantity:    line.Quantity,
		})
	}
	return items
}

// ToCartView восстанавливает корзину из позиций запроса.
func ToCartView(items []OrderItemDTO) (domain.CartView, error) {
	lines := make([]domain.CartLine, 0, len(items))
	for _, d := range items {
		if err := checkLine(d); err != nil {
			return domain.CartView{}, err
		}
		lines = append(lines, domain.CartLine{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Price:       d.Price,
			Quantity:    d.Quantity,
		})
	}
	return domain.CartView{Items: lines}, nil
}

func checkLine(d OrderItemDTO) error {
	if d.Quantity <= 0 {
		return fmt.Errorf("%w: product %d has quantity %d", domain.ErrMalformedData, d.ProductID, d.Quantity)
	}
	if d.Price.IsNegative() {
		return fmt.Errorf("%w: product %d has negative price %s", domain.ErrMalformedData, d.ProductID, d.Price)
	}
	return nil
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
