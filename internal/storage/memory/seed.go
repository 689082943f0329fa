package memory

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

func ptr(v int) *int { return &v }

// SeedEmployees — начальные сотрудники магазина.
func SeedEmployees() []domain.Employee {
	return []domain.Employee{
		{ID: 1, LastName: "Иванов", FirstName: "Иван", Patronymic: "Иванович", Age: 27},
		{ID: 2, LastName: "Петров", FirstName: "Пётр", Patronymic: "Петрович", Age: 31},
		{ID: 3, LastName: "Сидоров", FirstName: "Сидор", Patronymic: "Сидорович", Age: 18},
	}
}

// SeedSections — начальные разделы каталога.
func SeedSections() []domain.Section {
	return []domain.Section{
		{ID: 1, Name: "Спорт", Order: 0},
		{ID: 2, Name: "Nike", Order: 0, ParentID: ptr(1)},
		{ID: 3, Name: "Under Armour", Order: 1, ParentID: ptr(1)},
		{ID: 4, Name: "Adidas", Order: 2, ParentID: ptr(1)},
		{ID: 5, Name: "Для мужчин", Order: 1},
		{ID: 6, Name: "Fendi", Order: 0, ParentID: ptr(5)},
		{ID: 7, Name: "Guess", Order: 1, ParentID: ptr(5)},
		{ID: 8, Name: "Для женщин", Order: 2},
		{ID: 9, Name: "Dior", Order: 0, ParentID: ptr(8)},
		{ID: 10, Name: "Versace", Order: 1, ParentID: ptr(8)},
		{ID: 11, Name: "Для детей", Order: 3},
		{ID: 12, Name: "Мода", Order: 4},
		{ID: 13, Name: "Для дома", Order: 5},
		{ID: 14, Name: "Сумки", Order: 6},
		{ID: 15, Name: "Обувь", Order: 7},
	}
}

// SeedBrands — начальные бренды.
func SeedBrands() []domain.Brand {
	return []domain.Brand{
		{ID: 1, Name: "Acne", Order: 0},
		{ID: 2, Name: "Grüne Erde", Order: 1},
		{ID: 3, Name: "Albiro", Order: 2},
		{ID: 4, Name: "Ronhill", Order: 3},
		{ID: 5, Name: "Oddmolly", Order: 4},
		{ID: 6, Name: "Boudestijn", Order: 5},
		{ID: 7, Name: "Rösch creative culture", Order: 6},
	}
}

// SeedProducts — начальные товары.
func SeedProducts() []domain.Product {
	price := decimal.NewFromInt
	return []domain.Product{
		{ID: 1, Name: "Белое платье", Order: 0, Price: price(1025), ImageURL: "product1.jpg", SectionID: 2, BrandID: ptr(1)},
		{ID: 2, Name: "Розовое платье", Order: 1, Price: price(1025), ImageURL: "product2.jpg", SectionID: 2, BrandID: ptr(1)},
		{ID: 3, Name: "Красное платье", Order: 2, Price: price(1025), ImageURL: "product3.jpg", SectionID: 2, BrandID: ptr(1)},
		{ID: 4, Name: "Джинсы", Order: 3, Price: price(1025), ImageURL: "product4.jpg", SectionID: 2, BrandID: ptr(1)},
		{ID: 5, Name: "Лёгкая майка", Order: 4, Price: price(1025), ImageURL: "product5.jpg", SectionID: 2, BrandID: ptr(2)},
		{ID: 6, Name: "Лёгкое голубое поло", Order: 5, Price: price(1025), ImageURL: "product6.jpg", SectionID: 2, BrandID: ptr(1)},
		{ID: 7, Name: "Платье белое", Order: 6, Price: price(1025), ImageURL: "product7.jpg", SectionID: 2, BrandID: ptr(1)},
		{ID: 8, Name: "Костюм кролика", Order: 7, Price: price(1025), ImageURL: "product8.jpg", SectionID: 11, BrandID: ptr(1)},
		{ID: 9, Name: "Красное китайское платье", Order: 8, Price: price(1025), ImageURL: "product9.jpg", SectionID: 9, BrandID: ptr(1)},
		{ID: 10, Name: "Женские джинсы", Order: 9, Price: price(1025), ImageURL: "product10.jpg", SectionID: 9, BrandID: ptr(3)},
		{ID: 11, Name: "Джинсы женские", Order: 10, Price: price(1025), ImageURL: "product11.jpg", SectionID: 10, BrandID: ptr(3)},
		{ID: 12, Name: "Летний костюм", Order: 11, Price: price(1025), ImageURL: "product12.jpg", SectionID: 10, BrandID: ptr(3)},
	}
}
