package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

const productSelect = `
	SELECT p.id, p.name, p.sort_order, p.price, p.image_url,
	       p.section_id, p.brand_id,
	       s.name, s.sort_order, s.parent_id,
	       b.name, b.sort_order
	FROM products p
	JOIN sections s ON s.id = p.section_id
	LEFT JOIN brands b ON b.id = p.brand_id`

type productData struct {
	db *sql.DB
}

// NewProductData создаёт PostgreSQL-реализацию каталога.
func NewProductData(store *Store) domain.ProductData {
	return &productData{db: store.DB()}
}

func (r *productData) GetSections(ctx context.Context) ([]domain.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, sort_order, parent_id
		FROM sections
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Section, 0)
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return result, nil
}

func (r *productData) GetSectionByID(ctx context.Context, id int) (*domain.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	s, err := scanSection(r.db.QueryRowContext(ctx, `
		SELECT id, name, sort_order, parent_id
		FROM sections
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *productData) GetBrands(ctx context.Context) ([]domain.Brand, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, sort_order
		FROM brands
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Brand, 0)
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Order); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate brands: %w", err)
	}
	return result, nil
}

func (r *productData) GetBrandByID(ctx context.Context, id int) (*domain.Brand, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var b domain.Brand
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, sort_order
		FROM brands
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select brand: %w", err)
	}
	return &b, nil
}

// GetProducts строит выборку по фильтру; страница режется на стороне БД.
func (r *productData) GetProducts(ctx context.Context, filter *domain.ProductFilter) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args := buildProductQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return result, nil
}

func (r *productData) GetProductByID(ctx context.Context, id int) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// CreateProduct в одной транзакции находит или создаёт раздел и бренд
// по имени (без учёта регистра) и вставляет товар.
func (r *productData) CreateProduct(ctx context.Context, name string, order int, price decimal.Decimal, imageURL, section, brand string) (*domain.Product, error) {
	txCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var productID int
	err := withTx(txCtx, r.db, func(tx *sql.Tx) error {
		sectionID, err := findOrCreateNamed(txCtx, tx, "sections", section)
		if err != nil {
			return err
		}

		var brandID sql.NullInt64
		if strings.TrimSpace(brand) != "" {
			id, err := findOrCreateNamed(txCtx, tx, "brands", brand)
			if err != nil {
				return err
			}
			brandID = sql.NullInt64{Int64: int64(id), Valid: true}
		}

		if err := tx.QueryRowContext(txCtx, `
			INSERT INTO products (name, sort_order, price, image_url, section_id, brand_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, name, order, price, imageURL, sectionID, brandID).Scan(&productID); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetProductByID(ctx, productID)
}

// findOrCreateNamed работает только с таблицами sections и brands.
func findOrCreateNamed(ctx context.Context, tx *sql.Tx, table, name string) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE LOWER(name) = LOWER($1)`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("find %s %q: %w", table, name, err)
	}
	if err := tx.QueryRowContext(ctx, `INSERT INTO `+table+` (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s %q: %w", table, name, err)
	}
	return id, nil
}

func buildProductQuery(filter *domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.SectionID != nil {
			conds = append(conds, "p.section_id = "+arg(*filter.SectionID))
		}
		if filter.BrandID != nil {
			conds = append(conds, "p.brand_id = "+arg(*filter.BrandID))
		}
		if len(filter.IDs) > 0 {
			conds = append(conds, "p.id = ANY("+arg(filter.IDs)+")")
		}
	}

	var b strings.Builder
	b.WriteString(productSelect)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY p.sort_order, p.id")

	if filter != nil && filter.PageSize > 0 {
		page := max(filter.Page, 1)
		b.WriteString(" LIMIT " + arg(filter.PageSize))
		b.WriteString(" OFFSET " + arg((page-1)*filter.PageSize))
	}
	return b.String(), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSection(row rowScanner) (domain.Section, error) {
	var (
		s        domain.Section
		parentID sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Order, &parentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Section{}, err
		}
		return domain.Section{}, fmt.Errorf("scan section: %w", err)
	}
	s.ParentID = nullIntPtr(parentID)
	return s, nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p          domain.Product
		section    domain.Section
		parentID   sql.NullInt64
		brandID    sql.NullInt64
		brandName  sql.NullString
		brandOrder sql.NullInt64
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Order, &p.Price, &p.ImageURL,
		&p.SectionID, &brandID,
		&section.Name, &section.Order, &parentID,
		&brandName, &brandOrder,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}

	section.ID = p.SectionID
	section.ParentID = nullIntPtr(parentID)
	p.Section = &section

	p.BrandID = nullIntPtr(brandID)
	if p.BrandID != nil && brandName.Valid {
		p.Brand = &domain.Brand{ID: *p.BrandID, Name: brandName.String, Order: int(brandOrder.Int64)}
	}
	return p, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	id := int(v.Int64)
	return &id
}

var _ domain.ProductData = (*productData)(nil)
