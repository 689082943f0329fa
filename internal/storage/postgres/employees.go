package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

type employeesData struct {
	db *sql.DB
}

// NewEmployeesData создаёт PostgreSQL-реализацию EmployeesData.
func NewEmployeesData(store *Store) domain.EmployeesData {
	return &employeesData{db: store.DB()}
}

func (r *employeesData) GetAll(ctx context.Context) ([]domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, last_name, first_name, patronymic, age
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Employee, 0)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.LastName, &e.FirstName, &e.Patronymic, &e.Age); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return result, nil
}

func (r *employeesData) GetByID(ctx context.Context, id int) (*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var e domain.Employee
	err := r.db.QueryRowContext(ctx, `
		SELECT id, last_name, first_name, patronymic, age
		FROM employees
		WHERE id = $1
	`, id).Scan(&e.ID, &e.LastName, &e.FirstName, &e.Patronymic, &e.Age)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select employee: %w", err)
	}
	return &e, nil
}

func (r *employeesData) Add(ctx context.Context, employee *domain.Employee) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO employees (last_name, first_name, patronymic, age)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, employee.LastName, employee.FirstName, employee.Patronymic, employee.Age).Scan(&employee.ID)
	if err != nil {
		return 0, fmt.Errorf("insert employee: %w", err)
	}
	return employee.ID, nil
}

func (r *employeesData) Edit(ctx context.Context, employee domain.Employee) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE employees
		SET last_name = $2, first_name = $3, patronymic = $4, age = $5
		WHERE id = $1
	`, employee.ID, employee.LastName, employee.FirstName, employee.Patronymic, employee.Age)
	if err != nil {
		return false, fmt.Errorf("update employee: %w", err)
	}
	return rowsAffected(res)
}

func (r *employeesData) Delete(ctx context.Context, id int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete employee: %w", err)
	}
	return rowsAffected(res)
}

func rowsAffected(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

var _ domain.EmployeesData = (*employeesData)(nil)
