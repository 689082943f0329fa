package domain

import "strings"

// Employee — сотрудник магазина. ID назначает хранилище.
type Employee struct {
	ID         int    `json:"id"`
	LastName   string `json:"lastName" validate:"required,max=200"`
	FirstName  string `json:"firstName" validate:"required,max=200"`
	Patronymic string `json:"patronymic,omitempty" validate:"max=200"`
	Age        int    `json:"age" validate:"gte=18,lte=150"`
}

// ShortName возвращает фамилию с инициалами, как в карточке сотрудника.
func (e Employee) ShortName() string {
	var b strings.Builder
	b.WriteString(e.LastName)
	if r := []rune(e.FirstName); len(r) > 0 {
		b.WriteString(" ")
		b.WriteRune(r[0])
		b.WriteString(".")
	}
	if r := []rune(e.Patronymic); len(r) > 0 {
		b.WriteRune(r[0])
		b.WriteString(".")
	}
	return b.String()
}
