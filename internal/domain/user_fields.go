package domain

import "context"

// UserFields реализует геттеры и сеттеры полей пользователя, общие для
// всех хранилищ: они меняют только переданную сущность, а сохраняет её
// UserStore.UpdateUser. Встраивается в реализации UserStores.
type UserFields struct{}

func (UserFields) GetUserName(_ context.Context, user *User) (string, error) {
	return user.UserName, nil
}

func (UserFields) SetUserName(_ context.Context, user *User, name string) error {
	user.UserName = name
	return nil
}

func (UserFields) GetNormalizedUserName(_ context.Context, user *User) (string, error) {
	return user.NormalizedUserName, nil
}

func (UserFields) SetNormalizedUserName(_ context.Context, user *User, name string) error {
	user.NormalizedUserName = name
	return nil
}

func (UserFields) GetPasswordHash(_ context.Context, user *User) (string, error) {
	return user.PasswordHash, nil
}

func (UserFields) SetPasswordHash(_ context.Context, user *User, hash string) error {
	user.PasswordHash = hash
	return nil
}

func (UserFields) HasPassword(_ context.Context, user *User) (bool, error) {
	return user.PasswordHash != "", nil
}

func (UserFields) GetEmail(_ context.Context, user *User) (string, error) {
	return user.Email, nil
}

func (UserFields) SetEmail(_ context.Context, user *User, email string) error {
	user.Email = email
	return nil
}

func (UserFields) GetEmailConfirmed(_ context.Context, user *User) (bool, error) {
	return user.EmailConfirmed, nil
}

func (UserFields) SetEmailConfirmed(_ context.Context, user *User, confirmed bool) error {
	user.EmailConfirmed = confirmed
	return nil
}

func (UserFields) GetNormalizedEmail(_ context.Context, user *User) (string, error) {
	return user.NormalizedEmail, nil
}

func (UserFields) SetNormalizedEmail(_ context.Context, user *User, email string) error {
	user.NormalizedEmail = email
	return nil
}

func (UserFields) GetPhoneNumber(_ context.Context, user *User) (string, error) {
	return user.PhoneNumber, nil
}

func (UserFields) SetPhoneNumber(_ context.Context, user *User, phone string) error {
	user.PhoneNumber = phone
	return nil
}

func (UserFields) GetPhoneNumberConfirmed(_ context.Context, user *User) (bool, error) {
	return user.PhoneNumberConfirmed, nil
}

func (UserFields) SetPhoneNumberConfirmed(_ context.Context, user *User, confirmed bool) error {
	user.PhoneNumberConfirmed = confirmed
	return nil
}

func (UserFields) GetTwoFactorEnabled(_ context.Context, user *User) (bool, error) {
	return user.TwoFactorEnabled, nil
}

func (UserFields) SetTwoFactorEnabled(_ context.Context, user *User, enabled bool) error {
	user.TwoFactorEnabled = enabled
	return nil
}
