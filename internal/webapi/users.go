package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/webstore/internal/addresses"
	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/dto"
)

// userField — чтение и запись одного поля пользователя. Запись меняет
// только переданную сущность, сохраняет её UpdateUser.
type userField struct {
	get func(ctx context.Context, user *domain.User) (any, error)
	set func(ctx context.Context, user *domain.User, raw json.RawMessage) error
}

func bindField[T any](
	store domain.UserStores,
	get func(domain.UserStores, context.Context, *domain.User) (T, error),
	set func(domain.UserStores, context.Context, *domain.User, T) error,
) userField {
	field := userField{
		get: func(ctx context.Context, user *domain.User) (any, error) {
			value, err := get(store, ctx, user)
			return value, err
		},
	}
	if set != nil {
		field.set = func(ctx context.Context, user *domain.User, raw json.RawMessage) error {
			var value T
			if err := json.Unmarshal(raw, &value); err != nil {
				return fmt.Errorf("%w: decode value: %v", domain.ErrMalformedData, err)
			}
			return set(store, ctx, user, value)
		}
	}
	return field
}

func userFields(store domain.UserStores) map[string]userField {
	return map[string]userField{
		addresses.FieldUserName:             bindField(store, domain.UserStores.GetUserName, domain.UserStores.SetUserName),
		addresses.FieldNormalizedUserName:   bindField(store, domain.UserStores.GetNormalizedUserName, domain.UserStores.SetNormalizedUserName),
		addresses.FieldPasswordHash:         bindField(store, domain.UserStores.GetPasswordHash, domain.UserStores.SetPasswordHash),
		addresses.FieldHasPassword:          bindField[bool](store, domain.UserStores.HasPassword, nil),
		addresses.FieldEmail:                bindField(store, domain.UserStores.GetEmail, domain.UserStores.SetEmail),
		addresses.FieldEmailConfirmed:       bindField(store, domain.UserStores.GetEmailConfirmed, domain.UserStores.SetEmailConfirmed),
		addresses.FieldNormalizedEmail:      bindField(store, domain.UserStores.GetNormalizedEmail, domain.UserStores.SetNormalizedEmail),
		addresses.FieldPhoneNumber:          bindField(store, domain.UserStores.GetPhoneNumber, domain.UserStores.SetPhoneNumber),
		addresses.FieldPhoneNumberConfirmed: bindField(store, domain.UserStores.GetPhoneNumberConfirmed, domain.UserStores.SetPhoneNumberConfirmed),
		addresses.FieldTwoFactorEnabled:     bindField(store, domain.UserStores.GetTwoFactorEnabled, domain.UserStores.SetTwoFactorEnabled),
	}
}

func (h *handlers) userRoutes(r chi.Router) {
	users := &userHandlers{handlers: h, store: h.services.Users, fields: userFields(h.services.Users)}

	r.Post("/user", users.create)
	r.Put("/user", users.update)
	r.Get("/user/{id}", users.findByID)
	r.Delete("/user/{id}", users.delete)
	r.Get("/user/name/{name}", users.findByName)
	r.Get("/user/email/{email}", users.findByEmail)
	r.Get("/user/login/{provider}/{key}", users.findByLogin)

	r.Post("/logins", users.getLogins)
	r.Post("/logins/add", users.addLogin)
	r.Post("/logins/remove", users.removeLogin)

	r.Post("/roles", users.getRoles)
	r.Post("/roles/add/{role}", users.addToRole)
	r.Post("/roles/remove/{role}", users.removeFromRole)
	r.Post("/roles/in/{role}", users.isInRole)
	r.Get("/in-role/{role}", users.usersInRole)

	r.Post("/claims", users.getClaims)
	r.Post("/claims/add", users.addClaims)
	r.Post("/claims/replace", users.replaceClaim)
	r.Post("/claims/remove", users.removeClaims)
	r.Post("/with-claim", users.usersForClaim)

	r.Post("/{field}", users.getField)
	r.Put("/{field}", users.setField)
}

type userHandlers struct {
	*handlers
	store  domain.UserStores
	fields map[string]userField
}

func (h *userHandlers) decodeUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	var user domain.User
	if err := decodeJSON(r, &user); err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return &user, true
}

// reply отвечает true либо ошибкой операции над связями пользователя.
func (h *userHandlers) reply(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, true)
}

func (h *userHandlers) create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *userHandlers) update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *userHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.store.FindUserByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if user == nil {
		writeDeleted(w, false)
		return
	}
	if err := h.store.DeleteUser(r.Context(), user); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDeleted(w, true)
}

func (h *userHandlers) found(w http.ResponseWriter, r *http.Request, user *domain.User, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFound(w, user)
}

func (h *userHandlers) findByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.store.FindUserByID(r.Context(), id)
	h.found(w, r, user, err)
}

func (h *userHandlers) findByName(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.store.FindUserByName(r.Context(), name)
	h.found(w, r, user, err)
}

func (h *userHandlers) findByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.store.FindUserByEmail(r.Context(), email)
	h.found(w, r, user, err)
}

func (h *userHandlers) findByLogin(w http.ResponseWriter, r *http.Request) {
	provider, err := pathParam(r, "provider")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	key, err := pathParam(r, "key")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.store.FindUserByLogin(r.Context(), provider, key)
	h.found(w, r, user, err)
}

func (h *userHandlers) getField(w http.ResponseWriter, r *http.Request) {
	fieldName, err := pathParam(r, "field")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	field, ok := h.fields[fieldName]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown user field"})
		return
	}
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	value, err := field.get(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (h *userHandlers) setField(w http.ResponseWriter, r *http.Request) {
	fieldName, err := pathParam(r, "field")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	field, ok := h.fields[fieldName]
	if !ok || field.set == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown user field"})
		return
	}
	var req dto.UserValueDTO[json.RawMessage]
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := field.set(r.Context(), &req.User, req.Value); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req.User)
}

func (h *userHandlers) getLogins(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	logins, err := h.store.GetLogins(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logins)
}

func (h *userHandlers) addLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginDTO
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, r, h.store.AddLogin(r.Context(), &req.User, req.Login))
}

func (h *userHandlers) removeLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.RemoveLoginDTO
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, r, h.store.RemoveLogin(r.Context(), &req.User, req.LoginProvider, req.ProviderKey))
}

func (h *userHandlers) getRoles(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	roles, err := h.store.GetRoles(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *userHandlers) addToRole(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	role, err := pathParam(r, "role")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, r, h.store.AddToRole(r.Context(), user, role))
}

func (h *userHandlers) removeFromRole(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	role, err := pathParam(r, "role")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, r, h.store.RemoveFromRole(r.Context(), user, role))
}

func (h *userHandlers) isInRole(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	role, err := pathParam(r, "role")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := h.store.IsInRole(r.Context(), user, role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *userHandlers) usersInRole(w http.ResponseWriter, r *http.Request) {
	role, err := pathParam(r, "role")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	users, err := h.store.GetUsersInRole(r.Context(), role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *userHandlers) getClaims(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	claims, err := h.store.GetClaims(r.Context(), user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *userHandlers) addClaims(w http.ResponseWriter, r *http.Request) {
	var req dto.ClaimsDTO
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, r, h.store.AddClaims(r.Context(), &req.User, req.Claims))
}

func (h *userHandlers) replaceClaim(w http.ResponseWriter, r *http.Request) {
	var req dto.ReplaceClaimDTO
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, r, h.store.ReplaceClaim(r.Context(), &req.User, req.Claim, req.NewClaim))
}

func (h *userHandlers) removeClaims(w http.ResponseWriter, r *http.Request) {
	var req dto.ClaimsDTO
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reply(w, r, h.store.RemoveClaims(r.Context(), &req.User, req.Claims))
}

func (h *userHandlers) usersForClaim(w http.ResponseWriter, r *http.Request) {
	var claim domain.Claim
	if err := decodeJSON(r, &claim); err != nil {
		h.writeError(w, r, err)
		return
	}
	users, err := h.store.GetUsersForClaim(r.Context(), claim)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
