package webapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/dto"
)

func (h *handlers) employeeRoutes(r chi.Router) {
	r.Get("/", h.getEmployees)
	r.Post("/", h.addEmployee)
	r.Put("/", h.editEmployee)
	r.Get("/{id}", h.getEmployee)
	r.Delete("/{id}", h.deleteEmployee)
}

func (h *handlers) getEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.services.Employees.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *handlers) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	employee, err := h.services.Employees.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeFound(w, employee)
}

func (h *handlers) addEmployee(w http.ResponseWriter, r *http.Request) {
	var employee domain.Employee
	if err := decodeJSON(r, &employee); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := dto.Validate(employee); err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.services.Employees.Add(r.Context(), &employee); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *handlers) editEmployee(w http.ResponseWriter, r *http.Request) {
	var employee domain.Employee
	if err := decodeJSON(r, &employee); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := dto.Validate(employee); err != nil {
		h.writeError(w, r, err)
		return
	}
	ok, err := h.services.Employees.Edit(r.Context(), employee)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *handlers) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	deleted, err := h.services.Employees.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeDeleted(w, deleted)
}

func (h *handlers) productRoutes(r chi.Router) {
	r.Get("/sections", h.getSections)
	r.Get("/sections/{id}", h.getSection)
	r.Get("/brands", h.getBrands)
	r.Get("/brands/{id}", h.getBrand)
	r.Post("/", h.getProducts)
	r.Post("/new", h.createProduct)
	r.Get("/{id}", h.getProduct)
}

func (h *handlers) getSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.services.Products.GetSections(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SectionsToDTO(sections))
}

func (h *handlers) getSection(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	section, err := h.services.Products.GetSectionByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if section == nil {
		writeFound[dto.SectionDTO](w, nil)
		return
	}
	out := dto.SectionToDTO(*section)
	writeFound(w, &out)
}

func (h *handlers) getBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.services.Products.GetBrands(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BrandsToDTO(brands))
}

func (h *handlers) getBrand(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	brand, err := h.services.Products.GetBrandByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if brand == nil {
		writeFound[dto.BrandDTO](w, nil)
		return
	}
	out := dto.BrandToDTO(*brand)
	writeFound(w, &out)
}

// getProducts принимает фильтр телом запроса; пустое тело — без фильтра.
func (h *handlers) getProducts(w http.ResponseWriter, r *http.Request) {
	var filter domain.ProductFilter
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &filter); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	if err := dto.Validate(filter); err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.services.Products.GetProducts(r.Context(), &filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ProductsToDTO(products))
}

func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := h.services.Products.GetProductByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if product == nil {
		writeFound[dto.ProductDTO](w, nil)
		return
	}
	out := dto.ProductToDTO(*product)
	writeFound(w, &out)
}

func (h *handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductDTO
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	product, err := h.services.Products.CreateProduct(r.Context(), req.Name, req.Order, req.Price, req.ImageURL, req.Section, req.Brand)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ProductToDTO(*product))
}
