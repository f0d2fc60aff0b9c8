package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/Dan9191/construction-accounting/internal/models"
	"github.com/Dan9191/construction-accounting/internal/service"
)

type propertyRequest struct {
	PropertyNo       string                `json:"property_no"`
	Title            string                `json:"title"`
	Type             models.PropertyType   `json:"type"`
	Status           models.PropertyStatus `json:"status"`
	Address          string                `json:"address"`
	City             string                `json:"city"`
	District         string                `json:"district"`
	PostalCode       string                `json:"postal_code"`
	Area             *decimal.Decimal      `json:"area"`
	ConstructionYear *int                  `json:"construction_year"`
	Features         map[string]string     `json:"features"`
	PurchasePrice    *decimal.Decimal      `json:"purchase_price"`
	CurrentValue     *decimal.Decimal      `json:"current_value"`
	MonthlyRent      *decimal.Decimal      `json:"monthly_rent"`
}

type updatePropertyRequest struct {
	Title            *string                `json:"title"`
	Type             *models.PropertyType   `json:"type"`
	Status           *models.PropertyStatus `json:"status"`
	Address          *string                `json:"address"`
	City             *string                `json:"city"`
	District         *string                `json:"district"`
	PostalCode       *string                `json:"postal_code"`
	Area             *decimal.Decimal       `json:"area"`
	ConstructionYear *int                   `json:"construction_year"`
	Features         map[string]string      `json:"features"`
	PurchasePrice    *decimal.Decimal       `json:"purchase_price"`
	CurrentValue     *decimal.Decimal       `json:"current_value"`
	MonthlyRent      *decimal.Decimal       `json:"monthly_rent"`
}

type deedRequest struct {
	DeedNo           string               `json:"deed_no"`
	RegistrationDate Date                 `json:"registration_date"`
	OwnershipType    models.OwnershipType `json:"ownership_type"`
	OwnerName        string               `json:"owner_name"`
	OwnerIDNumber    string               `json:"owner_id_number"`
	ShareRatio       *decimal.Decimal     `json:"share_ratio"`
	PurchasePrice    *decimal.Decimal     `json:"purchase_price"`
	Notes            string               `json:"notes"`
	IsActive         *bool                `json:"is_active"`
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req propertyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Properties.CreateProperty(r.Context(), service.PropertyRequest(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.svc.Properties.ListProperties(r.Context(), models.PropertyStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Properties.GetProperty(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetPropertyByNo(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Properties.GetPropertyByNo(r.Context(), mux.Vars(r)["no"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req updatePropertyRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.svc.Properties.UpdateProperty(r.Context(), id, service.UpdatePropertyRequest(req))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Properties.DeleteProperty(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateDeed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req deedRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := h.svc.Properties.CreateDeed(r.Context(), id, service.DeedRequest{
		DeedNo:           req.DeedNo,
		RegistrationDate: req.RegistrationDate.Time,
		OwnershipType:    req.OwnershipType,
		OwnerName:        req.OwnerName,
		OwnerIDNumber:    req.OwnerIDNumber,
		ShareRatio:       req.ShareRatio,
		PurchasePrice:    req.PurchasePrice,
		Notes:            req.Notes,
		IsActive:         req.IsActive,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) ListDeeds(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"
	deeds, err := h.svc.Properties.ListDeeds(r.Context(), id, activeOnly)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deeds)
}

func (h *Handler) ValueHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	history, err := h.svc.Properties.ValueHistory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
