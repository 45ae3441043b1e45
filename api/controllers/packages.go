package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/netbill/isp-billing/api/responses"
	"github.com/netbill/isp-billing/api/validators"
	"github.com/netbill/isp-billing/internal/packages"
	"github.com/netbill/isp-billing/pkg/db/models"
	"github.com/netbill/isp-billing/pkg/logger"
)

type packageRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	SpeedMbps int    `json:"speed_mbps" validate:"gt=0"`
	Price     int64  `json:"price" validate:"gt=0"`
}

type packageResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SpeedMbps int       `json:"speed_mbps"`
	Price     int64     `json:"price"`
}

func packageFromModel(p *models.ServicePackage) packageResponse {
	return packageResponse{ID: p.ID, Name: p.Name, SpeedMbps: p.SpeedMbps, Price: p.Price}
}

func (req packageRequest) input() packages.Input {
	return packages.Input{
		Name:      validators.SanitizeString(req.Name, 100),
		SpeedMbps: req.SpeedMbps,
		Price:     req.Price,
	}
}

func PackageList(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]packageResponse, 0, len(list))
		for i := range list {
			out = append(out, packageFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func PackageGet(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pkg, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, packageFromModel(pkg))
	}
}

func PackageCreate(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body packageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pkg, err := svc.Create(r.Context(), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, packageFromModel(pkg))
	}
}

func PackageUpdate(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body packageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pkg, err := svc.Update(r.Context(), id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, packageFromModel(pkg))
	}
}

// PackageDelete detaches the package from its customers before removing it.
func PackageDelete(svc packages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
