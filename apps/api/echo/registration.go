package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
)

type registrationApi struct {
	svc registration.Service
}

func registerRegistrationAPI(g *echo.Group, admin []echo.MiddlewareFunc, svc registration.Service) {
	api := registrationApi{svc: svc}

	ag := g.Group("/admin/registrations", admin...)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
}

func (api *registrationApi) query(ctx echo.Context) error {
	filter := new(registration.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []registration.Registration{})
	}
	filter.Clean()
	filter.CreatedFrom = queryTime(ctx, "created_from")
	filter.CreatedTo = queryTime(ctx, "created_to")

	ordering := new(Ordering)
	ordering.Bind(ctx)

	regs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying registrations")
	}
	if regs == nil {
		regs = []registration.Registration{}
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *registrationApi) retrieve(ctx echo.Context) error {
	reg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reg)
}
