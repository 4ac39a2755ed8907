package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
)

type profileApi struct {
	svc      profile.Service
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, authed, admin []echo.MiddlewareFunc, svc profile.Service, validate *validator.Validate) {
	api := profileApi{svc: svc, validate: validate}

	g.GET("/me", api.me, authed...)

	ag := g.Group("/admin/profiles", admin...)
	ag.GET("", api.query)
	ag.GET("/roles", api.roles)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/roles", api.setRoles)
}

func (api *profileApi) me(ctx echo.Context) error {
	p, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) roles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, profile.Roles)
}

func (api *profileApi) query(ctx echo.Context) error {
	filter := new(profile.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []profile.Profile{})
	}
	filter.Clean()

	profiles, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) setRoles(ctx echo.Context) error {
	actor, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	target, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data profile.SetRoles
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetRoles")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	p, err := api.svc.SetRoles(ctx.Request().Context(), actor, target, data.Roles)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}
