package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
)

const contextProgramKey = "program"

var errPrgNotFoundInCtx = errors.New("program object not found in echo.Context")

type programApi struct {
	svc      program.Service
	validate *validator.Validate
}

func registerProgramAPI(g *echo.Group, admin []echo.MiddlewareFunc, svc program.Service, validate *validator.Validate) {
	api := programApi{svc: svc, validate: validate}

	// public catalog
	pg := g.Group("/programs")
	pg.GET("", api.queryPublished)
	pg.GET("/:id", api.retrieve, programMiddleware(svc, true))

	// admin endpoints
	ag := g.Group("/admin/programs", admin...)
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.DELETE("", api.destroyMultiple)

	dg := ag.Group("/:id", programMiddleware(svc, false))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *programApi) queryPublished(ctx echo.Context) error {
	filter := new(program.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []program.Program{})
	}
	filter.Clean()
	published := true
	filter.Published = &published
	return api.list(ctx, filter)
}

func (api *programApi) query(ctx echo.Context) error {
	filter := new(program.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []program.Program{})
	}
	filter.Clean()
	filter.Published = queryBool(ctx, "published")
	return api.list(ctx, filter)
}

func (api *programApi) list(ctx echo.Context, filter *program.QueryFilter) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	prgs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if prgs == nil {
		prgs = []program.Program{}
	}
	return ctx.JSON(http.StatusOK, prgs)
}

func (api *programApi) create(ctx echo.Context) error {
	var data program.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	prg, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prg)
}

func (api *programApi) retrieve(ctx echo.Context) error {
	prg, ok := ctx.Get(contextProgramKey).(program.Program)
	if !ok {
		return errors.Wrap(errPrgNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, prg)
}

func (api *programApi) update(ctx echo.Context) error {
	prg, ok := ctx.Get(contextProgramKey).(program.Program)
	if !ok {
		return errors.Wrap(errPrgNotFoundInCtx, "retrieving object from context")
	}

	var data program.UpdateProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgram")
	}
	if err := data.Validate(ctx.Request().Context(), prg, api.validate, api.svc); err != nil {
		return err
	}

	prg, err := api.svc.Update(ctx.Request().Context(), prg, data)
	if err != nil {
		return errors.Wrap(err, "updating program")
	}
	return ctx.JSON(http.StatusOK, prg)
}

func (api *programApi) destroy(ctx echo.Context) error {
	prg, ok := ctx.Get(contextProgramKey).(program.Program)
	if !ok {
		return errors.Wrap(errPrgNotFoundInCtx, "retrieving object from context")
	}
	if err := api.svc.Delete(ctx.Request().Context(), prg.ID); err != nil {
		return errors.Wrap(err, "deleting program")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *programApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting programs")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// programMiddleware loads the program named by the :id param, which may also be its slug.
// Visitors only see published programs.
func programMiddleware(svc program.Service, publishedOnly bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			prg, err := loadProgram(ctx, svc, ctx.Param("id"))
			if err != nil {
				return err
			}
			if publishedOnly && !prg.IsPublished {
				return errHttpNotFound
			}
			ctx.Set(contextProgramKey, prg)
			return next(ctx)
		}
	}
}

func loadProgram(ctx echo.Context, svc program.Service, ref string) (program.Program, error) {
	var (
		prg program.Program
		err error
	)
	if _, uErr := uuid.Parse(ref); uErr == nil {
		prg, err = svc.GetByID(ctx.Request().Context(), ref)
	} else {
		prg, err = svc.GetBySlug(ctx.Request().Context(), ref)
	}
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			return program.Program{}, errHttpNotFound
		}
		return program.Program{}, errors.Wrap(err, "finding program")
	}
	return prg, nil
}
