package echoapi

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
)

const MsgSubmissionFailed = "We could not record your submission. Please try again later."

const (
	// CSRFField is the hidden input and cookie carrying the CSRF token of the HTML pages.
	CSRFField      = "_csrf"
	csrfContextKey = "csrf"
)

type (
	formApiDeps struct {
		programSvc      program.Service
		formSvc         form.Service
		registrationSvc registration.Service
		renderer        *form.Renderer
		validator       *form.Validator
		validate        *validator.Validate
		logger          core.Logger
		secureCookies   bool
	}

	formApi struct {
		formApiDeps
	}
)

func registerFormAPI(app *echo.Echo, g *echo.Group, admin []echo.MiddlewareFunc, deps formApiDeps) {
	api := formApi{formApiDeps: deps}

	// public HTML pages
	csrf := middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + CSRFField,
		ContextKey:     csrfContextKey,
		CookieName:     CSRFField,
		CookiePath:     "/programs",
		CookieSecure:   deps.secureCookies,
		CookieHTTPOnly: true,
	})
	app.GET("/programs/:id/register", api.registerPage, csrf)
	app.GET("/programs/:id/register/:type", api.registerPage, csrf)
	app.POST("/programs/:id/register", api.registerSubmit, csrf)
	app.POST("/programs/:id/register/:type", api.registerSubmit, csrf)

	// public JSON endpoints
	pg := g.Group("/programs/:id/forms/:type", programMiddleware(deps.programSvc, true))
	pg.GET("", api.schema)
	pg.GET("/jsonschema", api.jsonSchema)
	pg.POST("/submissions", api.submit)

	// admin endpoints
	ag := g.Group("/admin/programs/:id/forms", append(admin, programMiddleware(deps.programSvc, false))...)
	ag.GET("", api.list)
	ag.GET("/:type", api.schema)
	ag.PUT("/:type", api.replace)
	ag.DELETE("/:type", api.destroy)
	ag.GET("/:type/preview", api.preview)
	ag.PUT("/:type/title", api.setTitle)
	ag.PUT("/:type/description", api.setDescription)
	ag.POST("/:type/fields", api.addField)
	ag.PATCH("/:type/fields/:field", api.updateField)
	ag.DELETE("/:type/fields/:field", api.removeField)
	ag.POST("/:type/fields/:field/move", api.moveField)
}

func contextProgram(ctx echo.Context) (program.Program, error) {
	prg, ok := ctx.Get(contextProgramKey).(program.Program)
	if !ok {
		return program.Program{}, errors.Wrap(errPrgNotFoundInCtx, "retrieving object from context")
	}
	return prg, nil
}

// formKey names the form of prg selected by the :type param, the registration form by default.
func formKey(ctx echo.Context, prg program.Program) form.Key {
	formType := strings.ToLower(strings.TrimSpace(ctx.Param("type")))
	if formType == "" {
		formType = form.DefaultFormType
	}
	return form.Key{OwnerID: prg.ID, FormType: formType}
}

// decodeJSON decodes the request body into v; an empty body leaves v untouched.
func decodeJSON(ctx echo.Context, v interface{}) error {
	err := json.NewDecoder(ctx.Request().Body).Decode(v)
	if err == nil || err == io.EOF {
		return nil
	}
	return core.NewValidationError(errors.Wrap(err, "invalid JSON body"))
}

// Public JSON

func (api *formApi) schema(ctx echo.Context) error {
	prg, err := contextProgram(ctx)
	if err != nil {
		return err
	}
	s, err := api.formSvc.Get(ctx.Request().Context(), formKey(ctx, prg))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *formApi) jsonSchema(ctx echo.Context) error {
	prg, err := contextProgram(ctx)
	if err != nil {
		return err
	}
	s, err := api.formSvc.Get(ctx.Request().Context(), formKey(ctx, prg))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, form.JSONSchema(s))
}

func (api *formApi) submit(ctx echo.Context) error {
	prg, err := contextProgram(ctx)
	if err != nil {
		return err
	}
	key := formKey(ctx, prg)
	s, err := api.formSvc.Get(ctx.Request().Context(), key)
	if err != nil {
		return err
	}

	raw := make(map[string]interface{})
	if err = decodeJSON(ctx, &raw); err != nil {
		return err
	}
	if err = form.CheckTypes(s, raw); err != nil {
		return core.NewValidationError(err)
	}

	sess := form.NewSession(key, s, form.FromJSON(s, raw), api.validator)
	conf, err := sess.Submit(ctx.Request().Context(), api.registrationSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, SubmissionResponse{Reference: conf.Reference, SubmittedAt: conf.SubmittedAt})
}

// Public HTML

// loadPublicForm returns the published program of the :id param and its requested form.
func (api *formApi) loadPublicForm(ctx echo.Context) (program.Program, form.Key, form.Schema, error) {
	prg, err := loadProgram(ctx, api.programSvc, ctx.Param("id"))
	if err != nil {
		return program.Program{}, form.Key{}, form.Schema{}, err
	}
	if !prg.IsPublished {
		return prg, form.Key{}, form.Schema{}, errHttpNotFound
	}
	key := formKey(ctx, prg)
	s, err := api.formSvc.Get(ctx.Request().Context(), key)
	return prg, key, s, err
}

func (api *formApi) registerPage(ctx echo.Context) error {
	prg, key, s, err := api.loadPublicForm(ctx)
	if err != nil {
		return api.renderUnavailable(ctx, prg, err)
	}
	sess := form.NewSession(key, s, nil, api.validator)
	return api.renderForm(ctx, http.StatusOK, prg, sess, "")
}

func (api *formApi) registerSubmit(ctx echo.Context) error {
	prg, key, s, err := api.loadPublicForm(ctx)
	if err != nil {
		return api.renderUnavailable(ctx, prg, err)
	}
	params, err := ctx.FormParams()
	if err != nil {
		return core.NewValidationError(errors.Wrap(err, "invalid form body"))
	}

	sess := form.NewSession(key, s, form.FromForm(s, params), api.validator)
	conf, err := sess.Submit(ctx.Request().Context(), api.registrationSvc)

	var invalid *form.InvalidError
	switch {
	case errors.As(err, &invalid):
		return api.renderForm(ctx, http.StatusUnprocessableEntity, prg, sess, "")
	case errors.Is(err, registration.ErrProgramClosed):
		return api.renderUnavailable(ctx, prg, err)
	case err != nil:
		api.logger.Error("submitting form "+key.String(), err)
		return api.renderForm(ctx, http.StatusServiceUnavailable, prg, sess, MsgSubmissionFailed)
	}

	return ctx.Render(http.StatusOK, "submitted", submittedPage{
		Title:     prg.Title,
		Program:   prg,
		Reference: conf.Reference,
	})
}

func (api *formApi) renderForm(ctx echo.Context, code int, prg program.Program, sess *form.Session, message string) error {
	opts := []form.RenderOption{form.WithAction(ctx.Request().URL.Path)}
	if token, ok := ctx.Get(csrfContextKey).(string); ok {
		opts = append(opts, form.WithHiddenField(CSRFField, token))
	}
	html, err := sess.Render(api.renderer, opts...)
	if err != nil {
		return errors.Wrap(err, "rendering form")
	}
	return ctx.Render(code, "register", registerPage{
		Title:   prg.Title,
		Program: prg,
		Message: message,
		Form:    template.HTML(html),
	})
}

// renderUnavailable shows the neutral unavailable block for missing programs and forms.
func (api *formApi) renderUnavailable(ctx echo.Context, prg program.Program, cause error) error {
	code, _, ok := domainStatus(cause)
	if !ok {
		if herr, isHTTP := errors.Cause(cause).(*echo.HTTPError); isHTTP && herr.Code == http.StatusNotFound {
			code, ok = http.StatusNotFound, true
		}
	}
	if !ok {
		return cause
	}

	html, err := api.renderer.RenderUnavailable("")
	if err != nil {
		return errors.Wrap(err, "rendering unavailable form")
	}
	title := prg.Title
	if title == "" {
		title = "Form not available"
	}
	return ctx.Render(code, "register", registerPage{Title: title, Program: prg, Form: template.HTML(html)})
}

// Admin

func (api *formApi) list(ctx echo.Context) error {
	prg, err := contextProgram(ctx)
	if err != nil {
		return err
	}
	docs, err := api.formSvc.List(ctx.Request().Context(), prg.ID)
	if err != nil {
		return errors.Wrap(err, "listing forms")
	}
	return ctx.JSON(http.StatusOK, docs)
}

// replace swaps the whole document; the body is JSON, or YAML when sent as such.
func (api *formApi) replace(ctx echo.Context) error {
	prg, err := contextProgram(ctx)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}

	var s form.Schema
	if strings.Contains(ctx.Request().Header.Get(echo.HeaderContentType), "yaml") {
		s, err = form.ParseYAML(body)
	} else {
		s, err = form.Parse(body)
	}
	if err != nil {
		return core.NewValidationError(err)
	}

	s, err = api.formSvc.Replace(ctx.Request().Context(), formKey(ctx, prg), s)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *formApi) destroy(ctx echo.Context) error {
	prg, err := contextProgram(ctx)
	if err != nil {
		return err
	}
	if err = api.formSvc.Delete(ctx.Request().Context(), formKey(ctx, prg)); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *formApi) preview(ctx echo.Context) error {
	prg, err := contextProgram(ctx)
	if err != nil {
		return err
	}
	s, err := api.formSvc.Get(ctx.Request().Context(), formKey(ctx, prg))
	if err != nil {
		// a form that does not exist yet previews as empty
		s = form.Schema{}
	}
	html, err := form.NewBuilder(s, nil).Preview(api.renderer)
	if err != nil {
		return errors.Wrap(err, "rendering preview")
	}
	return ctx.HTMLBlob(http.StatusOK, html)
}

// edit runs builder operations on the form of the context program.
func (api *formApi) edit(ctx echo.Context, op func(b *form.Builder)) (SchemaResponse, error) {
	prg, err := contextProgram(ctx)
	if err != nil {
		return SchemaResponse{}, err
	}
	s, changed, err := api.formSvc.Apply(ctx.Request().Context(), formKey(ctx, prg), op)
	if err != nil {
		return SchemaResponse{}, err
	}
	return SchemaResponse{Schema: s, Changed: changed}, nil
}

func (api *formApi) setTitle(ctx echo.Context) error {
	var data TitleRequest
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	res, err := api.edit(ctx, func(b *form.Builder) { b.SetTitle(data.Title) })
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *formApi) setDescription(ctx echo.Context) error {
	var data DescriptionRequest
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	res, err := api.edit(ctx, func(b *form.Builder) { b.SetDescription(data.Description) })
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// addField appends a new field; attributes sent in the body are applied to it right away.
func (api *formApi) addField(ctx echo.Context) error {
	var data AddFieldRequest
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}

	var fieldID string
	res, err := api.edit(ctx, func(b *form.Builder) {
		fieldID = b.AddField()
		if !data.IsEmpty() {
			b.UpdateField(fieldID, data.FieldPatch)
		}
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, AddFieldResponse{FieldID: fieldID, Schema: res.Schema})
}

func (api *formApi) updateField(ctx echo.Context) error {
	var patch form.FieldPatch
	if err := decodeJSON(ctx, &patch); err != nil {
		return err
	}

	fieldID := ctx.Param("field")
	var found bool
	res, err := api.edit(ctx, func(b *form.Builder) { found = b.UpdateField(fieldID, patch) })
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrap(form.ErrFieldNotFound, fieldID)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *formApi) removeField(ctx echo.Context) error {
	fieldID := ctx.Param("field")
	var found bool
	res, err := api.edit(ctx, func(b *form.Builder) { found = b.RemoveField(fieldID) })
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrap(form.ErrFieldNotFound, fieldID)
	}
	return ctx.JSON(http.StatusOK, res)
}

// moveField answers changed=false when the field already sits at the boundary.
func (api *formApi) moveField(ctx echo.Context) error {
	var data MoveFieldRequest
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	if data.Direction != form.Up && data.Direction != form.Down {
		return form.ErrInvalidDirection
	}

	fieldID := ctx.Param("field")
	var found bool
	res, err := api.edit(ctx, func(b *form.Builder) {
		if _, found = b.Schema().Field(fieldID); found {
			b.MoveField(fieldID, data.Direction)
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.Wrap(form.ErrFieldNotFound, fieldID)
	}
	return ctx.JSON(http.StatusOK, res)
}
