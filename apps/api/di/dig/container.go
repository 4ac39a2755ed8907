package dig_container

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/Mufti-IBAK/mubeen-website-sub001/apps/api/echo"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
	emailsvc "github.com/Mufti-IBAK/mubeen-website-sub001/services/email"
	logsvc "github.com/Mufti-IBAK/mubeen-website-sub001/services/logger"
	"github.com/Mufti-IBAK/mubeen-website-sub001/storage/database"
	sqlxrepos "github.com/Mufti-IBAK/mubeen-website-sub001/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type ServerParams struct {
	dig.In
	Conf            *core.Config
	Logger          core.Logger
	ProgramSvc      program.Service
	FormSvc         form.Service
	RegistrationSvc registration.Service
	ProfileSvc      profile.Service
	Renderer        *form.Renderer
	Validate        *validator.Validate
	Translator      ut.Translator
}

func newZapLogger(conf *core.Config) *zap.Logger {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("building zap logger: %v", err)
	}
	return zl.With(zap.String("app", conf.AppName), zap.String("env", conf.Env))
}

func newLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newServer(p ServerParams) (*echoapi.Server, error) {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		ProgramSvc:      p.ProgramSvc,
		FormSvc:         p.FormSvc,
		RegistrationSvc: p.RegistrationSvc,
		ProfileSvc:      p.ProfileSvc,
		Renderer:        p.Renderer,
		Validate:        p.Validate,
		Translator:      p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZapLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))

	// repositories
	must(c.Provide(sqlxrepos.NewProgramRepository))
	must(c.Provide(sqlxrepos.NewFormRepository))
	must(c.Provide(sqlxrepos.NewRegistrationRepository))
	must(c.Provide(sqlxrepos.NewProfileRepository))

	// services
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(form.NewRenderer))
	must(c.Provide(program.NewService))
	must(c.Provide(form.NewService))
	must(c.Provide(registration.NewService))
	must(c.Provide(profile.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
