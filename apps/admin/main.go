package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	logsvc "github.com/Mufti-IBAK/mubeen-website-sub001/services/logger"
	"github.com/Mufti-IBAK/mubeen-website-sub001/storage/database"
	sqlxrepos "github.com/Mufti-IBAK/mubeen-website-sub001/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(conf.IsProd())

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         db.DB,
		programSvc: program.NewService(sqlxrepos.NewProgramRepository(db), logger),
		formSvc:    form.NewService(sqlxrepos.NewFormRepository(db), logger),
		profileSvc: profile.NewService(sqlxrepos.NewProfileRepository(db), logger),
		validate:   validate,
		logger:     logger,
		in:         os.Stdin,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)

	_ = db.Close()
	logger.Sync()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
