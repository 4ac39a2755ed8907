package inmemdb

import (
	"sync"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
)

type (
	// DB keeps every table in memory. It backs the tests and a database-less dev server.
	DB struct {
		program      *programTable
		form         *formTable
		registration *registrationTable
		profile      *profileTable
	}

	programTable struct {
		sync.RWMutex
		table map[string]*program.Program
	}

	formTable struct {
		sync.RWMutex
		table map[form.Key]*form.Document
	}

	registrationTable struct {
		sync.RWMutex
		table map[string]*registration.Registration
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*profile.Profile
	}
)

func Open() *DB {
	return &DB{
		program:      &programTable{table: make(map[string]*program.Program)},
		form:         &formTable{table: make(map[form.Key]*form.Document)},
		registration: &registrationTable{table: make(map[string]*registration.Registration)},
		profile:      &profileTable{table: make(map[string]*profile.Profile)},
	}
}
