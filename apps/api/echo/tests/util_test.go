package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/Mufti-IBAK/mubeen-website-sub001/apps/api/echo"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
	emailsvc "github.com/Mufti-IBAK/mubeen-website-sub001/services/email"
	inmemdb "github.com/Mufti-IBAK/mubeen-website-sub001/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server      *echoapi.Server
	prgRepo     program.Repository
	formRepo    form.Repository
	regRepo     registration.Repository
	profileRepo profile.Repository
	mailSvc     *emailsvc.ConsoleServiceMock
}

// setup builds a server over a fresh in-memory database.
// opts may swap the repositories before the services are built.
func setup(t *testing.T, opts ...func(app *testApp)) *testApp {
	t.Helper()

	db := inmemdb.Open()
	app := &testApp{
		prgRepo:     inmemdb.NewProgramRepository(db),
		formRepo:    inmemdb.NewFormRepository(db),
		regRepo:     inmemdb.NewRegistrationRepository(db),
		profileRepo: inmemdb.NewProfileRepository(db),
		mailSvc:     emailsvc.NewConsoleServiceMock(conf),
	}
	for _, opt := range opts {
		opt(app)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)

	renderer, err := form.NewRenderer()
	if err != nil {
		t.Fatalf("form.NewRenderer() failed: %v", err)
	}

	logger := core.NopLogger{}
	prgSvc := program.NewService(app.prgRepo, logger)
	formSvc := form.NewService(app.formRepo, logger)
	app.server, err = echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		ProgramSvc:      prgSvc,
		FormSvc:         formSvc,
		RegistrationSvc: registration.NewService(app.regRepo, prgSvc, formSvc, app.mailSvc, logger, conf),
		ProfileSvc:      profile.NewService(app.profileRepo, logger),
		Renderer:        renderer,
		Validate:        validate,
		Translator:      translator,
		DisableReqLogs:  true,
	})
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	t.Cleanup(func() { _ = app.server.Close() })
	return app
}

func (app *testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newFormRequest posts form values the way a browser holding the CSRF cookie csrf does.
func newFormRequest(path string, values url.Values, csrf string) (*http.Request, *httptest.ResponseRecorder) {
	data := url.Values{echoapi.CSRFField: {csrf}}
	for k, v := range values {
		data[k] = v
	}
	req, rec := newRequest(http.MethodPost, path, []byte(data.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.AddCookie(&http.Cookie{Name: echoapi.CSRFField, Value: csrf})
	return req, rec
}

func getToken(t *testing.T, p profile.Profile) string {
	claims := echoapi.NewClaims(conf, p.ID, p.Email, p.Name, time.Hour)
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
