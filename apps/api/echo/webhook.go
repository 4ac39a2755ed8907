package echoapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/registration"
)

// HeaderSignature carries "t=<unix seconds>,v1=<hex hmac-sha256 of "t.body">".
const HeaderSignature = "X-Signature"

type webhookApi struct {
	svc       registration.Service
	validate  *validator.Validate
	secret    []byte
	tolerance time.Duration
	logger    core.Logger
	now       func() time.Time
}

func registerWebhookAPI(g *echo.Group, svc registration.Service, validate *validator.Validate, conf *core.Config, logger core.Logger) {
	api := webhookApi{
		svc:       svc,
		validate:  validate,
		secret:    []byte(conf.Payments.WebhookSecret),
		tolerance: conf.Payments.SignatureTolerance,
		logger:    logger,
		now:       time.Now,
	}
	g.POST("/webhooks/payments", api.payment)
}

// SignWebhookPayload returns the X-Signature header value of body sent at ts.
func SignWebhookPayload(secret string, ts time.Time, body []byte) string {
	t := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + t + ",v1=" + hex.EncodeToString(signature([]byte(secret), t, body))
}

func signature(secret []byte, t string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(t))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

func (api *webhookApi) verify(header string, body []byte) bool {
	if len(api.secret) == 0 {
		return false
	}

	var t, v1 string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			t = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	sent, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return false
	}
	if api.tolerance > 0 {
		age := api.now().Sub(time.Unix(sent, 0))
		if age > api.tolerance || age < -api.tolerance {
			return false
		}
	}
	mac, err := hex.DecodeString(v1)
	if err != nil {
		return false
	}
	return hmac.Equal(mac, signature(api.secret, t, body))
}

func (api *webhookApi) payment(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	if !api.verify(ctx.Request().Header.Get(HeaderSignature), body) {
		api.logger.Warn("rejected payment webhook", map[string]interface{}{"remote_ip": ctx.RealIP()})
		return errBadSignature
	}

	var ev registration.PaymentEvent
	if err = json.Unmarshal(body, &ev); err != nil {
		return core.NewValidationError(errors.Wrap(err, "invalid JSON body"))
	}
	if err = ev.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.ApplyPaymentEvent(ctx.Request().Context(), ev)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reg)
}
