package basehdl

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin_backoffice/internal/common"
)

func serve(t *testing.T, path string, handler fiber.Handler, target string) (int, map[string]interface{}) {
	t.Helper()
	app := fiber.New()
	app.Get(path, handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		nil:                                  http.StatusOK,
		common.ErrNotFound:                   http.StatusNotFound,
		common.ErrLevelInUse:                 http.StatusConflict,
		common.ErrCannotDeleteDueToRoleLevel: http.StatusForbidden,
		common.ErrCannotDeleteSelf:           http.StatusForbidden,
		common.ErrTokenExpired:               http.StatusUnauthorized,
		common.ErrInvalidInput:               http.StatusBadRequest,
		errors.New("boom"):                   http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusOf(err), "%v", err)
	}
}

func TestHandleError_DomainErrorCarriesTokenAndReason(t *testing.T) {
	status, body := serve(t, "/", func(c fiber.Ctx) error {
		return HandleError(c, common.ErrEmailInUse)
	}, "/")

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "conflict", body["token"])
	assert.Equal(t, common.ReasonEmailInUse, body["reason"])
}

func TestHandleError_InfrastructureErrorIsHidden(t *testing.T) {
	status, body := serve(t, "/", func(c fiber.Ctx) error {
		return HandleError(c, errors.New("connection refused: 10.0.0.7:27017"))
	}, "/")

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal-error", body["token"])
	assert.NotContains(t, body["message"], "10.0.0.7")
}

func TestHandleResponse_Success(t *testing.T) {
	status, body := serve(t, "/", func(c fiber.Ctx) error {
		return HandleResponse(c, fiber.Map{"ok": true}, nil)
	}, "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, map[string]interface{}{"ok": true}, body["data"])
}

func TestSafeHandler_RecoversPanic(t *testing.T) {
	status, body := serve(t, "/", func(c fiber.Ctx) error {
		return SafeHandler(c, func() error {
			panic("unexpected")
		})
	}, "/")

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal-error", body["token"])
}

func TestParseObjectID(t *testing.T) {
	handler := func(c fiber.Ctx) error {
		id, err := ParseObjectID(c)
		if err != nil {
			return HandleError(c, err)
		}
		return HandleResponse(c, id.Hex(), nil)
	}

	status, body := serve(t, "/:id", handler, "/65f1c0d2e4b0a1b2c3d4e5f6")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "65f1c0d2e4b0a1b2c3d4e5f6", body["data"])

	status, _ = serve(t, "/:id", handler, "/xyz")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestActorOf_NilWhenUnauthenticated(t *testing.T) {
	status, body := serve(t, "/", func(c fiber.Ctx) error {
		return HandleResponse(c, ActorOf(c) == nil, nil)
	}, "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["data"])
}
