package response

import (
	"context"
	"errors"
	"net/http"
	"testing"

	json "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/curaious/timesheet/internal/perrors"
)

type envelope struct {
	Error        bool              `json:"error"`
	Message      string            `json:"message"`
	Status       int               `json:"status"`
	Data         map[string]string `json:"data"`
	ErrorDetails *struct {
		Error string `json:"error"`
	} `json:"errorDetails"`
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestWriteOK(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	NewResponse(context.Background(), "done", map[string]string{"k": "v"}).Write(ctx)

	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))

	env := decode(t, ctx)
	assert.False(t, env.Error)
	assert.Equal(t, "done", env.Message)
	assert.Equal(t, "v", env.Data["k"])
	assert.Nil(t, env.ErrorDetails)
}

func TestWithErrorUsesErrStatus(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	err := perrors.NewErrNotFound("missing", errors.New("project not found"))
	NewResponse[any](context.Background(), "missing", nil).WithError(err).Write(ctx)

	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
	env := decode(t, ctx)
	assert.True(t, env.Error)
	assert.Equal(t, http.StatusNotFound, env.Status)
	require.NotNil(t, env.ErrorDetails)
	assert.Equal(t, "project not found", env.ErrorDetails.Error)
}

func TestWithErrorDefaultsToInternal(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	NewResponse[any](context.Background(), "boom", nil).WithError(errors.New("db down")).Write(ctx)

	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Equal(t, "db down", decode(t, ctx).ErrorDetails.Error)
}
