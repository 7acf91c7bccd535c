package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/app"
	"gestorpecas/internal/config"
	"gestorpecas/internal/dto"
	"gestorpecas/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCLI(t *testing.T) *cli {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{RequestTimeoutSeconds: 5, TxMaxAttempts: 3, SearchMaxLimit: 100}
	return &cli{
		cfg:     cfg,
		open:    func(cfg *config.Config) (*app.App, error) { return app.New(cfg, db, nil), nil },
		migrate: func(string) error { return nil },
	}
}

type result struct {
	code   int
	stdout []byte
	errEnv apierror.APIError
}

func exec(t *testing.T, c *cli, args ...string) result {
	t.Helper()
	c.started = false
	var out, errOut bytes.Buffer
	r := result{code: run(context.Background(), c, args, &out, &errOut), stdout: out.Bytes()}
	if r.code != exitOK {
		require.NoError(t, json.Unmarshal(errOut.Bytes(), &r.errEnv), errOut.String())
	}
	return r
}

func decode[T any](t *testing.T, r result) T {
	t.Helper()
	require.Equal(t, exitOK, r.code, "error: %+v", r.errEnv)
	var v T
	require.NoError(t, json.Unmarshal(r.stdout, &v))
	return v
}

func TestCLI_CatalogAndStockFlow(t *testing.T) {
	c := newTestCLI(t)

	m := decode[dto.ManufacturerResponse](t, exec(t, c, "manufacturer", "create", "Fiat"))
	assert.Equal(t, 101, m.Code)

	dup := exec(t, c, "manufacturer", "create", "fiat")
	assert.Equal(t, exitPermanent, dup.code)
	assert.Equal(t, apierror.KindDuplicateName, dup.errEnv.Kind)
	assert.False(t, dup.errEnv.Retryable)

	vm := decode[dto.VehicleModelResponse](t, exec(t, c, "model", "ensure", "-m", "101", "Palio"))
	assert.Equal(t, 1, vm.Sequence)

	p := decode[dto.PartResponse](t, exec(t, c, "part", "create",
		"-m", "101", "--model", "Palio", "--item", "Door handle", "--qty", "3",
		"--supply-cost", "12.50", "--last-purchase", "2024-03-01"))
	assert.Equal(t, "10101999", p.VariantCode)
	assert.Equal(t, 3, p.StockQuantity)
	require.NotNil(t, p.LastPurchaseDate)

	cleared := decode[dto.PartResponse](t, exec(t, c, "part", "update", "1", "--last-purchase", ""))
	assert.Nil(t, cleared.LastPurchaseDate)
	assert.Equal(t, 3, cleared.StockQuantity)

	found := decode[dto.PartResponse](t, exec(t, c, "part", "find", "10101999"))
	assert.Equal(t, p.ID, found.ID)

	moved := decode[dto.PartResponse](t, exec(t, c, "stock", "move", "1", "outflow", "5", "--note", "counter sale"))
	assert.Equal(t, -2, moved.StockQuantity)

	history := decode[dto.MovementListResponse](t, exec(t, c, "stock", "history", "1"))
	require.Len(t, history.Data, 2)
	assert.Equal(t, "outflow", history.Data[0].Kind)

	bad := exec(t, c, "stock", "move", "1", "inflow", "0")
	assert.Equal(t, exitPermanent, bad.code)
	assert.Equal(t, apierror.KindInvalidQuantity, bad.errEnv.Kind)
}

func TestCLI_KitFlow(t *testing.T) {
	c := newTestCLI(t)
	exec(t, c, "manufacturer", "create", "Fiat")
	exec(t, c, "part", "create", "-m", "101", "--model", "Palio", "--item", "Lock kit")
	exec(t, c, "part", "create", "-m", "101", "--model", "Palio", "--item", "Cylinder", "--qty", "4")

	kit := decode[dto.PartResponse](t, exec(t, c, "kit", "flag", "1", "on"))
	assert.True(t, kit.IsKit)

	edge := decode[dto.KitComponentResponse](t, exec(t, c, "kit", "add", "1", "2", "2"))
	assert.Equal(t, 2, edge.KitsCovered)

	list := decode[dto.KitComponentsResponse](t, exec(t, c, "kit", "list", "1"))
	assert.Equal(t, 2, list.Buildable)

	refused := exec(t, c, "part", "delete", "2")
	assert.Equal(t, apierror.KindReferencedByKit, refused.errEnv.Kind)

	decode[map[string]uint](t, exec(t, c, "kit", "remove", "1"))
	missing := exec(t, c, "kit", "remove", "1")
	assert.Equal(t, apierror.KindNotFound, missing.errEnv.Kind)

	self := exec(t, c, "kit", "add", "1", "1", "1")
	assert.Equal(t, apierror.KindSelfReference, self.errEnv.Kind)
}

func TestCLI_UsageErrorsArePermanent(t *testing.T) {
	c := newTestCLI(t)

	cases := [][]string{
		{"nonsense"},
		{"manufacturer", "create"},
		{"manufacturer", "get", "abc"},
		{"part", "get", "0"},
		{"part", "create", "--model", "Palio", "--item", "Hood"},
		{"part", "create", "-m", "101", "--model", "Palio", "--item", "Hood", "--supply-cost", "cheap"},
		{"stock", "move", "1", "inflow"},
		{"kit", "flag", "1", "maybe"},
		{"manufacturer", "list", "--bogus"},
	}
	for _, args := range cases {
		r := exec(t, c, args...)
		assert.Equal(t, exitPermanent, r.code, "%v", args)
		assert.Equal(t, apierror.KindValidation, r.errEnv.Kind, "%v", args)
	}
}

func TestCLI_StoreUnavailableIsRetryable(t *testing.T) {
	c := &cli{
		cfg:     &config.Config{},
		open:    func(*config.Config) (*app.App, error) { return nil, errors.New("connection refused") },
		migrate: func(string) error { return errors.New("connection refused") },
	}

	r := exec(t, c, "manufacturer", "list")
	assert.Equal(t, exitRetryable, r.code)
	assert.Equal(t, apierror.KindStorage, r.errEnv.Kind)
	assert.True(t, r.errEnv.Retryable)

	r = exec(t, c, "migrate")
	assert.Equal(t, exitRetryable, r.code)
}
