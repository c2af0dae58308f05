package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/repository"
)

type stubAccounts struct {
	lastActor string
	insertErr error
	updateErr error
	deleteErr error
}

func (s *stubAccounts) Insert(_ context.Context, actorID string, input repository.AccountInsert) (domain.Account, error) {
	s.lastActor = actorID
	if s.insertErr != nil {
		return domain.Account{}, s.insertErr
	}
	return domain.Account{ID: "acc000000001", UserID: input.UserID, Label: input.Label, Currency: "SGD"}, nil
}

func (s *stubAccounts) Update(_ context.Context, actorID, id string, _ repository.AccountPatch) (domain.Row, error) {
	s.lastActor = actorID
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return domain.Row{"label": "Wallet"}, nil
}

func (s *stubAccounts) Delete(_ context.Context, actorID, id string) (domain.Account, error) {
	s.lastActor = actorID
	if s.deleteErr != nil {
		return domain.Account{}, s.deleteErr
	}
	return domain.Account{ID: id}, nil
}

type stubUsers struct {
	registered *repository.UserInsert
}

func (s *stubUsers) Register(_ context.Context, input repository.UserInsert) (domain.User, error) {
	s.registered = &input
	return domain.User{ID: "usr000000001", ClerkID: input.ClerkID}, nil
}

func (s *stubUsers) Get(_ context.Context, idOrClerkID string) (domain.User, error) {
	return domain.User{}, &domain.NotFoundError{Entity: domain.EntityUsers, EntityID: idOrClerkID}
}

func (s *stubUsers) Update(_ context.Context, _, _ string, _ repository.UserPatch) (domain.Row, error) {
	return nil, domain.ErrEmptyPatch
}

func (s *stubUsers) Delete(_ context.Context, _, _ string) (domain.User, error) {
	return domain.User{}, nil
}

type stubChanges struct {
	history []domain.Change
}

func (s *stubChanges) GetByID(_ context.Context, changeID string) (domain.Change, error) {
	return domain.Change{}, &domain.NotFoundError{Entity: domain.EntityChanges, EntityID: changeID}
}

func (s *stubChanges) ListByEntity(_ context.Context, entity domain.EntityType, entityID string) ([]domain.Change, error) {
	return s.history, nil
}

func (s *stubChanges) StateAt(_ context.Context, _ domain.EntityType, _ string, _ int64) (domain.Row, error) {
	return domain.Row{"label": "Cash"}, nil
}

func (s *stubChanges) RenderDiff(_ context.Context, _ string) (string, error) {
	return "", nil
}

func testServer(accounts *stubAccounts, users *stubUsers, changes *stubChanges) http.Handler {
	s := NewServer(nil, nil, users, changes, accounts, nil, nil, nil, nil, nil, nil)
	return s.Router([]string{"*"})
}

func doRequest(t *testing.T, h http.Handler, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req.Header.Set(actorHeader, actor)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestInsertRequiresActorHeader(t *testing.T) {
	accounts := &stubAccounts{}
	h := testServer(accounts, &stubUsers{}, &stubChanges{})

	rec := doRequest(t, h, http.MethodPost, "/accounts/", "", repository.AccountInsert{UserID: "usr000000001", Label: "Cash"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, accounts.lastActor)
}

func TestInsertPassesActorThrough(t *testing.T) {
	accounts := &stubAccounts{}
	h := testServer(accounts, &stubUsers{}, &stubChanges{})

	rec := doRequest(t, h, http.MethodPost, "/accounts/", "usr000000001", repository.AccountInsert{UserID: "usr000000001", Label: "Cash"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "usr000000001", accounts.lastActor)

	var created domain.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "acc000000001", created.ID)
}

func TestErrorMapping(t *testing.T) {
	accounts := &stubAccounts{
		updateErr: &domain.ValidationError{Entity: domain.EntityAccounts, Field: "label", Reason: "must not be empty"},
		deleteErr: &domain.NotFoundError{Entity: domain.EntityAccounts, EntityID: "acc000000404"},
	}
	h := testServer(accounts, &stubUsers{}, &stubChanges{})

	rec := doRequest(t, h, http.MethodPatch, "/accounts/acc000000001", "usr000000001", repository.AccountPatch{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/accounts/acc000000404", "usr000000001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyPatchMapsToBadRequest(t *testing.T) {
	h := testServer(&stubAccounts{}, &stubUsers{}, &stubChanges{})

	rec := doRequest(t, h, http.MethodPatch, "/users/usr000000001", "usr000000001", repository.UserPatch{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterNeedsNoActor(t *testing.T) {
	users := &stubUsers{}
	h := testServer(&stubAccounts{}, users, &stubChanges{})

	clerkID := "clerk0000000000000000000000000xy"
	rec := doRequest(t, h, http.MethodPost, "/users/", "", repository.UserInsert{ClerkID: clerkID})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, users.registered)
	assert.Equal(t, clerkID, users.registered.ClerkID)
}

func TestHistoryRoutes(t *testing.T) {
	changes := &stubChanges{history: []domain.Change{
		{ID: "chg000000001", Entity: domain.EntityAccounts, EntityID: "acc000000001", Version: 1, Type: domain.ChangeInsert},
	}}
	h := testServer(&stubAccounts{}, &stubUsers{}, changes)

	rec := doRequest(t, h, http.MethodGet, "/history/accounts/acc000000001", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []domain.Change
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), history[0].Version)

	rec = doRequest(t, h, http.MethodGet, "/history/nonsense/acc000000001", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/history/accounts/acc000000001/state?version=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/history/accounts/acc000000001/state?version=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownJSONFieldRejected(t *testing.T) {
	h := testServer(&stubAccounts{}, &stubUsers{}, &stubChanges{})

	rec := doRequest(t, h, http.MethodPost, "/accounts/", "usr000000001", map[string]any{
		"userId": "usr000000001",
		"label":  "Cash",
		"bogus":  true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
