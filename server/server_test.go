package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"netrunner/application"
	"netrunner/domain/catalog"
	"netrunner/domain/entities"
	"netrunner/domain/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// stubExecutor scripts responses for the transport layer tests
type stubExecutor struct {
	catalog *catalog.Catalog

	executeOutcome *entities.Outcome
	executeErr     error
	lastTraceID    string
	lastCommandID  string
	lastPlayerID   string

	player    *entities.Player
	unlocked  entities.UnlockSet
	profErr   error
	unlock    *entities.CommandUnlock
	unlockErr error
}

func (s *stubExecutor) ExecuteCommand(ctx context.Context, playerID, commandID, traceID string) (*entities.Outcome, error) {
	s.lastPlayerID = playerID
	s.lastCommandID = commandID
	s.lastTraceID = traceID
	if s.executeErr != nil {
		return nil, s.executeErr
	}
	return s.executeOutcome, nil
}

func (s *stubExecutor) PurchaseUnlock(ctx context.Context, playerID, commandID string) (*entities.CommandUnlock, error) {
	if s.unlockErr != nil {
		return nil, s.unlockErr
	}
	return s.unlock, nil
}

func (s *stubExecutor) EnsurePlayer(ctx context.Context, playerID, handle string) (*entities.Player, error) {
	if s.profErr != nil {
		return nil, s.profErr
	}
	if s.player == nil {
		s.player = &entities.Player{ID: playerID, Handle: handle, Level: 1}
		s.unlocked = entities.UnlockSet{}
	}
	return s.player, nil
}

func (s *stubExecutor) GetProfile(ctx context.Context, playerID string) (*entities.Player, entities.UnlockSet, error) {
	if s.profErr != nil {
		return nil, nil, s.profErr
	}
	if s.player == nil {
		return nil, nil, fmt.Errorf("%w: %s", services.ErrUnknownPlayer, playerID)
	}
	return s.player, s.unlocked, nil
}

func (s *stubExecutor) Catalog() *catalog.Catalog {
	return s.catalog
}

func newStubExecutor(t *testing.T) *stubExecutor {
	t.Helper()
	cat, err := catalog.New(catalog.DefaultDefinitions())
	require.NoError(t, err)
	return &stubExecutor{catalog: cat}
}

func signToken(t *testing.T, playerID, handle string) string {
	t.Helper()
	claims := sessionClaims{
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.ContentLength = int64(buf.Len())
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	srv := New(":0", testSecret, newStubExecutor(t))

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Execute_RequiresAuth(t *testing.T) {
	srv := New(":0", testSecret, newStubExecutor(t))

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", "", executeRequest{CommandID: "phish"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeUnauthenticated, resp.Error.Code)
}

func TestServer_Execute_RejectsForgedToken(t *testing.T) {
	srv := New(":0", testSecret, newStubExecutor(t))

	claims := jwt.RegisteredClaims{Subject: "player-1"}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", forged, executeRequest{CommandID: "phish"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_Execute_Success(t *testing.T) {
	stub := newStubExecutor(t)
	nextReady := time.Date(2026, 3, 14, 12, 0, 12, 0, time.UTC)
	stub.executeOutcome = &entities.Outcome{
		TraceID:        "trace-1",
		CommandID:      "phish",
		OK:             true,
		Reason:         entities.ReasonSuccess,
		Delta:          3,
		NewBalance:     13,
		ExperienceGain: 10,
		NextEligibleAt: nextReady,
	}
	srv := New(":0", testSecret, stub)

	token := signToken(t, "player-1", "neo")
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", token,
		executeRequest{CommandID: "phish", TraceID: "trace-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "player-1", stub.lastPlayerID)
	assert.Equal(t, "trace-1", stub.lastTraceID)

	var resp executeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "success", resp.Reason)
	assert.Equal(t, int64(3), resp.Delta)
	assert.Equal(t, int64(13), resp.Balance)
	assert.Equal(t, "2026-03-14T12:00:12Z", resp.NextReadyAt)
}

func TestServer_Execute_ReplayBodyMatchesOriginal(t *testing.T) {
	stub := newStubExecutor(t)
	outcome := &entities.Outcome{
		TraceID:        "trace-1",
		CommandID:      "phish",
		OK:             true,
		Reason:         entities.ReasonSuccess,
		Delta:          3,
		NewBalance:     13,
		ExperienceGain: 10,
		NextEligibleAt: time.Date(2026, 3, 14, 12, 0, 12, 0, time.UTC),
	}
	stub.executeOutcome = outcome
	srv := New(":0", testSecret, stub)

	token := signToken(t, "player-1", "neo")
	first := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", token,
		executeRequest{CommandID: "phish", TraceID: "trace-1"})
	require.Equal(t, http.StatusOK, first.Code)

	// The same trace id served from the ledger returns the same bytes; the
	// caller cannot tell a replay from the original response.
	replayed := *outcome
	replayed.Replayed = true
	stub.executeOutcome = &replayed
	second := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", token,
		executeRequest{CommandID: "phish", TraceID: "trace-1"})
	require.Equal(t, http.StatusOK, second.Code)

	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.NotContains(t, second.Body.String(), "replayed")
}

func TestServer_Execute_GeneratesTraceIDWhenAbsent(t *testing.T) {
	stub := newStubExecutor(t)
	stub.executeOutcome = &entities.Outcome{TraceID: "ignored", CommandID: "phish", OK: true, Reason: entities.ReasonSuccess}
	srv := New(":0", testSecret, stub)

	token := signToken(t, "player-1", "neo")
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", token,
		executeRequest{CommandID: "phish"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, stub.lastTraceID, "server must generate a trace id")
}

func TestServer_Execute_MissingCommandID(t *testing.T) {
	srv := New(":0", testSecret, newStubExecutor(t))

	token := signToken(t, "player-1", "neo")
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", token, executeRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeInvalidArgument, resp.Error.Code)
}

func TestServer_Execute_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown command", catalog.ErrUnknownCommand, http.StatusNotFound, CodeInvalidArgument},
		{"unknown player", services.ErrUnknownPlayer, http.StatusNotFound, CodeFailedPrecondition},
		{"transaction aborted", application.ErrTransactionAborted, http.StatusServiceUnavailable, CodeUnavailable},
		{"internal", fmt.Errorf("connection refused"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubExecutor(t)
			stub.executeErr = tt.err
			srv := New(":0", testSecret, stub)

			token := signToken(t, "player-1", "neo")
			rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/command/execute", token,
				executeRequest{CommandID: "phish"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestServer_Catalog_MarksUnlockedCommands(t *testing.T) {
	stub := newStubExecutor(t)
	stub.player = &entities.Player{ID: "player-1", Handle: "neo", Level: 5}
	stub.unlocked = entities.UnlockSet{"scan-port": {}}
	srv := New(":0", testSecret, stub)

	token := signToken(t, "player-1", "neo")
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/v1/catalog", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp catalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Commands, 3)

	byID := make(map[string]catalogEntry)
	for _, entry := range resp.Commands {
		byID[entry.ID] = entry
	}
	assert.True(t, byID["phish"].Unlocked, "starter command is always unlocked")
	assert.True(t, byID["scan-port"].Unlocked, "purchased command at sufficient level")
	assert.False(t, byID["load-gitconfig-pulse"].Unlocked, "unpurchased command stays locked")
}

func TestServer_Catalog_UnknownPlayerSeesStartersOnly(t *testing.T) {
	srv := New(":0", testSecret, newStubExecutor(t))

	token := signToken(t, "new-player", "neo")
	rec := doRequest(t, srv.Handler(), http.MethodGet, "/v1/catalog", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp catalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, entry := range resp.Commands {
		if entry.ID == "phish" {
			assert.True(t, entry.Unlocked)
		} else {
			assert.False(t, entry.Unlocked)
		}
	}
}

func TestServer_Profile_CreateThenGet(t *testing.T) {
	stub := newStubExecutor(t)
	srv := New(":0", testSecret, stub)
	token := signToken(t, "player-1", "neo")

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/profile", token, createProfileRequest{})
	assert.Equal(t, http.StatusOK, rec.Code)

	var created profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "player-1", created.PlayerID)
	// Handle falls back to the token claim.
	assert.Equal(t, "neo", created.Handle)

	rec = doRequest(t, srv.Handler(), http.MethodGet, "/v1/profile", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Profile_UnknownPlayer(t *testing.T) {
	srv := New(":0", testSecret, newStubExecutor(t))
	token := signToken(t, "nobody", "neo")

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/v1/profile", token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeFailedPrecondition, resp.Error.Code)
}

func TestServer_Unlock(t *testing.T) {
	stub := newStubExecutor(t)
	stub.unlock = &entities.CommandUnlock{
		PlayerID:  "player-1",
		CommandID: "scan-port",
		Source:    entities.UnlockSourceLesson,
		CreatedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	srv := New(":0", testSecret, stub)
	token := signToken(t, "player-1", "neo")

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/unlock", token, unlockRequest{CommandID: "scan-port"})

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp unlockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scan-port", resp.CommandID)
	assert.Equal(t, "lesson", resp.Source)
}

func TestServer_Unlock_InsufficientBalance(t *testing.T) {
	stub := newStubExecutor(t)
	stub.unlockErr = services.ErrInsufficientBalance
	srv := New(":0", testSecret, stub)
	token := signToken(t, "player-1", "neo")

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/v1/unlock", token, unlockRequest{CommandID: "scan-port"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeFailedPrecondition, resp.Error.Code)
}
