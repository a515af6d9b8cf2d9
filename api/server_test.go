package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
	"github.com/wricardo/mcp-training/warehouse/game/session"
	"github.com/wricardo/mcp-training/warehouse/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Warehouse Operations
	MoveFunc      func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc  func(ctx context.Context, sessionID string, moves []string, opts service.BulkMoveOptions) (*service.BulkMoveResult, error)
	RunScriptFunc func(ctx context.Context, sessionID string, reset bool) (*service.RunResult, error)
	ResetFunc     func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.LevelConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.LevelConfig) error
}

var _ service.GameService = (*MockGameService)(nil)

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, opts service.BulkMoveOptions) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, opts)
	}
	return &service.BulkMoveResult{Success: true, RequestedMoves: len(moves), GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) RunScript(ctx context.Context, sessionID string, reset bool) (*service.RunResult, error) {
	if m.RunScriptFunc != nil {
		return m.RunScriptFunc(ctx, sessionID, reset)
	}
	return &service.RunResult{GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}, Page: opts.Page, PageSize: opts.Limit, TotalPages: 1}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.LevelConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers

func setupTestServer(t *testing.T, svc service.GameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(svc, hub)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: abcd", service.ErrSessionNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: 'nope'", service.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("move 3: %w", engine.ErrInvalidDirection), http.StatusBadRequest},
		{fmt.Errorf("%w: Classic", service.ErrNoScript), http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		wantConfig     string
		serviceErr     error
		expectedStatus int
	}{
		{name: "default config", body: nil, wantConfig: "", expectedStatus: http.StatusCreated},
		{name: "config_id", body: map[string]string{"config_id": "wide"}, wantConfig: "wide", expectedStatus: http.StatusCreated},
		{name: "legacy config_name", body: map[string]string{"config_name": "corridor"}, wantConfig: "corridor", expectedStatus: http.StatusCreated},
		{name: "unknown config", body: map[string]string{"config_id": "nope"}, wantConfig: "nope", serviceErr: fmt.Errorf("%w: 'nope'", service.ErrConfigNotFound), expectedStatus: http.StatusNotFound},
		{name: "malformed body", body: "{", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotConfig string
			mock := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					gotConfig = configName
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: configName}, nil
				},
			}

			w := do(t, setupTestServer(t, mock), http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantConfig, gotConfig)

			if w.Code == http.StatusCreated {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "ab12", resp.ID)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "a", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
				{ID: "b", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
				{ID: "c", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	tests := []struct {
		query string
		want  []string
		total int
	}{
		{"", []string{"a", "c", "b"}, 3},
		{"?sort=created&order=asc", []string{"a", "b", "c"}, 3},
		{"?sort=created&limit=2", []string{"c", "b"}, 3},
		{"?limit=0", []string{"a", "c", "b"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, server, http.MethodGet, "/api/sessions"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			var ids []string
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), resp.Count)
			assert.Equal(t, tt.total, resp.Total)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return &service.SessionInfo{ID: "ab12", ConfigName: "classic"}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return nil
		},
	}
	server := setupTestServer(t, mock)

	w := do(t, server, http.MethodGet, "/api/sessions/ab12", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, server, http.MethodGet, "/api/sessions/zz99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var errResp map[string]any
	parseResponse(t, w, &errResp)
	assert.Equal(t, "session not found: zz99", errResp["error"])
	assert.EqualValues(t, http.StatusNotFound, errResp["code"])

	w = do(t, server, http.MethodDelete, "/api/sessions/ab12", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Session ab12 deleted")

	w = do(t, server, http.MethodDelete, "/api/sessions/zz99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Warehouse Operation Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		result         *service.MoveResult
		serviceErr     error
		expectedStatus int
	}{
		{
			name: "push succeeds",
			body: map[string]any{"direction": "left"},
			result: &service.MoveResult{
				Success:   true,
				GameState: &engine.GameState{RobotPos: engine.Position{Row: 1, Col: 2}},
				Step:      &service.StepInfo{Idx: 1, Dir: "left", Success: true, Pushed: 1},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "blocked move is not an error",
			body: map[string]any{"direction": "<"},
			result: &service.MoveResult{
				Success:     false,
				GameState:   &engine.GameState{RobotPos: engine.Position{Row: 1, Col: 2}},
				AttemptedTo: &service.AttemptInfo{Row: 1, Col: 1, CellChar: "O", CellType: "crate", BlockedAt: &engine.Position{Row: 1, Col: 0}},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid direction",
			body:           map[string]any{"direction": "sideways"},
			serviceErr:     fmt.Errorf("%w: %q", engine.ErrInvalidDirection, "sideways"),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "session not found",
			body:           map[string]any{"direction": "up"},
			serviceErr:     fmt.Errorf("%w: ab12", service.ErrSessionNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed body",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				MoveFunc: func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					assert.Equal(t, "ab12", sessionID)
					return tt.result, tt.serviceErr
				},
			}

			w := do(t, setupTestServer(t, mock), http.MethodPost, "/api/sessions/ab12/move", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			if tt.result != nil {
				var resp service.MoveResult
				parseResponse(t, w, &resp)
				assert.Equal(t, tt.result.Success, resp.Success)
				assert.Equal(t, tt.result.AttemptedTo, resp.AttemptedTo)
				assert.Equal(t, tt.result.Step, resp.Step)
			}
		})
	}
}

func TestBulkMove(t *testing.T) {
	tests := []struct {
		name      string
		body      any
		wantMoves []string
		wantOpts  service.BulkMoveOptions
		status    int
	}{
		{
			name:      "moves with options",
			body:      map[string]any{"moves": []string{"up", "left"}, "reset": true, "stop_on_block": true},
			wantMoves: []string{"up", "left"},
			wantOpts:  service.BulkMoveOptions{Reset: true, StopOnBlock: true},
			status:    http.StatusOK,
		},
		{
			name:      "script string appended to moves",
			body:      map[string]any{"moves": []string{"down"}, "script": "<^\n>v"},
			wantMoves: []string{"down", "left", "up", "right", "down"},
			status:    http.StatusOK,
		},
		{
			name:   "bad script character",
			body:   map[string]any{"script": "<x"},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mock := &MockGameService{
				BulkMoveFunc: func(ctx context.Context, sessionID string, moves []string, opts service.BulkMoveOptions) (*service.BulkMoveResult, error) {
					called = true
					assert.Equal(t, tt.wantMoves, moves)
					assert.Equal(t, tt.wantOpts, opts)
					return &service.BulkMoveResult{RequestedMoves: len(moves), MovesProcessed: len(moves), GameState: &engine.GameState{}}, nil
				},
			}

			w := do(t, setupTestServer(t, mock), http.MethodPost, "/api/sessions/ab12/bulk-move", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.status == http.StatusOK, called)
		})
	}
}

func TestRunScript(t *testing.T) {
	var gotReset bool
	mock := &MockGameService{
		RunScriptFunc: func(ctx context.Context, sessionID string, reset bool) (*service.RunResult, error) {
			gotReset = reset
			if sessionID == "none" {
				return nil, fmt.Errorf("%w: Empty", service.ErrNoScript)
			}
			return &service.RunResult{
				Stats:     engine.RunStats{Moves: 15, Moved: 12, Blocked: 3, Pushes: 6},
				Checksum:  2028,
				GameState: &engine.GameState{Checksum: 2028},
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := do(t, server, http.MethodPost, "/api/sessions/ab12/run", map[string]bool{"reset": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotReset)

	var resp service.RunResult
	parseResponse(t, w, &resp)
	assert.Equal(t, 2028, resp.Checksum)
	assert.Equal(t, 3, resp.Stats.Blocked)

	// Empty body means no reset
	w = do(t, server, http.MethodPost, "/api/sessions/ab12/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotReset)

	w = do(t, server, http.MethodPost, "/api/sessions/none/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetAndState(t *testing.T) {
	mock := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{Checksum: 42, Message: "Welcome"}, nil
		},
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{Checksum: 42, RobotPos: engine.Position{Row: 2, Col: 2}}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := do(t, server, http.MethodPost, "/api/sessions/ab12/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resetResp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resetResp)
	assert.Equal(t, 42, resetResp.State.Checksum)

	w = do(t, server, http.MethodGet, "/api/sessions/ab12/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	parseResponse(t, w, &state)
	assert.Equal(t, engine.Position{Row: 2, Col: 2}, state.RobotPos)
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		query string
		want  service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got service.HistoryOptions
			mock := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page}, nil
				},
			}
			w := do(t, setupTestServer(t, mock), http.MethodGet, "/api/sessions/ab12/history"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Level Tests

func TestConfigs(t *testing.T) {
	var saved *engine.LevelConfig
	var savedID string
	mock := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", Crates: 7}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.LevelConfig, error) {
			if configName != "classic" {
				return nil, fmt.Errorf("%w: '%s'", service.ErrConfigNotFound, configName)
			}
			return engine.DefaultLevelConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, config *engine.LevelConfig) error {
			savedID, saved = configName, config
			return nil
		},
	}
	server := setupTestServer(t, mock)

	w := do(t, server, http.MethodGet, "/api/configs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []*service.ConfigInfo
	parseResponse(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].Crates)

	for _, path := range []string{"/api/configs/classic", "/api/configs/classic.json", "/api/configs/classic.yaml"} {
		w = do(t, server, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = do(t, server, http.MethodGet, "/api/configs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	level := map[string]any{
		"config_id":   "tiny",
		"name":        "Tiny",
		"description": "A tiny level",
		"layout":      []string{"#####", "#@O.#", "#####"},
		"moves":       ">>",
	}
	w = do(t, server, http.MethodPost, "/api/configs", level)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "tiny", savedID)
	require.NotNil(t, saved)
	assert.Equal(t, "Tiny", saved.Name)
	assert.Equal(t, ">>", saved.Moves)

	level["layout"] = []string{"#####", "#.O.#", "#####"}
	w = do(t, server, http.MethodPost, "/api/configs", level)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exactly one robot")
}

func TestUnifiedSessions(t *testing.T) {
	sessions := map[string]*service.SessionInfo{
		"a": {ID: "a", ConfigName: "classic", GameState: &engine.GameState{Crates: 7}},
		"b": {ID: "b", ConfigName: "wide", GameState: &engine.GameState{Crates: 3}},
	}
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if s, ok := sessions[sessionID]; ok {
				return s, nil
			}
			return nil, service.ErrSessionNotFound
		},
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{sessions["a"], sessions["b"]}, nil
		},
	}
	server := setupTestServer(t, mock)

	var resp struct {
		ConfigName  string           `json:"config_name"`
		TotalCrates int              `json:"total_crates"`
		Sessions    []map[string]any `json:"sessions"`
	}

	w := do(t, server, http.MethodGet, "/api/sessions/unified?sessionIds=b,%20missing,", nil)
	require.Equal(t, http.StatusOK, w.Code)
	parseResponse(t, w, &resp)
	assert.Equal(t, "wide", resp.ConfigName)
	assert.Equal(t, 3, resp.TotalCrates)
	assert.Len(t, resp.Sessions, 1)

	w = do(t, server, http.MethodGet, "/api/sessions/unified?configName=classic", nil)
	require.Equal(t, http.StatusOK, w.Code)
	parseResponse(t, w, &resp)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "a", resp.Sessions[0]["session_id"])
}

func TestHealth(t *testing.T) {
	w := do(t, setupTestServer(t, &MockGameService{}), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	parseResponse(t, w, &resp)
	assert.Equal(t, "healthy", resp["status"])
	assert.EqualValues(t, 0, resp["sessions"])
	assert.EqualValues(t, 0, resp["websocket_clients"])
}

func TestWebSocketEndpoint(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, service.ErrSessionNotFound
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		MoveFunc: func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
			return &service.MoveResult{Success: true, GameState: &engine.GameState{Checksum: 99}}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := do(t, server, http.MethodGet, "/ws", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, server, http.MethodGet, "/ws?session=zz99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	ts := httptest.NewServer(server)
	defer ts.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session=ab12", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return server.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	// A move on the session is pushed to its viewers
	do(t, server, http.MethodPost, "/api/sessions/ab12/move", map[string]string{"direction": "up"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var message websocket.Message
	require.NoError(t, json.Unmarshal(data, &message))
	assert.Equal(t, websocket.EventStateUpdate, message.Event)
	require.NotNil(t, message.GameState)
	assert.Equal(t, 99, message.GameState.Checksum)
}

func TestServerWithoutHub(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)

	w := do(t, server, http.MethodPost, "/api/sessions/ab12/move", map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, server, http.MethodGet, "/ws?session=ab12", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// End-to-end through the real service, session and config layers.
func TestServer_EndToEnd(t *testing.T) {
	configs, err := config.NewManager("../configs")
	require.NoError(t, err)
	svc := service.NewGameService(session.NewManager(), configs)
	server := setupTestServer(t, svc)

	w := do(t, server, http.MethodPost, "/api/sessions", map[string]string{"config_id": "classic"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created service.SessionInfo
	parseResponse(t, w, &created)
	require.Len(t, created.ID, 4)
	base := "/api/sessions/" + created.ID

	// The robot starts at (2,2) with a wall to its left
	w = do(t, server, http.MethodPost, base+"/move", map[string]string{"direction": "left"})
	require.Equal(t, http.StatusOK, w.Code)
	var move service.MoveResult
	parseResponse(t, w, &move)
	assert.False(t, move.Success)
	require.NotNil(t, move.AttemptedTo)
	assert.Equal(t, 2, move.AttemptedTo.Row)
	assert.Equal(t, 1, move.AttemptedTo.Col)

	w = do(t, server, http.MethodPost, base+"/run", map[string]bool{"reset": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var run service.RunResult
	parseResponse(t, w, &run)
	assert.Equal(t, 2028, run.Checksum)
	assert.Equal(t, 15, run.Stats.Moves)

	// Replaying the same script through bulk-move gives the same checksum
	w = do(t, server, http.MethodPost, base+"/bulk-move", map[string]any{"script": "<^^>>>vv<v>>v<<", "reset": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bulk service.BulkMoveResult
	parseResponse(t, w, &bulk)
	assert.Equal(t, 2028, bulk.EndChecksum)
	assert.Equal(t, 15, bulk.MovesProcessed)

	w = do(t, server, http.MethodGet, base+"/history?limit=100", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	assert.Equal(t, 16, history.TotalMoves)

	w = do(t, server, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, server, http.MethodGet, base+"/state", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
