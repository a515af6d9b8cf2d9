package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrNoScript        = errors.New("level has no move script")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.Mutex // serializes engine access
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given level name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// getSession looks up a session and marks it as accessed.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		zap.L().Debug("failed to touch session", zap.String("session", sessionID), zap.Error(err))
	}
	return sess, nil
}

func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return sess, nil
}

// persist saves a session after a state change; failures are logged only.
func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		zap.L().Warn("failed to persist session",
			zap.String("session", sessionID),
			zap.String("after", after),
			zap.Error(err))
	}
}

// stateView copies the session state with its local view filled in. Callers
// hold s.mu; the copy may be read and encoded after the lock is released.
func stateView(sess *Session) *engine.GameState {
	state := sess.Engine.GetState().Snapshot()
	state.LocalView3x3 = sess.Engine.GetLocalView()
	return state
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	state := stateView(sess)
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID, // Return the config_id, not the display name
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      state,
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new warehouse session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.LevelConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			return nil, s.configLoadError(configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	zap.L().Info("session created",
		zap.String("session", session.ID),
		zap.String("level", config.Name))

	return s.sessionInfo(session, configName), nil
}

// configLoadError lists the available levels when the requested one is missing.
func (s *gameServiceImpl) configLoadError(configName string, err error) error {
	if !errors.Is(err, ErrConfigNotFound) {
		return fmt.Errorf("failed to load config %s: %w", configName, err)
	}
	availableConfigs, listErr := s.configs.ListConfigs()
	if listErr == nil && len(availableConfigs) > 0 {
		var configIDs []string
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
	}
	return fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, ""))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.sessions.Delete(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return err
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		event, err := resetEngine(sess)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	step := sess.Engine.Move(dir)
	state := stateView(sess)

	result := &MoveResult{
		Success:   step.Moved,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, stepEvents(step)...),
	}
	if step.Moved {
		result.Step = stepInfo(1, step)
	} else {
		result.AttemptedTo = attemptInfo(state.Grid, step)
	}

	zap.L().Debug("move",
		zap.String("session", sessionID),
		zap.Stringer("dir", dir),
		zap.Bool("moved", step.Moved),
		zap.Int("pushed", step.Pushed))

	s.persist(sessionID, "move")
	return result, nil
}

// BulkMove executes multiple moves in sequence. Blocked moves are recorded
// and skipped unless opts.StopOnBlock is set.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, opts BulkMoveOptions) (*BulkMoveResult, error) {
	dirs := make([]engine.Direction, 0, len(moves))
	for i, move := range moves {
		dir, err := engine.ParseDirection(move)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		dirs = append(dirs, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if opts.Reset {
		event, err := resetEngine(sess)
		if err != nil {
			return nil, err
		}
		result.Events = append(result.Events, event)
	}

	start := sess.Engine.GetState()
	result.StartPos = start.RobotPos
	result.StartChecksum = start.Checksum

	// Limit moves to prevent abuse
	if len(dirs) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		dirs = dirs[:engine.MaxBulkMoves]
	}

	for i, dir := range dirs {
		if err := ctx.Err(); err != nil {
			result.StoppedReason = "request cancelled"
			result.StopReasonCode = "cancelled"
			result.StoppedOnMove = i + 1
			break
		}

		step := sess.Engine.Move(dir)
		result.MovesProcessed++
		result.Steps = append(result.Steps, *stepInfo(i+1, step))
		result.Events = append(result.Events, stepEvents(step)...)

		if !step.Moved {
			result.Success = false
			result.Blocked++
			if result.AttemptedTo == nil {
				result.AttemptedTo = attemptInfo(sess.Engine.GetState().Grid, step)
			}
			if opts.StopOnBlock {
				result.StoppedReason = fmt.Sprintf("move %d blocked: %s", i+1, dir)
				result.StopReasonCode = StopBlocked
				result.StoppedOnMove = i + 1
				break
			}
			continue
		}

		result.MovesExecuted++
		if step.Pushed > 0 {
			result.Pushes++
		}
	}

	end := stateView(sess)
	result.GameState = end
	result.EndPos = end.RobotPos
	result.EndChecksum = end.Checksum
	result.Message = end.Message
	result.LocalView3x3 = end.LocalView3x3
	for _, dir := range sess.Engine.GetPossibleMoves() {
		result.PossibleMoves = append(result.PossibleMoves, dir.String())
	}

	zap.L().Debug("bulk move",
		zap.String("session", sessionID),
		zap.Int("requested", result.RequestedMoves),
		zap.Int("executed", result.MovesExecuted),
		zap.Int("blocked", result.Blocked))

	s.persist(sessionID, "bulk move")
	return result, nil
}

// RunScript plays the level's move script on the session
func (s *gameServiceImpl) RunScript(ctx context.Context, sessionID string, reset bool) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Config.Moves == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoScript, sess.Config.Name)
	}

	var events []GameEvent
	if reset {
		event, err := resetEngine(sess)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	stats, err := sess.Engine.RunScript()
	if err != nil {
		return nil, err
	}

	state := stateView(sess)
	events = append(events, GameEvent{
		Type:      EventScript,
		Message:   state.Message,
		Timestamp: time.Now(),
		Position:  state.RobotPos,
	})

	s.persist(sessionID, "script")
	return &RunResult{
		Stats:     stats,
		Checksum:  state.Checksum,
		Script:    sess.Config.Moves,
		GameState: state,
		Events:    events,
	}, nil
}

// Reset resets a session to the level's initial layout
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := sess.Engine.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}

	s.persist(sessionID, "reset")
	return stateView(sess), nil
}

// GetGameState retrieves the current state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := stateView(sess)
	return state, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = slices.Clone(history[start:end])
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available levels
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error) {
	config, err := s.configs.LoadConfig(configName)
	if err != nil {
		return nil, s.configLoadError(configName, err)
	}
	return config, nil
}

// SaveConfig saves a level to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func resetEngine(sess *Session) (GameEvent, error) {
	state, err := sess.Engine.Reset()
	if err != nil {
		return GameEvent{}, fmt.Errorf("failed to reset session: %w", err)
	}
	return GameEvent{
		Type:      EventReset,
		Message:   "Warehouse reset to initial layout",
		Timestamp: time.Now(),
		Position:  state.RobotPos,
	}, nil
}

// stepEvents turns a step into its events: one per move, plus a push or
// blocked event.
func stepEvents(step engine.StepResult) []GameEvent {
	now := time.Now()
	if !step.Moved {
		msg := fmt.Sprintf("Blocked moving %s from %s", step.Direction, step.From)
		if step.BlockedAt != nil {
			msg = fmt.Sprintf("Blocked moving %s from %s: wall at %s", step.Direction, step.From, step.BlockedAt)
		}
		return []GameEvent{{Type: EventBlocked, Message: msg, Timestamp: now, Position: step.From}}
	}

	events := []GameEvent{{
		Type:      EventMove,
		Message:   fmt.Sprintf("Moved %s to %s", step.Direction, step.To),
		Timestamp: now,
		Position:  step.To,
	}}
	if step.Pushed > 0 {
		events = append(events, GameEvent{
			Type:      EventPush,
			Message:   fmt.Sprintf("Pushed %d crate cells %s", step.Pushed, step.Direction),
			Timestamp: now,
			Position:  step.To,
		})
	}
	return events
}

func stepInfo(idx int, step engine.StepResult) *StepInfo {
	return &StepInfo{
		Idx:     idx,
		Dir:     step.Direction.String(),
		From:    step.From,
		To:      step.To,
		Success: step.Moved,
		Pushed:  step.Pushed,
	}
}

func attemptInfo(grid *engine.Grid, step engine.StepResult) *AttemptInfo {
	target := step.From.Step(step.Direction)
	info := &AttemptInfo{
		Row:       target.Row,
		Col:       target.Col,
		CellChar:  "#",
		CellType:  engine.Wall.String(),
		BlockedAt: step.BlockedAt,
	}
	if grid != nil && grid.InBounds(target) {
		cell := grid.Get(target)
		info.CellChar = string(cell.Rune())
		info.CellType = cell.String()
	}
	return info
}
