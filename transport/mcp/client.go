package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// Version is reported to MCP clients during initialization
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Warehouse Robot",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Warehouse Robot - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A robot (@) moves around a walled warehouse (#) and pushes crates. Narrow
crates are 'O'; wide crates span two cells as '[' and ']'. A move pushes the
whole chain of crates in front of the robot, or does nothing at all when any
crate in the chain would hit a wall.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage warehouses
- warehouse_state: current grid, robot position and GPS checksum
- move: one move (up/down/left/right) - requires intent explanation
- bulk_move: many moves, as a list or an arrow script like "<^^>v"
- run_script: play the level's built-in move script
- reset_warehouse: restore the starting layout
- move_history: past moves, paginated
- list_configs: available levels
- warehouse_instructions: rules and coordinate system
- describe_cell: what occupies a given (row, col)

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	directions := []string{"up", "down", "left", "right"}

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new warehouse session with optional level selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_id": map[string]any{
					"type":        "string",
					"description": "Level to load, as listed by list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active warehouse sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Warehouse operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "warehouse_state",
		Description: "Get the current warehouse grid, robot position and checksum",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleWarehouseState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the robot one cell, pushing any crates in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"direction": map[string]any{
					"type":        "string",
					"enum":        directions,
					"description": "Direction to move",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]any{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Execute multiple moves in sequence. Blocked moves are skipped unless stop_on_block is set.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"moves": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string", "enum": directions},
					"description": "Array of moves",
				},
				"script": map[string]any{
					"type":        "string",
					"description": "Moves as arrows, e.g. \"<^^>>v\"; played after any moves in the array",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]any{
					"type":        "boolean",
					"description": "Reset before moving",
				},
				"stop_on_block": map[string]any{
					"type":        "boolean",
					"description": "Stop at the first blocked move instead of skipping it",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_script",
		Description: "Play the level's built-in move script and report the final GPS checksum",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"reset": map[string]any{
					"type":        "boolean",
					"description": "Reset to the starting layout first (default true)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunScript)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_warehouse",
		Description: "Reset the warehouse to its starting layout",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]any{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available warehouse levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "warehouse_instructions",
		Description: "Get the push rules, symbols and coordinate system",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe the cell at (row, col), including which half of a wide crate it is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"row": map[string]any{
					"type":        "integer",
					"description": "Row of the cell (0-based, top row is 0)",
				},
				"col": map[string]any{
					"type":        "integer",
					"description": "Column of the cell (0-based, left column is 0)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// arguments returns the tool call arguments as a map, never nil
func arguments(request mcp.CallToolRequest) map[string]any {
	if args, ok := request.Params.Arguments.(map[string]any); ok {
		return args
	}
	return map[string]any{}
}

func sessionPath(args map[string]any, suffix string) (string, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(id) + suffix, nil
}

// intArg reads a JSON number argument; JSON numbers decode as float64
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if id, _ := args["config_id"].(string); id != "" {
		body["config_id"] = id
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		checksum := 0
		if s.GameState != nil {
			checksum = s.GameState.Checksum
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Checksum: %d, Last used: %s)\n",
			s.ID, s.ConfigName, checksum, s.LastAccessedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleWarehouseState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)
	// intent is only for the caller's benefit

	body := map[string]any{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, http.MethodPost, path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/bulk-move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	movesRaw, _ := args["moves"].([]any)
	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}
	script, _ := args["script"].(string)
	if len(moves) == 0 && strings.TrimSpace(script) == "" {
		return mcp.NewToolResultError("provide moves or script"), nil
	}
	reset, _ := args["reset"].(bool)
	stopOnBlock, _ := args["stop_on_block"].(bool)

	body := map[string]any{
		"moves":         moves,
		"script":        script,
		"reset":         reset,
		"stop_on_block": stopOnBlock,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, http.MethodPost, path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, _ := args["session_id"].(string)
	return mcp.NewToolResultText(formatBulkMoveResult(id, &result)), nil
}

func (c *Client) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/run")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reset := true
	if v, ok := args["reset"].(bool); ok {
		reset = v
	}

	var result service.RunResult
	if err := c.apiCall(ctx, http.MethodPost, path, map[string]bool{"reset": reset}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Script: %s\nMoves: %d (moved %d, blocked %d, pushes %d)\nGPS checksum: %d\n\n%s",
		result.Script, result.Stats.Moves, result.Stats.Moved, result.Stats.Blocked, result.Stats.Pushes,
		result.Checksum, formatGameState(result.GameState))
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, http.MethodPost, path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, config := range configs {
		kind := "narrow"
		if config.Wide {
			kind = "wide"
		}
		script := "no script"
		if config.HasScript {
			script = "has script"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, %s, %d crates, checksum %d, %s\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Rows, config.Cols, kind, config.Crates, config.Checksum, script)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if state.Grid == nil {
		return mcp.NewToolResultError("session has no grid"), nil
	}

	pos := engine.Position{Row: row, Col: col}
	if !state.Grid.InBounds(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is out of bounds. Grid is %d rows x %d cols (rows 0-%d, cols 0-%d)",
			row, col, state.Grid.Rows(), state.Grid.Cols(), state.Grid.Rows()-1, state.Grid.Cols()-1)), nil
	}

	return mcp.NewToolResultText(describeCell(state.Grid, pos)), nil
}

func describeCell(grid *engine.Grid, pos engine.Position) string {
	cell := grid.Get(pos)

	var description string
	switch cell {
	case engine.Empty:
		description = "Empty floor - the robot or a crate can move here"
	case engine.Wall:
		description = "Wall - never moves; any push chain that reaches it is rejected"
	case engine.Robot:
		description = "The robot's current position"
	case engine.Box:
		description = "Narrow crate - occupies this cell only"
	case engine.BoxLeft:
		description = fmt.Sprintf("Left half of a wide crate; its right half is at %s. Both halves always move together", pos.Step(engine.Right))
	case engine.BoxRight:
		description = fmt.Sprintf("Right half of a wide crate; its left half is at %s. Both halves always move together", pos.Step(engine.Left))
	}

	return fmt.Sprintf("Cell at (row %d, col %d):\n━━━━━━━━━━━━━━━━━━━━━━━━\nCharacter: %c\nType: %s\nDescription: %s\n",
		pos.Row, pos.Col, cell.Rune(), cell, description)
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No warehouse state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Robot: %s | Crates: %d | Checksum: %d | Pushes: %d | Blocked: %d | Moves: %d\n\n",
		state.RobotPos, state.Crates, state.Checksum, state.Pushes, state.Blocked, state.TotalMoves)

	if len(state.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, line := range state.LocalView3x3 {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if state.Grid != nil {
		b.WriteString(state.Grid.String())
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move blocked\n")
	}

	if s := result.Step; s != nil {
		fmt.Fprintf(&b, "Step: %s %s→%s", s.Dir, s.From, s.To)
		if s.Pushed > 0 {
			fmt.Fprintf(&b, " pushed %d crate cells", s.Pushed)
		}
		b.WriteString("\n")
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "Blocked: attempted (%d,%d) cell=%s %s", a.Row, a.Col, a.CellChar, a.CellType)
		if a.BlockedAt != nil {
			fmt.Fprintf(&b, ", chain stopped by wall at %s", *a.BlockedAt)
		}
		b.WriteString("\n")
	}

	writeEvents(&b, result.Events)

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func writeEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s\n", sessionID, configName)
	fmt.Fprintf(&b, "Processed %d/%d moves (%d moved, %d blocked, %d pushes)\n",
		result.MovesProcessed, result.RequestedMoves, result.MovesExecuted, result.Blocked, result.Pushes)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}
	fmt.Fprintf(&b, "Robot: %s → %s | Checksum: %d → %d\n",
		result.StartPos, result.EndPos, result.StartChecksum, result.EndChecksum)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			status := "✓"
			if !s.Success {
				status = "✗"
			}
			fmt.Fprintf(&b, "%3d. %-5s %s→%s %s", s.Idx, s.Dir, s.From, s.To, status)
			if s.Pushed > 0 {
				fmt.Fprintf(&b, " pushed %d", s.Pushed)
			}
			b.WriteString("\n")
		}
	}

	if a := result.AttemptedTo; a != nil {
		fmt.Fprintf(&b, "\nFirst block: attempted (%d,%d) cell=%s %s\n", a.Row, a.Col, a.CellChar, a.CellType)
	}

	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, Total: %d moves)\n\n", history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "#%d: %s %s→%s %s", move.MoveNumber, move.Action, move.FromPosition, move.ToPosition, status)
		if move.Pushed > 0 {
			fmt.Fprintf(&b, " pushed %d", move.Pushed)
		}
		b.WriteString("\n")
	}

	if history.HasNext {
		b.WriteString("\n(more moves on the next page)")
	}
	return b.String()
}

const instructions = `Warehouse Robot - Instructions

SYMBOLS:
• @  the robot
• #  wall; never moves
• .  empty floor
• O  narrow crate (one cell)
• [] wide crate (two cells, always moved together)

COORDINATES:
Positions are (row, col), both 0-based from the top-left corner. "up"
decreases the row, "left" decreases the column. The outer border is always
wall.

PUSH RULES:
• Moving into empty floor just moves the robot.
• Moving into a crate pushes it, and every crate directly behind it, one
  cell. The robot follows into the freed cell.
• If any crate in the chain would move into a wall, nothing moves at all.
  The move is reported as blocked and the warehouse is unchanged.
• Pushing a wide crate up or down also pushes every crate touching either
  of its halves in the next row, and so on row by row. One wall anywhere in
  that fan blocks the whole push.

GPS CHECKSUM:
Each crate scores 100 × row + col, measured at its left-most cell ('O' or
'['). The checksum is the sum over all crates.

TOOLS:
• bulk_move accepts an arrow script: ^ up, v down, < left, > right.
  Newlines and spaces in a script are ignored.
• run_script plays the level's own script; list_configs shows which levels
  have one.
• describe_cell tells you which half of a wide crate a cell is.`
