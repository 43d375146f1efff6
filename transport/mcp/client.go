package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
	"github.com/wricardo/mcp-training/battleboard/game/service"
)

const (
	serverName    = "Battle Board"
	serverVersion = "1.0.0"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	log        *logrus.Entry
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.WithField("component", "mcp"),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Battle Board - MCP Interface

This is a thin client that proxies all requests to the REST API server.
There is exactly one game on the table.

GAME OBJECTIVE:
Be the first to land on cell 28, or be the last player standing.

AVAILABLE TOOLS:
- game_state: Current phase, players, battle and last move
- board: Segments, endpoints and which players stand where
- start_game: Seat 2-4 players, directly or from a preset
- roll_dice: Roll whatever the current phase calls for
- roll_movement_die: Roll the movement die for the current player
- roll_battle_die: Roll the battle dice for the attacker or the defender
- resolve_battle_round: Apply the damage rule once both sides rolled
- complete_battle: Merge a finished battle into the roster
- close_battle: Dismiss a battle without applying it
- reset_game: Return to setup
- list_presets: Table presets usable with start_game
- game_rules: The full rules

Moves are committed after a short delay; call game_state to see the result.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Get the current game state"),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("board",
		mcp.WithDescription("Describe the track: segments, endpoints and occupied cells"),
	), c.handleBoard)

	c.mcpServer.AddTool(mcp.NewTool("start_game",
		mcp.WithDescription("Start a new game. Pass a preset id, a list of players, or nothing for the default preset"),
		mcp.WithString("preset",
			mcp.Description("Preset id from list_presets (optional)"),
		),
		mcp.WithArray("players",
			mcp.Description("Players in turn order, 2 to 4 entries (optional)"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":    map[string]any{"type": "string"},
					"name":  map[string]any{"type": "string"},
					"color": map[string]any{"type": "string"},
				},
			}),
		),
	), c.handleStartGame)

	c.mcpServer.AddTool(mcp.NewTool("roll_dice",
		mcp.WithDescription("Roll whatever the current phase calls for: the movement die while playing, the due side's battle dice in a battle"),
	), c.handleRollDice)

	c.mcpServer.AddTool(mcp.NewTool("roll_movement_die",
		mcp.WithDescription("Roll the movement die for the current player"),
	), c.handleRollMovementDie)

	c.mcpServer.AddTool(mcp.NewTool("roll_battle_die",
		mcp.WithDescription("Roll two battle dice for one side of the current round"),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Enum(string(engine.RoleAttacker), string(engine.RoleDefender)),
			mcp.Description("Which side rolls. The attacker always rolls first"),
		),
	), c.handleRollBattleDie)

	c.mcpServer.AddTool(mcp.NewTool("resolve_battle_round",
		mcp.WithDescription("Apply the damage rule after both sides rolled"),
	), c.handleResolveBattleRound)

	c.mcpServer.AddTool(mcp.NewTool("complete_battle",
		mcp.WithDescription("Merge a finished battle into the roster; the loser is eliminated"),
		mcp.WithString("winner_id",
			mcp.Required(),
			mcp.Description("ID of the battle winner"),
		),
	), c.handleCompleteBattle)

	c.mcpServer.AddTool(mcp.NewTool("close_battle",
		mcp.WithDescription("Dismiss the battle without applying its outcome"),
	), c.handleCloseBattle)

	c.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Return the table to setup, cancelling any pending move"),
	), c.handleReset)

	c.mcpServer.AddTool(mcp.NewTool("list_presets",
		mcp.WithDescription("List table presets usable with start_game"),
	), c.handleListPresets)

	c.mcpServer.AddTool(mcp.NewTool("game_rules",
		mcp.WithDescription("Get the complete game rules"),
	), c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiError is the body of a failed REST call
type apiError struct {
	Error     string            `json:"error"`
	GameState *engine.GameState `json:"game_state,omitempty"`
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
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
		var errResp apiError
		json.NewDecoder(resp.Body).Decode(&errResp)
		c.log.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("REST call failed")
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// action posts to an action endpoint and renders the result
func (c *Client) action(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

// Tool handlers

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", "/api/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var board service.BoardInfo
	if err := c.apiCall(ctx, "GET", "/api/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&board)), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req service.StartGameRequest
	if err := request.BindArguments(&req); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid start_game arguments", err), nil
	}

	return c.action(ctx, "/api/game/start", req)
}

func (c *Client) handleRollDice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, "/api/game/roll", nil)
}

func (c *Client) handleRollMovementDie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, "/api/game/movement-die", nil)
}

func (c *Client) handleRollBattleDie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Role string `json:"role"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid roll_battle_die arguments", err), nil
	}
	if args.Role == "" {
		return mcp.NewToolResultError("role is required (attacker or defender)"), nil
	}

	return c.action(ctx, "/api/game/battle/roll", args)
}

func (c *Client) handleResolveBattleRound(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, "/api/game/battle/resolve", nil)
}

func (c *Client) handleCompleteBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		WinnerID string `json:"winner_id"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid complete_battle arguments", err), nil
	}
	if args.WinnerID == "" {
		return mcp.NewToolResultError("winner_id is required"), nil
	}

	return c.action(ctx, "/api/game/battle/complete", args)
}

func (c *Client) handleCloseBattle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, "/api/game/battle/close", nil)
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.action(ctx, "/api/game/reset", nil)
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                   `json:"count"`
		Presets []*service.PresetInfo `json:"presets"`
	}
	if err := c.apiCall(ctx, "GET", "/api/presets", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available Presets (%d):\n\n", response.Count)
	for _, p := range response.Presets {
		fmt.Fprintf(&b, "• %s (%s)\n", p.Name, p.PresetID)
		if p.Description != "" {
			fmt.Fprintf(&b, "  %s\n", p.Description)
		}
		names := make([]string, 0, len(p.Players))
		for _, seed := range p.Players {
			names = append(names, seed.Name)
		}
		fmt.Fprintf(&b, "  Players: %s\n  Move delay: %dms, battle delay: %dms\n\n",
			strings.Join(names, ", "), p.MoveDelayMS, p.BattleCompleteDelayMS)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

const gameRules = `Battle Board - Complete Rules

BOARD:
• 28 cells split into 7 segments of 4: 1-4, 5-8, 9-12, 13-16, 17-20, 21-24, 25-28
• The last cell of each segment is an endpoint: 4, 8, 12, 16, 20, 24, 28
• Every player starts on cell 1 with 3 hit points

TURNS:
• 2 to 4 players take turns in seating order; eliminated players are skipped
• The current player rolls one six-sided die and moves that many cells forward
• The move is committed after a short delay

TRAPPED:
• A roll that would carry you past the end of your segment is rejected
  unless you are already standing on that endpoint
• A rejected move leaves you where you are and the turn passes
• Example: on cell 3 a roll of 2 would reach 5, past endpoint 4, so you stay on 3

WINNING:
• Landing on cell 28 wins immediately
• The last active player also wins

BATTLES:
• Landing on an endpoint held by another active player starts a battle
• The player who moved attacks first; roles swap every round
• Each round: the attacker rolls two dice, then the defender rolls two dice,
  then the round is resolved
• Only doubles deal damage:
  - attacker doubles, defender not: defender loses 1 hit point
  - defender doubles, attacker not: attacker loses 1 hit point
  - both or neither: no damage
• The battle ends when one side reaches 0 hit points
• Completing the battle eliminates the loser; the winner keeps the cell
• A battle can be closed without applying its outcome

TOOLS FLOW:
1. start_game
2. roll_dice (repeat); check game_state after each move commits
3. In a battle: roll_dice until the battle is finished; it completes on its own
   after a short delay, or call complete_battle with the winner
4. reset_game to start over`

// Formatting helpers

func playerLabel(p engine.Player) string {
	return fmt.Sprintf("%s (%s)", p.Name, p.ID)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s", state.Phase)
	if state.GameID != "" {
		fmt.Fprintf(&b, " | Game: %s", state.GameID)
	}
	fmt.Fprintf(&b, " | Turn: %d\n", state.Turn)

	switch state.Phase {
	case engine.PhaseSetup:
		b.WriteString("No game in progress. Call start_game.\n")
	case engine.PhaseFinished:
		if state.Winner != nil {
			fmt.Fprintf(&b, "🏆 WINNER: %s\n", playerLabel(*state.Winner))
		}
	}

	if len(state.Players) > 0 {
		b.WriteString("\nPlayers:\n")
		current, hasCurrent := state.CurrentPlayer()
		for _, p := range state.Players {
			marker := "  "
			if hasCurrent && state.Phase == engine.PhasePlaying && p.ID == current.ID {
				marker = "▶ "
			}
			status := fmt.Sprintf("cell %d, HP %d/%d", p.Position, p.HitPoints, engine.StartHitPoints)
			if !p.Active {
				status += ", ELIMINATED"
			} else if engine.IsEndpoint(p.Position) {
				status += ", on endpoint"
			}
			fmt.Fprintf(&b, "%s%s [%s]: %s\n", marker, playerLabel(p), p.Color, status)
		}
	}

	if state.Battle != nil {
		b.WriteString("\n" + formatBattle(state.Battle))
	}

	if state.PendingSteps > 0 {
		fmt.Fprintf(&b, "\nRolled %d, move pending\n", state.PendingSteps)
	}

	if state.LastMove != nil {
		m := state.LastMove
		fmt.Fprintf(&b, "\nLast move: %s rolled %d, %d → %d (%s)\n", m.PlayerID, m.Steps, m.From, m.To, m.Outcome)
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s\n", state.Message)
	}

	return b.String()
}

func formatBattle(battle *engine.Battle) string {
	var b strings.Builder
	attacker, defender := battle.AttackerPlayer(), battle.DefenderPlayer()
	fmt.Fprintf(&b, "⚔️ BATTLE round %d (%s)\n", battle.Round, battle.Step)
	fmt.Fprintf(&b, "  Attacker: %s HP %d, dice %v\n", playerLabel(attacker), attacker.HitPoints, battle.AttackerDice)
	fmt.Fprintf(&b, "  Defender: %s HP %d, dice %v\n", playerLabel(defender), defender.HitPoints, battle.DefenderDice)

	if role, ok := battle.DueRole(); ok {
		fmt.Fprintf(&b, "  Next: %s rolls\n", role)
	} else if winner, ok := battle.Winner(); ok {
		fmt.Fprintf(&b, "  Winner: %s\n", playerLabel(winner))
	} else {
		b.WriteString("  Next: resolve the round\n")
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	b.WriteString(result.Message)
	b.WriteString("\n")

	if r := result.Roll; r != nil {
		fmt.Fprintf(&b, "\n🎲 %s roll", r.Kind)
		if r.Role != "" {
			fmt.Fprintf(&b, " (%s)", r.Role)
		}
		fmt.Fprintf(&b, ": %v = %d", r.Dice, r.Total)
		if r.Doubles {
			b.WriteString(" DOUBLES")
		}
		b.WriteString("\n")
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, e := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", e.Type, e.Message)
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBoard(board *service.BoardInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Track: cells %d-%d, endpoints %v\n\n", board.FirstPosition, board.FinalPosition, board.Endpoints)
	for _, segment := range board.Segments {
		cells := make([]string, 0, len(segment.Positions))
		for _, pos := range segment.Positions {
			cell := fmt.Sprintf("%d", pos)
			if ids := board.Occupants[pos]; len(ids) > 0 {
				cell += "[" + strings.Join(ids, ",") + "]"
			}
			cells = append(cells, cell)
		}
		fmt.Fprintf(&b, "Segment %d: %s\n", segment.Index+1, strings.Join(cells, " "))
	}
	return b.String()
}
