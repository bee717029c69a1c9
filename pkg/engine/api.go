package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/impostorlabs/arena/pkg/logger"
	"github.com/impostorlabs/arena/pkg/protocol"
	"github.com/impostorlabs/arena/pkg/registry"
)

// gameHandle couples a running orchestrator with its channel pair.
type gameHandle struct {
	game   *Game
	in     chan protocol.ModelOutput
	out    chan protocol.ModelInput
	cancel context.CancelFunc
	done   chan struct{}
}

// EngineAPI creates, tracks and routes games. Each game runs on its own
// goroutine; Create and Execute are the trainer-facing suspension points.
type EngineAPI struct {
	games  *registry.BaseRegistry[*gameHandle]
	logger *slog.Logger
}

func NewEngineAPI() *EngineAPI {
	return &EngineAPI{
		games:  registry.NewBaseRegistry[*gameHandle](),
		logger: logger.GetLogger(),
	}
}

// Create registers a game, spawns its orchestrator and returns the first
// ModelInput it yields. A game that crashes before the first yield returns a
// synthetic terminal instead.
func (api *EngineAPI) Create(ctx context.Context, cfg GameConfig) (*protocol.ModelInput, error) {
	// Buffered to 1: pushes and pops strictly alternate, so neither side ever
	// blocks on a full channel.
	in := make(chan protocol.ModelOutput, 1)
	out := make(chan protocol.ModelInput, 1)

	game, err := NewGame(cfg, in, out)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	handle := &gameHandle{
		game:   game,
		in:     in,
		out:    out,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if err := api.games.Register(cfg.GameID, handle); err != nil {
		cancel()
		return nil, err
	}

	metricGamesStarted.Inc()
	metricActiveGames.Set(float64(api.games.Count()))

	go api.runGame(runCtx, handle)

	return api.await(ctx, handle)
}

// Execute pushes the trainer's ModelOutput to the game and returns the next
// ModelInput. Unknown game IDs fail with GameNotFoundError.
func (api *EngineAPI) Execute(ctx context.Context, gameID string, output protocol.ModelOutput) (*protocol.ModelInput, error) {
	handle, ok := api.games.Get(gameID)
	if !ok {
		return nil, &GameNotFoundError{GameID: gameID}
	}

	select {
	case handle.in <- output:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return api.await(ctx, handle)
}

// await reads the next yield and cleans up the registry entry on terminal.
func (api *EngineAPI) await(ctx context.Context, handle *gameHandle) (*protocol.ModelInput, error) {
	select {
	case input := <-handle.out:
		if input.TerminalState != nil {
			api.cleanup(handle)
		}
		return &input, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (api *EngineAPI) cleanup(handle *gameHandle) {
	handle.cancel()
	_ = api.games.Remove(handle.game.GameID())
	metricActiveGames.Set(float64(api.games.Count()))
}

// runGame wraps the orchestrator so that every failure mode still produces
// exactly one terminal ModelInput for the trainer.
func (api *EngineAPI) runGame(ctx context.Context, handle *gameHandle) {
	defer close(handle.done)

	defer func() {
		if r := recover(); r != nil {
			api.logger.Error("game panicked",
				slog.String("game", handle.game.GameID()),
				slog.Any("panic", r),
			)
			api.emitFailure(handle, "internal")
		}
	}()

	err := handle.game.Run(ctx)
	if err == nil {
		_, team := handle.game.winners()
		metricGamesCompleted.WithLabelValues(team).Inc()
		return
	}

	reason := classifyFailure(err)
	api.logger.Warn("game terminated by error",
		slog.String("game", handle.game.GameID()),
		slog.String("reason", reason),
		slog.Any("error", err),
	)
	api.emitFailure(handle, reason)
}

// emitFailure pushes a synthetic terminal with reward -1 and no winners. The
// send is non-blocking: if the trainer abandoned the game the buffered slot
// may already be occupied, and nobody will ever read it.
func (api *EngineAPI) emitFailure(handle *gameHandle, reason string) {
	metricGamesFailed.WithLabelValues(reason).Inc()

	terminal := &protocol.TerminalState{
		GameID:           handle.game.GameID(),
		Winners:          []string{},
		Reward:           -1.0,
		TrainableAgentID: handle.game.TrainableAgentID(),
		Metadata:         map[string]any{"error": reason},
	}

	select {
	case handle.out <- protocol.ModelInput{
		TerminalState: terminal,
		GameID:        handle.game.GameID(),
	}:
	default:
	}
}

func classifyFailure(err error) string {
	var (
		protocolErr *ProtocolError
		agentErr    *AgentNotFoundError
		opponentErr *OpponentUnavailableError
	)
	switch {
	case errors.As(err, &protocolErr):
		return "protocol_error"
	case errors.As(err, &agentErr):
		return "agent_not_found"
	case errors.As(err, &opponentErr):
		return "opponent_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

// GameExists reports whether a game is still registered.
func (api *EngineAPI) GameExists(gameID string) bool {
	_, ok := api.games.Get(gameID)
	return ok
}

// GameIDs lists the registered games.
func (api *EngineAPI) GameIDs() []string {
	return api.games.Names()
}

// TrainableRole returns the trainable seat's role for a registered game.
func (api *EngineAPI) TrainableRole(gameID string) (Role, error) {
	handle, ok := api.games.Get(gameID)
	if !ok {
		return "", &GameNotFoundError{GameID: gameID}
	}
	return handle.game.TrainableRole(), nil
}

// Finalize cancels a running game and removes it. The orchestrator observes
// the cancellation at its next suspension point and exits.
func (api *EngineAPI) Finalize(gameID string) error {
	handle, ok := api.games.Get(gameID)
	if !ok {
		return &GameNotFoundError{GameID: gameID}
	}
	api.cleanup(handle)
	return nil
}

// Shutdown cancels every running game.
func (api *EngineAPI) Shutdown() {
	for _, id := range api.games.Names() {
		_ = api.Finalize(id)
	}
}
