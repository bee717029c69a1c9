// Package arena provides the game engine behind an RL training harness for a
// five-player hidden-role social deduction game.
//
// Four seats are played by LLM opponents; one seat is the trainable policy,
// driven externally through a suspend/resume protocol: the engine yields a
// ModelInput (rendered history plus the forced tool schema) at every policy
// decision and blocks until the trainer answers with a ModelOutput.
//
// # Quick Start
//
// Install the server:
//
//	go install github.com/impostorlabs/arena/cmd/arena@latest
//
// Configure the opponent backend:
//
//	llms:
//	  opponent:
//	    type: "openai"
//	    model: "gpt-4o-mini"
//	    api_key: "${OPENAI_API_KEY}"
//	engine:
//	  opponent_llm: "opponent"
//
// Start it:
//
//	arena serve --config config.yaml
//
// # Packages
//
//   - pkg/engine: deck, event log, orchestrator and the engine API
//   - pkg/tools: the tool vocabulary and strict schema builder
//   - pkg/llms: LLM provider backends for opponent seats
//   - pkg/server: the trainer-facing HTTP surface
//   - pkg/config: YAML configuration with environment expansion
package arena
