package config

import "fmt"

// EngineConfig carries the default game parameters applied when a create
// request leaves them unset.
type EngineConfig struct {
	// SecurityTarget and SabotageTarget are the track lengths that end the
	// game. PromotionThreshold is the sabotage count after which seating the
	// Master Impostor as First Mate wins; 0 means SabotageTarget/2.
	SecurityTarget     int `yaml:"security_target,omitempty" json:"security_target,omitempty"`
	SabotageTarget     int `yaml:"sabotage_target,omitempty" json:"sabotage_target,omitempty"`
	PromotionThreshold int `yaml:"promotion_threshold,omitempty" json:"promotion_threshold,omitempty"`

	// Deck composition.
	SecurityCards int `yaml:"security_cards,omitempty" json:"security_cards,omitempty"`
	SabotageCards int `yaml:"sabotage_cards,omitempty" json:"sabotage_cards,omitempty"`

	// ImpostorOversampleProb biases role assignment so the trainable policy
	// lands on the impostor team with this probability. 0 keeps the uniform
	// shuffle; training setups raise it for sample efficiency.
	ImpostorOversampleProb float64 `yaml:"impostor_oversample_prob,omitempty" json:"impostor_oversample_prob,omitempty"`

	// OpponentLLM names the entry under llms used for opponent slots that do
	// not specify a provider of their own.
	OpponentLLM string `yaml:"opponent_llm,omitempty" json:"opponent_llm,omitempty"`

	// OpponentRetries is how many times the opponent adapter re-asks a model
	// that returned no usable tool call before giving up on the game.
	OpponentRetries int `yaml:"opponent_retries,omitempty" json:"opponent_retries,omitempty"`
}

func (c *EngineConfig) SetDefaults() {
	if c.SecurityTarget == 0 {
		c.SecurityTarget = 3
	}
	if c.SabotageTarget == 0 {
		c.SabotageTarget = 4
	}
	if c.PromotionThreshold == 0 {
		c.PromotionThreshold = c.SabotageTarget / 2
	}
	if c.SecurityCards == 0 {
		c.SecurityCards = 11
	}
	if c.SabotageCards == 0 {
		c.SabotageCards = 6
	}
	if c.OpponentRetries == 0 {
		c.OpponentRetries = 2
	}
}

func (c *EngineConfig) Validate() error {
	if c.SecurityTarget < 1 || c.SabotageTarget < 1 {
		return fmt.Errorf("track targets must be positive")
	}
	if c.PromotionThreshold < 0 || c.PromotionThreshold > c.SabotageTarget {
		return fmt.Errorf("promotion threshold %d out of range [0, %d]", c.PromotionThreshold, c.SabotageTarget)
	}
	if c.SecurityCards < c.SecurityTarget {
		return fmt.Errorf("deck has %d security cards but the target is %d", c.SecurityCards, c.SecurityTarget)
	}
	if c.SabotageCards < c.SabotageTarget {
		return fmt.Errorf("deck has %d sabotage cards but the target is %d", c.SabotageCards, c.SabotageTarget)
	}
	if c.ImpostorOversampleProb < 0 || c.ImpostorOversampleProb > 1 {
		return fmt.Errorf("impostor_oversample_prob must be in [0, 1], got %v", c.ImpostorOversampleProb)
	}
	return nil
}
