package models

// Player is one entry in the draftable player pool.
type Player struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Position string `json:"position" yaml:"position"`
	// ConsensusRank is 1-based; lower is better.
	ConsensusRank int `json:"consensus_rank" yaml:"consensus_rank"`
}
