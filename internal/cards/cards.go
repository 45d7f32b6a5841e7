// Package cards holds the power-card catalog and draws hand copies from it.
package cards

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/abrezinsky/quizattack/internal/models"
)

// Card types
const (
	TypeAttack  = "attack"
	TypeBoost   = "boost"
	TypeUtility = "utility"
)

var defaultCards = []models.Card{
	{
		ID: "time-thief", Name: "Time Thief", Emoji: "⏳", Color: "#f97316", Value: 5, Type: TypeAttack,
		Description: "Steal 5 seconds from every opponent",
		Effect:      models.CardEffect{Kind: models.EffectTime, Target: "opponents", Seconds: -5},
	},
	{
		ID: "extra-time", Name: "Extra Time", Emoji: "⏰", Color: "#22c55e", Value: 10, Type: TypeBoost,
		Description: "Add 10 seconds to your clock",
		Effect:      models.CardEffect{Kind: models.EffectTime, Target: "self", Seconds: 10},
	},
	{
		ID: "fog", Name: "Fog of War", Emoji: "🌫️", Color: "#64748b", Value: 5, Type: TypeAttack,
		Description: "Blur the question for opponents",
		Effect:      models.CardEffect{Kind: models.EffectCSS, Target: "opponents", CSSClass: "effect-blur", DurationMs: 5000},
	},
	{
		ID: "earthquake", Name: "Earthquake", Emoji: "🌋", Color: "#b45309", Value: 4, Type: TypeAttack,
		Description: "Shake the answer buttons of every opponent",
		Effect:      models.CardEffect{Kind: models.EffectCSS, Target: "opponents", CSSClass: "effect-shake", DurationMs: 4000},
	},
	{
		ID: "upside-down", Name: "Upside Down", Emoji: "🙃", Color: "#a855f7", Value: 6, Type: TypeAttack,
		Description: "Flip opponents' screens",
		Effect:      models.CardEffect{Kind: models.EffectCSS, Target: "opponents", CSSClass: "effect-flip", DurationMs: 5000},
	},
	{
		ID: "double-points", Name: "Double Points", Emoji: "✖️", Color: "#eab308", Value: 2, Type: TypeBoost,
		Description: "Double the points of your next correct answer",
		Effect:      models.CardEffect{Kind: models.EffectScore, Target: "self", Multiplier: 2},
	},
	{
		ID: "point-thief", Name: "Point Thief", Emoji: "🦝", Color: "#ef4444", Value: 50, Type: TypeAttack,
		Description: "Take 50 points from the leader",
		Effect:      models.CardEffect{Kind: models.EffectScore, Target: "opponents", Points: -50},
	},
	{
		ID: "bonus", Name: "Bonus", Emoji: "💰", Color: "#10b981", Value: 50, Type: TypeBoost,
		Description: "Gain 50 points",
		Effect:      models.CardEffect{Kind: models.EffectScore, Target: "self", Points: 50},
	},
	{
		ID: "fifty-fifty", Name: "50/50", Emoji: "✂️", Color: "#3b82f6", Value: 2, Type: TypeUtility,
		Description: "Remove two wrong answers",
		Effect:      models.CardEffect{Kind: models.EffectAnswer, Target: "self", Remove: 2},
	},
	{
		ID: "hint", Name: "Hint", Emoji: "💡", Color: "#06b6d4", Value: 1, Type: TypeUtility,
		Description: "Remove one wrong answer",
		Effect:      models.CardEffect{Kind: models.EffectAnswer, Target: "self", Remove: 1},
	},
}

// Catalog is an immutable, ordered set of card definitions
type Catalog struct {
	cards []models.Card
	byID  map[string]int
}

// New builds a catalog from definitions. Later duplicates of an ID are ignored.
func New(defs []models.Card) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(defs))}
	for _, d := range defs {
		if _, dup := c.byID[d.ID]; dup {
			continue
		}
		d.UniqueID = ""
		c.byID[d.ID] = len(c.cards)
		c.cards = append(c.cards, d)
	}
	return c
}

// Default returns the built-in catalog
func Default() *Catalog {
	return New(defaultCards)
}

// All returns a copy of every definition in catalog order
func (c *Catalog) All() []models.Card {
	out := make([]models.Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Len returns the number of definitions
func (c *Catalog) Len() int {
	return len(c.cards)
}

// IDs returns the definition IDs in catalog order
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.cards))
	for i, card := range c.cards {
		ids[i] = card.ID
	}
	return ids
}

// Lookup returns the definition with the given ID
func (c *Catalog) Lookup(id string) (models.Card, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Card{}, false
	}
	return c.cards[i], true
}

// Filter returns a catalog restricted to allowed IDs. Unknown IDs are skipped;
// an empty list keeps every card.
func (c *Catalog) Filter(allowed []string) *Catalog {
	if len(allowed) == 0 {
		return c
	}
	keep := make([]models.Card, 0, len(allowed))
	for _, id := range allowed {
		if card, ok := c.Lookup(id); ok {
			keep = append(keep, card)
		}
	}
	return New(keep)
}

// Unknown returns the IDs not present in the catalog
func (c *Catalog) Unknown(ids []string) []string {
	var missing []string
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Draw picks a definition uniformly at random and returns a copy tagged with a
// fresh unique ID. It returns false when the catalog is empty.
func (c *Catalog) Draw(rng *rand.Rand, newID func() string) (models.Card, bool) {
	if len(c.cards) == 0 {
		return models.Card{}, false
	}
	if newID == nil {
		newID = uuid.NewString
	}
	card := c.cards[rng.IntN(len(c.cards))]
	card.UniqueID = newID()
	return card, true
}
