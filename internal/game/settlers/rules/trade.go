package rules

import (
	"time"

	"sudooom.settlers/internal/game/settlers/core"
)

// ValidateOffer 校验一方的出价
func ValidateOffer(state *core.GameState, playerID, counterpartID string, offer core.Resources) error {
	player := state.GetPlayer(playerID)
	if player == nil || state.GetPlayer(counterpartID) == nil {
		return core.ErrPlayerNotFound
	}
	if playerID == counterpartID {
		return core.ErrInvalidTradeOffer.Wrapf("cannot trade with yourself")
	}
	if !offer.Valid() {
		return core.ErrInvalidTradeOffer
	}
	if !player.Resources.Covers(offer) {
		return core.ErrTradeResourceShortfall
	}
	return nil
}

// ApplyOffer 写入一方的出价，返回新的协商（不修改 current）
// 任意一方改价后，双方的确认都被清除
func ApplyOffer(current *core.TradeOffer, id, playerID, counterpartID string, offer core.Resources, now time.Time) *core.TradeOffer {
	var t *core.TradeOffer
	if current == nil {
		t = &core.TradeOffer{
			ID:           id,
			FromPlayerID: playerID,
			ToPlayerID:   counterpartID,
			OfferFrom:    make(core.Resources),
			OfferTo:      make(core.Resources),
			CreatedAt:    now,
		}
	} else {
		t = current.Clone()
	}

	if t.FromPlayerID == playerID {
		t.OfferFrom = offer.Clone()
		t.FromSubmitted = true
	} else {
		t.OfferTo = offer.Clone()
		t.ToSubmitted = true
	}
	t.FromAccepted = false
	t.ToAccepted = false

	t.Status = core.TradeProposed
	if t.FromSubmitted && t.ToSubmitted {
		t.Status = core.TradeCounterPending
	}
	t.UpdatedAt = now
	return t
}

// Accept 一方确认当前的出价组合，返回新的协商
func Accept(current *core.TradeOffer, playerID string, now time.Time) (*core.TradeOffer, error) {
	if current == nil {
		return nil, core.ErrNoActiveTradeNegotiation
	}
	if !current.FromSubmitted || !current.ToSubmitted {
		return nil, core.ErrTradeNotReady
	}
	t := current.Clone()
	if t.FromPlayerID == playerID {
		t.FromAccepted = true
	} else {
		t.ToAccepted = true
	}
	t.UpdatedAt = now
	return t, nil
}

// CheckFinalize 成交前重新校验双方确认与持有量
func CheckFinalize(state *core.GameState, t *core.TradeOffer) error {
	if t == nil {
		return core.ErrNoActiveTradeNegotiation
	}
	if !t.FromAccepted || !t.ToAccepted {
		return core.ErrTradeNotReady
	}
	from := state.GetPlayer(t.FromPlayerID)
	to := state.GetPlayer(t.ToPlayerID)
	if from == nil || to == nil {
		return core.ErrPlayerNotFound
	}
	if !from.Resources.Covers(t.OfferFrom) || !to.Resources.Covers(t.OfferTo) {
		return core.ErrTradeResourceShortfall
	}
	return nil
}
