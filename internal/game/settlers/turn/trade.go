package turn

import (
	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/rules"
)

// 交易不限于当前玩家，但需要当前回合已掷骰且没有待处理的 7 点流程

func (t *txn) offer(intent Intent) error {
	s := t.state
	if err := t.requireMainStage(); err != nil {
		return err
	}
	counterpart := intent.TargetPlayerID
	if err := rules.ValidateOffer(s, intent.PlayerID, counterpart, intent.Resources); err != nil {
		return err
	}

	key := core.PairKey(intent.PlayerID, counterpart)
	current := s.Trades[key]
	id := ""
	if current == nil {
		id = t.engine.newID()
	}
	trade := rules.ApplyOffer(current, id, intent.PlayerID, counterpart, intent.Resources, t.now)
	s.Trades[key] = trade

	t.emitTrade(core.EventTradeUpdated, trade, intent.PlayerID, "")
	return nil
}

func (t *txn) acceptTrade(intent Intent) error {
	s := t.state
	if err := t.requireMainStage(); err != nil {
		return err
	}
	key := core.PairKey(intent.PlayerID, intent.TargetPlayerID)
	trade, err := rules.Accept(s.Trades[key], intent.PlayerID, t.now)
	if err != nil {
		return err
	}
	s.Trades[key] = trade

	t.emitTrade(core.EventTradeAccepted, trade, intent.PlayerID, "")
	return nil
}

// finalizeTrade 双方确认后原子交换；任意一方资源不足则拒绝且不做任何修改
func (t *txn) finalizeTrade(intent Intent) error {
	s := t.state
	if err := t.requireMainStage(); err != nil {
		return err
	}
	key := core.PairKey(intent.PlayerID, intent.TargetPlayerID)
	trade := s.Trades[key]
	if err := rules.CheckFinalize(s, trade); err != nil {
		return err
	}

	from := s.GetPlayer(trade.FromPlayerID)
	to := s.GetPlayer(trade.ToPlayerID)
	from.Resources.Sub(trade.OfferFrom)
	to.Resources.Add(trade.OfferFrom)
	to.Resources.Sub(trade.OfferTo)
	from.Resources.Add(trade.OfferTo)
	delete(s.Trades, key)

	t.emitTrade(core.EventTradeCompleted, trade, intent.PlayerID, "")
	t.engine.logger.Info("交易完成",
		"roomId", s.RoomID,
		"from", trade.FromPlayerID,
		"to", trade.ToPlayerID)
	return nil
}

// cancelTrade 任意一方可随时取消，不涉及资源
func (t *txn) cancelTrade(intent Intent) error {
	s := t.state
	key := core.PairKey(intent.PlayerID, intent.TargetPlayerID)
	trade := s.Trades[key]
	if trade == nil {
		return core.ErrNoActiveTradeNegotiation
	}
	delete(s.Trades, key)

	reason := intent.Reason
	if reason == "" && intent.Automatic {
		reason = "timeout"
	}
	t.emitTrade(core.EventTradeCancelled, trade, intent.PlayerID, reason)
	return nil
}

func (t *txn) emitTrade(typ core.EventType, trade *core.TradeOffer, actor, reason string) {
	t.emit(core.PrivateEvent(typ, core.TradePayload{
		Trade:  trade.Clone(),
		Actor:  actor,
		Reason: reason,
	}, trade.FromPlayerID, trade.ToPlayerID))
}
