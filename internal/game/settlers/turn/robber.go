package turn

import (
	"slices"

	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/rules"
)

func (t *txn) rollDice(intent Intent) error {
	s := t.state
	if s.Phase != core.PhaseNormalTurn {
		return core.ErrInvalidPhaseForAction
	}
	if err := t.requireTurn(intent.PlayerID); err != nil {
		return err
	}
	switch s.Stage {
	case core.StageAwaitingRoll:
	case core.StageAwaitingDiscards:
		return core.ErrDiscardRequired
	case core.StageAwaitingRobber, core.StageAwaitingStealTarget:
		return core.ErrRobberMustMoveBeforeContinuing
	default:
		return core.ErrInvalidPhaseForAction.Wrapf("dice already rolled this turn")
	}

	d1 := t.engine.rng.Intn(6) + 1
	d2 := t.engine.rng.Intn(6) + 1
	total := d1 + d2
	s.LastDiceRoll = total

	t.emit(core.PublicEvent(core.EventDiceRolled, core.DicePayload{
		PlayerID: intent.PlayerID,
		Die1:     d1,
		Die2:     d2,
		Total:    total,
	}))

	if total != 7 {
		grants := rules.Produce(s, total)
		for id, res := range grants {
			s.GetPlayer(id).Resources.Add(res)
		}
		s.Stage = core.StageMain
		t.emit(core.PublicEvent(core.EventResourcesProduced, core.ProductionPayload{
			Dice:   total,
			Grants: grants,
		}))
		return nil
	}

	required := rules.DiscardRequirements(s)
	if len(required) == 0 {
		s.Stage = core.StageAwaitingRobber
		return nil
	}
	s.PendingDiscards = required
	s.Stage = core.StageAwaitingDiscards
	t.emit(core.PublicEvent(core.EventDiscardRequired, core.DiscardRequiredPayload{
		Required: clonePending(required),
	}))
	return nil
}

func (t *txn) submitDiscard(intent Intent) error {
	s := t.state
	if s.Phase != core.PhaseNormalTurn || s.Stage != core.StageAwaitingDiscards {
		return core.ErrInvalidPhaseForAction
	}
	required, ok := s.PendingDiscards[intent.PlayerID]
	if !ok {
		return core.ErrInvalidPhaseForAction.Wrapf("no discard owed")
	}

	player := s.GetPlayer(intent.PlayerID)
	if err := rules.ValidateDiscard(player.Resources, required, intent.Resources); err != nil {
		return err
	}

	player.Resources.Sub(intent.Resources)
	delete(s.PendingDiscards, intent.PlayerID)
	if len(s.PendingDiscards) == 0 {
		s.Stage = core.StageAwaitingRobber
	}

	t.emit(core.PublicEvent(core.EventDiscardApplied, core.DiscardAppliedPayload{
		PlayerID:  intent.PlayerID,
		Discarded: intent.Resources.Clone(),
		Remaining: len(s.PendingDiscards),
		Automatic: intent.Automatic,
	}))
	return nil
}

func (t *txn) moveRobber(intent Intent) error {
	s := t.state
	if s.Phase != core.PhaseNormalTurn {
		return core.ErrInvalidPhaseForAction
	}
	if err := t.requireTurn(intent.PlayerID); err != nil {
		return err
	}
	if s.Stage == core.StageAwaitingDiscards {
		return core.ErrDiscardRequired
	}
	if s.Robber.MovedThisTurn {
		return core.ErrRobberAlreadyMoved
	}
	if s.Stage != core.StageAwaitingRobber {
		return core.ErrInvalidPhaseForAction
	}

	hex, err := core.ParseHexCoord(intent.Hex)
	if err != nil || !s.Board.HasHex(hex) {
		return core.ErrInvalidPlacementTarget.Wrapf("unknown hex %q", intent.Hex)
	}
	if hex == s.Robber.Hex {
		return core.ErrInvalidTargetHex
	}

	candidates := rules.StealCandidates(s, hex, intent.PlayerID)
	if intent.TargetPlayerID != "" && !slices.Contains(candidates, intent.TargetPlayerID) {
		return core.ErrInvalidStealTarget
	}

	from := s.Robber.Hex
	s.Robber.Hex = hex
	s.Robber.MovedThisTurn = true
	t.emit(core.PublicEvent(core.EventRobberMoved, core.RobberMovedPayload{
		PlayerID:   intent.PlayerID,
		From:       from,
		To:         hex,
		Candidates: candidates,
	}))

	switch {
	case intent.TargetPlayerID != "":
		t.steal(intent.PlayerID, intent.TargetPlayerID)
	case len(candidates) == 1:
		// 只有一个目标时无需选择
		t.steal(intent.PlayerID, candidates[0])
	case len(candidates) == 0:
		s.Stage = core.StageMain
	default:
		s.StealCandidates = candidates
		s.Stage = core.StageAwaitingStealTarget
	}
	return nil
}

func (t *txn) selectStealTarget(intent Intent) error {
	s := t.state
	if s.Phase != core.PhaseNormalTurn {
		return core.ErrInvalidPhaseForAction
	}
	if err := t.requireTurn(intent.PlayerID); err != nil {
		return err
	}
	switch s.Stage {
	case core.StageAwaitingStealTarget:
	case core.StageAwaitingDiscards:
		return core.ErrDiscardRequired
	case core.StageAwaitingRobber:
		return core.ErrRobberMustMoveBeforeContinuing
	default:
		return core.ErrInvalidPhaseForAction
	}
	if !slices.Contains(s.StealCandidates, intent.TargetPlayerID) {
		return core.ErrInvalidStealTarget
	}

	t.steal(intent.PlayerID, intent.TargetPlayerID)
	return nil
}

// steal 从目标随机拿走一张资源；结果只告知双方，其他人只知道发生了抢夺
func (t *txn) steal(thiefID, victimID string) {
	s := t.state
	s.StealCandidates = nil
	s.Stage = core.StageMain

	victim := s.GetPlayer(victimID)
	r, ok := rules.PickStolenResource(victim.Resources, t.engine.rng)
	if !ok {
		t.emit(core.PrivateEvent(core.EventResourceStolen, core.StealPayload{
			ThiefID:  thiefID,
			VictimID: victimID,
		}, thiefID, victimID))
		return
	}

	victim.Resources[r]--
	s.GetPlayer(thiefID).Resources[r]++

	t.emit(core.PrivateEvent(core.EventResourceStolen, core.StealPayload{
		ThiefID:  thiefID,
		VictimID: victimID,
		Resource: r,
	}, thiefID, victimID))
	t.emit(core.PublicEvent(core.EventTheftOccurred, core.StealPayload{
		ThiefID:  thiefID,
		VictimID: victimID,
	}))
}

func clonePending(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
