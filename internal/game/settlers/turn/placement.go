package turn

import (
	"sudooom.settlers/internal/game/settlers/core"
	"sudooom.settlers/internal/game/settlers/rules"
)

func (t *txn) placement(intent Intent) error {
	s := t.state
	if err := t.requireTurn(intent.PlayerID); err != nil {
		return err
	}
	if s.Phase == core.PhaseNormalTurn {
		if err := t.requireMainStage(); err != nil {
			return err
		}
	}

	switch intent.Kind {
	case PlaceSettlement:
		v, err := core.ParseVertexID(intent.Location)
		if err != nil {
			return core.ErrInvalidPlacementTarget.Wrap(err)
		}
		if err := rules.CanPlaceSettlement(s, intent.PlayerID, v); err != nil {
			return err
		}
		t.placeSettlement(intent.PlayerID, v)

	case PlaceCity:
		v, err := core.ParseVertexID(intent.Location)
		if err != nil {
			return core.ErrInvalidPlacementTarget.Wrap(err)
		}
		if err := rules.CanPlaceCity(s, intent.PlayerID, v); err != nil {
			return err
		}
		t.placeCity(intent.PlayerID, v)

	case PlaceRoad:
		e, err := core.ParseEdgeID(intent.Location)
		if err != nil {
			return core.ErrInvalidPlacementTarget.Wrap(err)
		}
		if err := rules.CanPlaceRoad(s, intent.PlayerID, e); err != nil {
			return err
		}
		t.placeRoad(intent.PlayerID, e)

	default:
		return core.ErrInvalidIntent.Wrapf("unknown placement kind %q", intent.Kind)
	}
	return nil
}

func (t *txn) placeSettlement(playerID string, v core.VertexID) {
	s := t.state
	player := s.GetPlayer(playerID)

	var cost core.Resources
	if s.Phase == core.PhaseNormalTurn {
		cost = rules.CostSettlement.Clone()
		player.Resources.Sub(cost)
	} else {
		placed := v
		s.Setup.Settlement = &placed
	}

	s.Buildings[v] = &core.Building{Kind: core.BuildingSettlement, Owner: playerID, Vertex: v}
	player.Buildings = append(player.Buildings, v)

	t.emit(core.PublicEvent(core.EventPlacementApplied, core.PlacementPayload{
		PlayerID: playerID,
		Kind:     string(PlaceSettlement),
		Vertex:   &v,
		Cost:     cost,
		Phase:    s.Phase,
	}))
	// 新建筑可能截断对手的道路
	t.refreshLongestRoad()
}

func (t *txn) placeCity(playerID string, v core.VertexID) {
	s := t.state
	player := s.GetPlayer(playerID)
	player.Resources.Sub(rules.CostCity)
	s.Buildings[v].Kind = core.BuildingCity

	t.emit(core.PublicEvent(core.EventPlacementApplied, core.PlacementPayload{
		PlayerID: playerID,
		Kind:     string(PlaceCity),
		Vertex:   &v,
		Cost:     rules.CostCity.Clone(),
		Phase:    s.Phase,
	}))
}

func (t *txn) placeRoad(playerID string, e core.EdgeID) {
	s := t.state
	player := s.GetPlayer(playerID)

	var cost core.Resources
	if s.Phase == core.PhaseNormalTurn {
		cost = rules.CostRoad.Clone()
		player.Resources.Sub(cost)
	} else {
		placed := e
		s.Setup.Road = &placed
	}

	s.Roads[e] = &core.Road{Edge: e, Owner: playerID}
	player.Roads = append(player.Roads, e)

	t.emit(core.PublicEvent(core.EventPlacementApplied, core.PlacementPayload{
		PlayerID: playerID,
		Kind:     string(PlaceRoad),
		Edge:     &e,
		Cost:     cost,
		Phase:    s.Phase,
	}))
	t.refreshLongestRoad()
}

// endTurn 初始放置：两件都放好才能推进；到达蛇形顺序末尾时发放初始资源并进入正常回合
// 正常回合：清理掷骰与强盗标记，按正序交给下一位玩家
func (t *txn) endTurn(intent Intent) error {
	s := t.state
	if err := t.requireTurn(intent.PlayerID); err != nil {
		return err
	}

	if s.Phase == core.PhaseInitialPlacement {
		if s.Setup.Settlement == nil || s.Setup.Road == nil {
			return core.ErrInvalidPhaseForAction.Wrapf("settlement and road must both be placed")
		}
		s.Setup = core.SetupProgress{}
		s.InitialPlacementIndex++
		s.BuildMode = ""

		if s.InitialPlacementIndex < len(s.SnakeOrder) {
			s.CurrentTurnPlayerID = s.SnakeOrder[s.InitialPlacementIndex]
			t.emitTurn()
			return nil
		}

		grants := rules.SetupGrant(s)
		for id, res := range grants {
			s.GetPlayer(id).Resources.Add(res)
		}
		s.Phase = core.PhaseNormalTurn
		s.Stage = core.StageAwaitingRoll
		s.CurrentTurnPlayerID = s.PlayerOrder[0]
		s.TurnNumber = 1

		t.emit(core.PublicEvent(core.EventSetupCompleted, core.SetupCompletedPayload{Grants: grants}))
		t.emitTurn()
		t.engine.logger.Info("初始放置完成", "roomId", s.RoomID)
		return nil
	}

	if err := t.requireMainStage(); err != nil {
		return err
	}

	idx := s.GetPlayerIndex(intent.PlayerID)
	s.CurrentTurnPlayerID = s.PlayerOrder[(idx+1)%len(s.PlayerOrder)]
	s.TurnNumber++
	s.Stage = core.StageAwaitingRoll
	s.LastDiceRoll = 0
	s.Robber.MovedThisTurn = false
	s.BuildMode = ""
	t.emitTurn()
	return nil
}

func (t *txn) emitTurn() {
	s := t.state
	t.emit(core.PublicEvent(core.EventTurnChanged, core.TurnPayload{
		Phase:           s.Phase,
		Stage:           s.Stage,
		CurrentPlayerID: s.CurrentTurnPlayerID,
		PlacementIndex:  s.InitialPlacementIndex,
	}))
}
