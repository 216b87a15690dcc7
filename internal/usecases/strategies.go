package usecases

// BotPlay は教科書どおりの 3 本ポール再帰解法でパズルを一気に解く。
// Reset 状態からのみ開始でき、全手を同期的に適用して Finished で終わる。
// ポールが 4 本以上でも固定の 3 本サブセット上で動くため、その場合の手数は
// Frame–Stewart が報告する最短手数を上回る。ボットのランはスコアとして
// 記録しない。
func (s *GameSession) BotPlay() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settle()
	if s.state != StateReset {
		return
	}

	s.player = PlayerBot
	start := s.clock.Now()
	s.startedAt = start
	s.state = StatePlaying
	s.moves = 0

	var solve func(n, fromRod, toRod, auxRod int)
	solve = func(n, fromRod, toRod, auxRod int) {
		if n == 0 {
			return
		}
		solve(n-1, fromRod, auxRod, toRod)
		if s.game.Shift(fromRod, toRod) {
			s.moves++
		}
		solve(n-1, auxRod, toRod, fromRod)
	}

	// 目的ポールと中継ポールの選び方は end_pole 未指定時に開始ポールから
	// 巡回的に決める（0 始まりに直して剰余を取り、1 始まりへ戻す）。
	endPole := s.game.EndPole
	if endPole == 0 {
		endPole = s.game.StartPole
	}
	auxSeed := s.game.EndPole
	if auxSeed == 0 {
		auxSeed = s.game.StartPole + 1
	}

	solve(
		s.game.DisksCount,
		s.game.StartPole,
		endPole%s.game.PolesCount+1,
		auxSeed%s.game.PolesCount+1,
	)

	s.state = StateFinished
	s.finishedIn = s.clock.Now().Sub(start)
	s.summary = s.buildSummary(s.finishedIn, nil)
}

// StartReplay は同じ Header の記録済みスコア（速い順の index 番目）の
// リプレイを開始する。盤面をリセットし、以降の Advance が記録された
// 経過時間に合わせて手を再適用する。
func (s *GameSession) StartReplay(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, ok := s.scores.Get(s.header(), index)
	if !ok {
		return ErrScoreNotFound
	}

	s.game.Reset()
	s.history = s.history[:0]
	s.undoIndex = 0
	s.moves = 0
	s.summary = nil
	s.selectedPole = 0
	s.draggingPole = 0

	s.player = PlayerReplay
	s.replayScore = score
	s.replayCursor = 0
	s.startedAt = s.clock.Now()
	s.state = StatePlaying

	return nil
}

// replayStep は経過時間が記録に達していれば次の 1 手を適用する。
// 1 ティックにつき高々 1 手。手順を使い切ったら記録どおりの所要時間で
// Finished へ遷移する。ロック保持前提。
func (s *GameSession) replayStep() {
	if s.state != StatePlaying {
		return
	}
	if s.replayCursor >= len(s.replayScore.Moves) {
		return
	}

	move := s.replayScore.Moves[s.replayCursor]
	if s.clock.Now().Sub(s.startedAt) < move.Elapsed {
		return
	}

	s.game.Shift(move.From, move.To)
	s.replayCursor++
	s.moves++

	if s.replayCursor >= len(s.replayScore.Moves) {
		s.state = StateFinished
		s.finishedIn = s.replayScore.Time
		s.summary = s.buildSummary(s.replayScore.Time, nil)
	}
}
