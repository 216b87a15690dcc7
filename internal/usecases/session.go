package usecases

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hanoi-speedrapp/main/internal/domain"
)

// StateKind はランの進行状態を表す。
type StateKind string

const (
	// StatePreReset はリセット要求後、次のティックで入力サブ状態を
	// 片付けるまでの過渡状態。
	StatePreReset StateKind = "PRE_RESET"
	// StateReset は開始前の初期状態。最初の移動で Playing へ遷移する。
	StateReset StateKind = "RESET"
	// StatePlaying は計測中の状態。
	StatePlaying StateKind = "PLAYING"
	// StateFinished は完走後の状態。以降の移動は受け付けない。
	StateFinished StateKind = "FINISHED"
)

// PlayerKind は入力をどの戦略で手に変換するかを表す。
type PlayerKind string

const (
	PlayerHuman  PlayerKind = "HUMAN"
	PlayerBot    PlayerKind = "BOT"
	PlayerReplay PlayerKind = "REPLAY"
)

// GameSession は 1 つのパズルセッションを表す。盤面・履歴・状態機械・
// 入力モードを束ね、完走時にスコアを記録する。
// HTTP と WebSocket の両方から呼ばれるためミューテックスで保護する。
type GameSession struct {
	mu sync.Mutex

	id     string
	game   *domain.Game
	solver *domain.Solver
	scores *ScoreBook
	repo   ScoreRepository
	clock  Clock

	state      StateKind
	startedAt  time.Time
	finishedIn time.Duration
	summary    *CompletionSummary

	moves     uint64
	history   []domain.Move
	undoIndex int

	player       PlayerKind
	replayScore  Score
	replayCursor int

	modes    InputModes
	bindings KeyBindings

	blindfold          bool
	extraMode          bool
	resetOnInvalidMove bool

	// 2 タップ選択（スイフトキー／クリック）の 1 つ目のポール。0 は未選択。
	selectedPole int
	// ドラッグ中の移動元ポール。0 はドラッグしていない状態。
	draggingPole int
}

func newGameSession(id string, cfg GameConfig, solver *domain.Solver, scores *ScoreBook, repo ScoreRepository, clock Clock) (*GameSession, error) {
	cfg = cfg.withDefaults()

	game := &domain.Game{
		PolesCount:   cfg.Poles,
		DisksCount:   cfg.Disks,
		StartPole:    cfg.StartPole,
		EndPole:      cfg.EndPole,
		IllegalMoves: cfg.IllegalMoves,
	}
	if err := game.Validate(cfg.ExtraMode); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err)
	}
	game.Reset()

	modes := DefaultInputModes()
	if cfg.Modes != nil {
		modes = *cfg.Modes
	}

	return &GameSession{
		id:     id,
		game:   game,
		solver: solver,
		scores: scores,
		repo:   repo,
		clock:  clock,

		state:  StateReset,
		player: PlayerHuman,

		modes:    modes,
		bindings: DefaultKeyBindings(),

		blindfold:          cfg.Blindfold,
		extraMode:          cfg.ExtraMode,
		resetOnInvalidMove: cfg.ResetOnInvalidMove,
	}, nil
}

// ID はセッション識別子を返す。
func (s *GameSession) ID() string {
	return s.id
}

// FullMove は全ての人間プレイモードが合流する移動の入口。移動の成否を返す。
// 成功時は Reset からの遷移・手数の加算・履歴の追記まで行い、失敗時は
// reset_on_invalid_move ポリシーが有効ならランをやり直す。
// 前進の試行はリドゥの余地を常に破棄する（線形アンドゥ）。
func (s *GameSession) FullMove(ctx context.Context, from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settle()
	applied := s.fullMove(ctx, from, to)
	s.resetUndo()
	return applied
}

// fullMove は呼び出し元がロックを保持している前提の実装本体。
// アンドゥ経路からも使うため、ここではアンドゥカーソルを触らない。
func (s *GameSession) fullMove(ctx context.Context, from, to int) bool {
	if s.state == StateFinished {
		return false
	}

	if s.game.Shift(from, to) {
		if s.state == StateReset || s.state == StatePreReset {
			s.startedAt = s.clock.Now()
			s.state = StatePlaying
		}
		s.moves++
		if s.state == StatePlaying {
			s.history = append(s.history, domain.Move{
				Elapsed: s.clock.Now().Sub(s.startedAt),
				From:    from,
				To:      to,
			})
		}
		s.checkFinished(ctx)
		return true
	}

	if s.resetOnInvalidMove {
		s.softReset()
	}
	return false
}

// UndoMove は直前の手の逆手を通常の移動経路で適用する。カーソルが先頭の場合は
// 何もしない。逆手が不正手で弾かれた場合も黙って失敗する（illegal_moves を
// ラン中に切り替えた場合にのみ起こり得る）。
func (s *GameSession) UndoMove(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != PlayerHuman || s.state != StatePlaying {
		return
	}
	s.undoMove(ctx)
}

func (s *GameSession) undoMove(ctx context.Context) {
	if s.undoIndex < 1 || s.undoIndex > len(s.history) {
		return
	}
	move := s.history[s.undoIndex-1]
	s.fullMove(ctx, move.To, move.From)
	s.undoIndex--
}

func (s *GameSession) resetUndo() {
	s.undoIndex = len(s.history)
}

// SoftReset はランをやり直す。盤面と履歴を消し、プレイヤーを Human に戻す。
// セッション設定（ポール数・入力モードなど）は保持する。
func (s *GameSession) SoftReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.softReset()
}

func (s *GameSession) softReset() {
	s.game.Reset()
	s.history = s.history[:0]
	s.undoIndex = 0
	s.moves = 0
	s.summary = nil
	s.player = PlayerHuman
	s.replayScore = Score{}
	s.replayCursor = 0
	s.state = StatePreReset
}

// settle は PreReset の過渡状態を解消する。入力モードの選択状態を
// 片付けてから Reset に戻す。ロック保持前提。
func (s *GameSession) settle() {
	if s.state == StatePreReset {
		s.selectedPole = 0
		s.draggingPole = 0
		s.state = StateReset
	}
}

// checkFinished は移動後の終局判定と Playing → Finished 遷移を行う。
// 完走の瞬間にサマリを確定し、人間のランのみスコアとして記録する。
func (s *GameSession) checkFinished(ctx context.Context) {
	if s.state != StatePlaying || !s.game.Finished() {
		return
	}

	elapsed := s.clock.Now().Sub(s.startedAt)
	s.state = StateFinished
	s.finishedIn = elapsed

	if s.player == PlayerHuman {
		s.saveScore(ctx, elapsed)
	} else {
		s.summary = s.buildSummary(elapsed, nil)
	}
}

func (s *GameSession) saveScore(ctx context.Context, elapsed time.Duration) {
	header := s.header()
	score := Score{
		Time:  elapsed,
		Date:  s.clock.Now().UTC().Add(-elapsed),
		Moves: append([]domain.Move(nil), s.history...),
	}

	var prior *Score
	if best, ok := s.scores.Best(header); ok {
		prior = &best
	}
	s.summary = s.buildSummary(elapsed, prior)

	s.scores.Record(header, score)
	if s.repo != nil {
		if err := s.repo.Save(ctx, header, score); err != nil {
			log.Printf("failed to persist score: %v", err)
		}
	}
}

func (s *GameSession) buildSummary(elapsed time.Duration, prior *Score) *CompletionSummary {
	required := s.solver.RequiredMoves(s.game.DisksCount, s.game.PolesCount)

	summary := &CompletionSummary{
		Time:          elapsed,
		Moves:         s.moves,
		RequiredMoves: required.String(),
		Optimal:       s.moves <= required.Number(),
		Consistency:   domain.Consistency(s.history),
	}

	if seconds := elapsed.Seconds(); seconds > 0 {
		summary.MovesPerSecond = float64(s.moves) / seconds
		if count, ok := required.Count(); ok && s.moves > count {
			optimal := float64(count) / seconds
			summary.OptimalMovesPerSecond = &optimal
		}
	}

	if prior != nil {
		best := prior.Time
		diff := elapsed - best
		summary.BestTime = &best
		summary.BestDifference = &diff
		summary.NewHighscore = elapsed < best
	} else {
		summary.NewHighscore = true
	}

	return summary
}

func (s *GameSession) header() Header {
	return Header{
		Poles:        s.game.PolesCount,
		Disks:        s.game.DisksCount,
		Blindfold:    s.blindfold,
		IllegalMoves: s.game.IllegalMoves,
		StartPole:    s.game.StartPole,
		EndPole:      s.game.EndPole,
	}
}

// Header はこのセッションのハイスコア比較キーを返す。
func (s *GameSession) Header() Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header()
}

// Advance は 1 ティック分の時間駆動処理を行う。PreReset の解消と、
// リプレイ中であれば経過時間に達した次の 1 手の適用を担う。
func (s *GameSession) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settle()
	if s.player == PlayerReplay {
		s.replayStep()
	}
}

// SessionView は表示用のセッションスナップショット。
type SessionView struct {
	ID     string     `json:"id"`
	State  StateKind  `json:"state"`
	Player PlayerKind `json:"player"`
	Moves  uint64     `json:"moves"`
	// Poles は各ポールのディスク列（底が先頭）。目隠しモードでは省略される。
	Poles  [][]int `json:"poles,omitempty"`
	Header Header  `json:"header"`
	// Elapsed は計測中の経過時間。Finished 後は所要時間で固定される。
	Elapsed            time.Duration      `json:"elapsed"`
	RequiredMoves      string             `json:"required_moves"`
	RequiredMovesCount *uint64            `json:"required_moves_count,omitempty"`
	Summary            *CompletionSummary `json:"summary,omitempty"`
}

// View は現在の状態の読み取り専用スナップショットを返す。
func (s *GameSession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		ID:     s.id,
		State:  s.state,
		Player: s.player,
		Moves:  s.moves,
		Header: s.header(),
	}

	if !s.blindfold {
		view.Poles = s.game.Poles()
	}

	switch s.state {
	case StatePlaying:
		view.Elapsed = s.clock.Now().Sub(s.startedAt)
	case StateFinished:
		view.Elapsed = s.finishedIn
		view.Summary = s.summary
	}

	required := s.solver.RequiredMoves(s.game.DisksCount, s.game.PolesCount)
	view.RequiredMoves = required.String()
	if count, ok := required.Count(); ok {
		view.RequiredMovesCount = &count
	}

	return view
}
