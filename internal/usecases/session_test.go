package usecases

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/hanoi-speedrapp/main/internal/domain"
)

// --- テスト用のスタブ実装 ---

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequenceIDGenerator struct {
	mu     sync.Mutex
	values []string
	index  int
}

func (s *sequenceIDGenerator) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.values) {
		return ""
	}
	value := s.values[s.index]
	s.index++
	return value
}

type memoryScoreRepository struct {
	mu    sync.Mutex
	saved []Score
}

func (m *memoryScoreRepository) Save(_ context.Context, _ Header, score Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, score)
	return nil
}

func (m *memoryScoreRepository) LoadAll(_ context.Context) (map[Header][]Score, error) {
	return nil, nil
}

func newTestSession(t *testing.T, cfg GameConfig) (*GameSession, *ScoreBook, *manualClock, *memoryScoreRepository) {
	t.Helper()

	clock := newManualClock()
	scores := NewScoreBook()
	repo := &memoryScoreRepository{}
	manager := NewSessionManager(domain.NewSolver(), scores, repo, WithClock(clock))

	session, err := manager.Create(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return session, scores, clock, repo
}

// 古典的な 3 枚ディスクの 7 手最短手順。
var classicSolution = [][2]int{{1, 3}, {1, 2}, {3, 2}, {1, 3}, {2, 1}, {2, 3}, {1, 3}}

// playClassicSolution は 1 秒間隔で最短手順を打つ。最初の手の経過時刻は 0 に
// なるため、ラン全体の所要時間は 6 秒になる。
func playClassicSolution(t *testing.T, session *GameSession, clock *manualClock) {
	t.Helper()
	for i, m := range classicSolution {
		if i > 0 {
			clock.Advance(time.Second)
		}
		if !session.FullMove(context.Background(), m[0], m[1]) {
			t.Fatalf("move %d (%v) must be applied", i, m)
		}
	}
}

func TestFirstMoveStartsPlaying(t *testing.T) {
	session, _, _, _ := newTestSession(t, GameConfig{Disks: 3})

	if view := session.View(); view.State != StateReset {
		t.Fatalf("state = %s, want %s", view.State, StateReset)
	}

	if !session.FullMove(context.Background(), 1, 3) {
		t.Fatal("legal move must be applied")
	}

	view := session.View()
	if view.State != StatePlaying {
		t.Fatalf("state = %s, want %s", view.State, StatePlaying)
	}
	if view.Moves != 1 {
		t.Fatalf("moves = %d, want 1", view.Moves)
	}
}

func TestInvalidMoveIsRejected(t *testing.T) {
	session, _, _, _ := newTestSession(t, GameConfig{Disks: 3})

	if session.FullMove(context.Background(), 1, 1) {
		t.Fatal("self move must be rejected")
	}
	if session.FullMove(context.Background(), 2, 3) {
		t.Fatal("move from an empty pole must be rejected")
	}
	if view := session.View(); view.State != StateReset || view.Moves != 0 {
		t.Fatalf("rejected moves must not change the run: %+v", view)
	}
}

func TestCompletionRecordsScoreOnce(t *testing.T) {
	session, scores, clock, repo := newTestSession(t, GameConfig{Disks: 3})

	playClassicSolution(t, session, clock)

	view := session.View()
	if view.State != StateFinished {
		t.Fatalf("state = %s, want %s", view.State, StateFinished)
	}
	if view.Elapsed != 6*time.Second {
		t.Fatalf("elapsed = %v, want 6s", view.Elapsed)
	}

	recorded := scores.Query(session.Header())
	if len(recorded) != 1 {
		t.Fatalf("recorded scores = %d, want 1", len(recorded))
	}
	if recorded[0].Time != 6*time.Second {
		t.Fatalf("score time = %v, want 6s", recorded[0].Time)
	}
	if len(recorded[0].Moves) != 7 {
		t.Fatalf("score moves = %d, want 7", len(recorded[0].Moves))
	}
	if len(repo.saved) != 1 {
		t.Fatalf("persisted scores = %d, want 1", len(repo.saved))
	}

	// 完走後の移動は無視され、スコアが増えることもない。
	if session.FullMove(context.Background(), 3, 1) {
		t.Fatal("moves must be ignored once finished")
	}
	if got := scores.Query(session.Header()); len(got) != 1 {
		t.Fatalf("recorded scores after extra move = %d, want 1", len(got))
	}
}

func TestCompletionSummary(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})

	playClassicSolution(t, session, clock)

	summary := session.View().Summary
	if summary == nil {
		t.Fatal("finished session must expose a summary")
	}
	if summary.Moves != 7 {
		t.Fatalf("summary moves = %d, want 7", summary.Moves)
	}
	if summary.RequiredMoves != "7" {
		t.Fatalf("required moves = %q, want 7", summary.RequiredMoves)
	}
	if !summary.Optimal {
		t.Fatal("7-move run of a 7-move puzzle must be optimal")
	}
	if summary.OptimalMovesPerSecond != nil {
		t.Fatal("optimal run must not report a separate optimal pace")
	}
	if want := 7.0 / 6.0; summary.MovesPerSecond != want {
		t.Fatalf("moves per second = %v, want %v", summary.MovesPerSecond, want)
	}
	// 全ての手が 1 秒間隔なので安定度は 1.0。
	if summary.Consistency != 1.0 {
		t.Fatalf("consistency = %v, want 1.0", summary.Consistency)
	}
	if !summary.NewHighscore {
		t.Fatal("first recorded run must be a new highscore")
	}
}

func TestSecondRunComparesToBest(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})
	playClassicSolution(t, session, clock)

	session.SoftReset()
	session.Advance()

	// 2 回目は 1 手あたり 2 秒かけて完走する（所要 12 秒）。
	for i, m := range classicSolution {
		if i > 0 {
			clock.Advance(2 * time.Second)
		}
		session.FullMove(context.Background(), m[0], m[1])
	}

	summary := session.View().Summary
	if summary == nil {
		t.Fatal("finished session must expose a summary")
	}
	if summary.BestTime == nil || *summary.BestTime != 6*time.Second {
		t.Fatalf("best time = %v, want 6s", summary.BestTime)
	}
	if summary.BestDifference == nil || *summary.BestDifference != 6*time.Second {
		t.Fatalf("best difference = %v, want +6s", summary.BestDifference)
	}
	if summary.NewHighscore {
		t.Fatal("slower run must not count as a new highscore")
	}
}

func TestUndoRestoresBoard(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})

	before := session.View().Poles
	clock.Advance(time.Second)
	session.FullMove(context.Background(), 1, 3)

	session.UndoMove(context.Background())

	if got := session.View().Poles; !reflect.DeepEqual(got, before) {
		t.Fatalf("undo did not restore the board: %v vs %v", got, before)
	}
}

func TestUndoPastBeginningIsNoop(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})

	clock.Advance(time.Second)
	session.FullMove(context.Background(), 1, 3)

	session.UndoMove(context.Background())
	moves := session.View().Moves
	session.UndoMove(context.Background())

	if got := session.View().Moves; got != moves {
		t.Fatalf("undo past the beginning must be a no-op: moves %d -> %d", moves, got)
	}
}

func TestUndoAppliesInverseThroughHistory(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})

	clock.Advance(time.Second)
	session.FullMove(context.Background(), 1, 3)

	// アンドゥは逆手を通常経路で適用するため手数も履歴も増える。
	session.UndoMove(context.Background())

	if got := session.View().Moves; got != 2 {
		t.Fatalf("moves = %d, want 2", got)
	}
}

func TestForwardMoveDiscardsRedo(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})

	clock.Advance(time.Second)
	session.FullMove(context.Background(), 1, 3)
	session.UndoMove(context.Background())

	// 新しい前進はカーソルを履歴末尾へ戻し、以降のアンドゥは
	// 直近の前進の逆手になる。
	session.FullMove(context.Background(), 1, 2)
	if got := session.View().Poles[1]; !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("pole 2 = %v, want [1]", got)
	}

	session.UndoMove(context.Background())
	if got := session.View().Poles[1]; len(got) != 0 {
		t.Fatalf("undo after a forward move must revert that move: pole 2 = %v", got)
	}
}

func TestResetOnInvalidMovePolicy(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3, ResetOnInvalidMove: true})

	clock.Advance(time.Second)
	session.FullMove(context.Background(), 1, 3)
	// 不正手でランがやり直しになる。
	session.FullMove(context.Background(), 2, 2)

	view := session.View()
	if view.State != StatePreReset {
		t.Fatalf("state = %s, want %s", view.State, StatePreReset)
	}
	if view.Moves != 0 {
		t.Fatalf("moves = %d, want 0", view.Moves)
	}
}

func TestSoftResetSettlesOnNextTick(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})

	clock.Advance(time.Second)
	session.FullMove(context.Background(), 1, 3)
	session.SoftReset()

	if got := session.View().State; got != StatePreReset {
		t.Fatalf("state = %s, want %s", got, StatePreReset)
	}

	session.Advance()

	view := session.View()
	if view.State != StateReset {
		t.Fatalf("state = %s, want %s", view.State, StateReset)
	}
	want := []int{3, 2, 1}
	if !reflect.DeepEqual(view.Poles[0], want) {
		t.Fatalf("start pole = %v, want %v", view.Poles[0], want)
	}
}

func TestBotPlaySolvesClassic(t *testing.T) {
	session, scores, _, _ := newTestSession(t, GameConfig{Disks: 3})

	session.BotPlay()

	view := session.View()
	if view.State != StateFinished {
		t.Fatalf("state = %s, want %s", view.State, StateFinished)
	}
	if view.Player != PlayerBot {
		t.Fatalf("player = %s, want %s", view.Player, PlayerBot)
	}
	if view.Moves != 7 {
		t.Fatalf("moves = %d, want 7", view.Moves)
	}
	// ボットのランはスコアとして記録しない。
	if got := scores.Query(session.Header()); len(got) != 0 {
		t.Fatalf("recorded scores = %d, want 0", len(got))
	}
}

func TestBotPlayExceedsFrameStewartOptimum(t *testing.T) {
	session, _, _, _ := newTestSession(t, GameConfig{Poles: 4, Disks: 3})

	session.BotPlay()

	view := session.View()
	if view.State != StateFinished {
		t.Fatalf("state = %s, want %s", view.State, StateFinished)
	}
	// ボットは 3 本ポールの再帰解法しか知らないため、4 本ポールの
	// 最短手数 5 を上回る 7 手で完走する。
	if view.Moves != 7 {
		t.Fatalf("moves = %d, want 7", view.Moves)
	}
	if count := view.RequiredMovesCount; count == nil || *count != 5 {
		t.Fatalf("required moves = %v, want 5", count)
	}
}

func TestBotPlayRequiresResetState(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})

	clock.Advance(time.Second)
	session.FullMove(context.Background(), 1, 3)
	session.BotPlay()

	if got := session.View().Player; got != PlayerHuman {
		t.Fatalf("bot must not start mid-run: player = %s", got)
	}
}

func TestReplayReproducesRun(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})
	playClassicSolution(t, session, clock)

	if err := session.StartReplay(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := session.View().Player; got != PlayerReplay {
		t.Fatalf("player = %s, want %s", got, PlayerReplay)
	}

	// 最初の手は経過時刻 0 で記録されているため、最初のティックで適用される。
	session.Advance()
	if got := session.View().Moves; got != 1 {
		t.Fatalf("moves after first tick = %d, want 1", got)
	}

	// 1 ティックにつき高々 1 手。残りの手は記録された 1 秒間隔で再生される。
	session.Advance()
	if got := session.View().Moves; got != 1 {
		t.Fatalf("second move must wait for its timestamp: moves = %d", got)
	}

	for i := 1; i < len(classicSolution); i++ {
		clock.Advance(time.Second)
		session.Advance()
	}

	view := session.View()
	if view.State != StateFinished {
		t.Fatalf("state = %s, want %s", view.State, StateFinished)
	}
	if view.Moves != 7 {
		t.Fatalf("moves = %d, want 7", view.Moves)
	}
	if view.Elapsed != 6*time.Second {
		t.Fatalf("elapsed = %v, want the recorded 6s", view.Elapsed)
	}
}

func TestReplayMissingScore(t *testing.T) {
	session, _, _, _ := newTestSession(t, GameConfig{Disks: 3})

	if err := session.StartReplay(0); err != ErrScoreNotFound {
		t.Fatalf("expected ErrScoreNotFound, got %v", err)
	}
}

func TestReplayIgnoresDirectMoves(t *testing.T) {
	session, _, clock, _ := newTestSession(t, GameConfig{Disks: 3})
	playClassicSolution(t, session, clock)

	if err := session.StartReplay(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session.HandleInput(context.Background(), InputEvent{Type: InputKeyPress, Key: "D"})
	if got := session.View().Moves; got != 0 {
		t.Fatalf("human input during replay must be ignored: moves = %d", got)
	}
}

func TestBlindfoldHidesPoles(t *testing.T) {
	session, _, _, _ := newTestSession(t, GameConfig{Disks: 3, Blindfold: true})

	if view := session.View(); view.Poles != nil {
		t.Fatalf("blindfold view must omit pole contents: %v", view.Poles)
	}
}
