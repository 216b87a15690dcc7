package usecases

import "context"

// InputModes は有効な人間プレイの入力モード。グローバルなレジストリではなく
// セッションが所有する明示的な設定として持ち回る。
type InputModes struct {
	// QuickKeys は 1 キー 1 移動のホットキーモード。
	QuickKeys bool `json:"quick_keys"`
	// SwiftKeys は数字キーで移動元・移動先のポールを順に選ぶモード。
	SwiftKeys bool `json:"swift_keys"`
	// ClickPlay はポールのクリック 2 回で移動元・移動先を選ぶモード。
	ClickPlay bool `json:"click_play"`
	// DragAndDrop はポール間のドラッグ＆ドロップで移動するモード。
	DragAndDrop bool `json:"drag_and_drop"`
}

// DefaultInputModes は全モードを有効にした設定を返す。
func DefaultInputModes() InputModes {
	return InputModes{
		QuickKeys:   true,
		SwiftKeys:   true,
		ClickPlay:   true,
		DragAndDrop: true,
	}
}

// QuickKey はホットキー 1 つと移動（1 始まりのポール番号）の対応。
type QuickKey struct {
	Key  string `json:"key"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// KeyBindings は人間プレイのキー割り当て。
type KeyBindings struct {
	Quick []QuickKey `json:"quick"`
	Reset string     `json:"reset"`
	Undo  string     `json:"undo"`
}

// DefaultKeyBindings は既定のキー割り当てを返す。ホットキーは
// ホームポジションで 3 本ポールの全組み合わせを押せる配置。
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Quick: []QuickKey{
			{Key: "D", From: 1, To: 2},
			{Key: "F", From: 1, To: 3},
			{Key: "S", From: 2, To: 1},
			{Key: "L", From: 2, To: 3},
			{Key: "J", From: 3, To: 1},
			{Key: "K", From: 3, To: 2},
		},
		Reset: "R",
		Undo:  "Z",
	}
}

// InputEventType は外部ドライバから届く生入力の種別。
type InputEventType string

const (
	// InputKeyPress はキー押下。Key フィールドを使う。
	InputKeyPress InputEventType = "KEY_PRESS"
	// InputPoleClick はポールのクリック。Pole フィールドを使う。
	InputPoleClick InputEventType = "POLE_CLICK"
	// InputDragStart はポール上でのドラッグ開始。Pole フィールドを使う。
	InputDragStart InputEventType = "DRAG_START"
	// InputDragStop はドラッグ終了。TargetPole はポインタ直下のポール
	// （どのポールの上でもない場合は 0）。
	InputDragStop InputEventType = "DRAG_STOP"
)

// InputEvent は外部ドライバが 1 ティックごとに供給する入力信号。
// エンジン自身はハードウェアをポーリングしない。
type InputEvent struct {
	Type       InputEventType `json:"type"`
	Key        string         `json:"key,omitempty"`
	Pole       int            `json:"pole,omitempty"`
	TargetPole int            `json:"target_pole,omitempty"`
}

// スイフトキーの数字 1..9 をポール番号へ対応させる。
var swiftKeyPoles = map[string]int{
	"1": 1, "2": 2, "3": 3,
	"4": 4, "5": 5, "6": 6,
	"7": 7, "8": 8, "9": 9,
}

// HandleInput は生入力を有効なモードに従って 0 手以上の移動へ変換する。
// 全モードが FullMove と同じ入口に合流する。人間プレイ中のみ有効。
func (s *GameSession) HandleInput(ctx context.Context, event InputEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settle()
	if s.player != PlayerHuman {
		return
	}

	switch event.Type {
	case InputKeyPress:
		s.handleKeyPress(ctx, event.Key)
	case InputPoleClick:
		if s.modes.ClickPlay {
			s.handlePoleSelect(ctx, event.Pole, false)
		}
	case InputDragStart:
		s.handleDragStart(event.Pole)
	case InputDragStop:
		s.handleDragStop(ctx, event.TargetPole)
	}
}

func (s *GameSession) handleKeyPress(ctx context.Context, key string) {
	if key == s.bindings.Reset {
		s.softReset()
		return
	}

	if s.modes.QuickKeys {
		for _, qk := range s.bindings.Quick {
			if qk.Key == key {
				s.fullMove(ctx, qk.From, qk.To)
				s.resetUndo()
				return
			}
		}
		if key == s.bindings.Undo && s.state == StatePlaying {
			s.undoMove(ctx)
			return
		}
	}

	if s.modes.SwiftKeys {
		if pole, ok := swiftKeyPoles[key]; ok {
			s.handlePoleSelect(ctx, pole, true)
		}
	}
}

// handlePoleSelect はスイフトキーとクリックプレイが共有する 2 タップ選択。
// 1 タップ目が移動元、2 タップ目が移動先。requireNonEmpty が真の場合、
// 空のポールは移動元として選べない。
func (s *GameSession) handlePoleSelect(ctx context.Context, pole int, requireNonEmpty bool) {
	if s.state == StateFinished {
		s.selectedPole = 0
		return
	}
	if pole < 1 || pole > s.game.PolesCount {
		return
	}

	if s.selectedPole == 0 {
		if requireNonEmpty {
			if _, ok := s.game.TopDisk(pole); !ok {
				return
			}
		}
		s.selectedPole = pole
		return
	}

	from := s.selectedPole
	s.selectedPole = 0
	s.fullMove(ctx, from, pole)
	s.resetUndo()
}

func (s *GameSession) handleDragStart(pole int) {
	if !s.modes.DragAndDrop || s.state == StateFinished {
		s.draggingPole = 0
		return
	}
	if pole >= 1 && pole <= s.game.PolesCount {
		s.draggingPole = pole
	}
}

func (s *GameSession) handleDragStop(ctx context.Context, target int) {
	if !s.modes.DragAndDrop {
		return
	}
	from := s.draggingPole
	s.draggingPole = 0
	if from == 0 || target == 0 || target == from {
		return
	}
	if target < 1 || target > s.game.PolesCount {
		return
	}

	s.fullMove(ctx, from, target)
	s.resetUndo()
}
