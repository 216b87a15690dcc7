package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hanoi-speedrapp/main/internal/usecases"
)

const (
	// tickInterval はセッションを進めて状態を配信する周期。
	// リプレイの再生タイミングはこの周期の分解能で再現される。
	tickInterval = 50 * time.Millisecond
	// writeTimeout は 1 フレームの書き込みに許す時間。
	writeTimeout = 5 * time.Second
	// maxMessageSize は受け付ける入力メッセージの上限サイズ。
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// ブラウザの開発クライアントから直接つなぐため、オリジンは検証しない。
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sessionSocketHandler はセッションの WebSocket 接続を処理する。
// 受信はプレイ入力（InputEvent の JSON）、送信は周期ごとの状態スナップショット。
// 周期ごとに Advance が呼ばれるため、リプレイとボットの進行はこの接続が駆動する。
func sessionSocketHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade が失敗した場合はレスポンスを書き込み済み。
			log.Printf("websocket upgrade failed: %v", err)
			return
		}

		serveSession(c, conn, session)
	}
}

// serveSession は 1 接続ぶんの読み書きループを回す。書き込みは
// このゴルーチンのみが行う（gorilla/websocket は並行書き込みを許さない）。
func serveSession(c *gin.Context, conn *websocket.Conn, session *usecases.GameSession) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	// 受信専用のゴルーチン。入力イベントをセッションに流し込み、
	// 接続が閉じたらチャネルを閉じてループを止める。
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("websocket read failed: %v", err)
				}
				return
			}

			var event usecases.InputEvent
			if err := json.Unmarshal(data, &event); err != nil {
				log.Printf("websocket input decode failed: %v", err)
				continue
			}
			session.HandleInput(c.Request.Context(), event)
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			session.Advance()

			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(session.View()); err != nil {
				return
			}
		}
	}
}
