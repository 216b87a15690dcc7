package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hanoi-speedrapp/main/internal/domain"
	"github.com/hanoi-speedrapp/main/internal/usecases"
)

// SessionUsecase はハンドラが利用するセッション管理の最小インタフェース。
type SessionUsecase interface {
	Create(cfg usecases.GameConfig) (*usecases.GameSession, error)
	Get(id string) (*usecases.GameSession, error)
	Delete(id string) error
	Defaults() usecases.GameConfig
	SetDefaults(cfg usecases.GameConfig)
}

// ScoreQueries はハンドラが利用するスコア照会の最小インタフェース。
type ScoreQueries interface {
	Query(header usecases.Header) []usecases.Score
}

// SnapshotStore は設定スナップショットの永続化先。
type SnapshotStore interface {
	Save(snapshot usecases.Snapshot) error
}

// NewRouter は Gin の Engine を生成しルーティングを設定する。
func NewRouter(sessions SessionUsecase, scores ScoreQueries, solver *domain.Solver, snapshots SnapshotStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", createSessionHandler(sessions))
		v1.GET("/sessions/:id", getSessionHandler(sessions))
		v1.DELETE("/sessions/:id", deleteSessionHandler(sessions))

		v1.POST("/sessions/:id/moves", moveHandler(sessions))
		v1.POST("/sessions/:id/inputs", inputHandler(sessions))
		v1.POST("/sessions/:id/undo", undoHandler(sessions))
		v1.POST("/sessions/:id/reset", resetHandler(sessions))
		v1.POST("/sessions/:id/tick", tickHandler(sessions))
		v1.POST("/sessions/:id/bot", botHandler(sessions))
		v1.POST("/sessions/:id/replay", replayHandler(sessions))
		v1.GET("/sessions/:id/ws", sessionSocketHandler(sessions))

		v1.GET("/scores", listScoresHandler(scores))
		v1.GET("/solver", solverHandler(solver))

		v1.GET("/snapshot", getSnapshotHandler(sessions))
		v1.PUT("/snapshot", putSnapshotHandler(sessions, snapshots))
	}

	return r
}

func createSessionHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cfg usecases.GameConfig
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&cfg); err != nil {
				writeError(c, http.StatusBadRequest, "リクエストボディの形式が不正です", err)
				return
			}
		}

		session, err := sessions.Create(cfg)
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		c.JSON(http.StatusCreated, session.View())
	}
}

func getSessionHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, session.View())
	}
}

func deleteSessionHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.Delete(c.Param("id")); err != nil {
			handleUsecaseError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// moveRequest は POST /v1/sessions/:id/moves のリクエストボディ。
type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// moveResponse は移動試行の結果。不正な移動は HTTP エラーではなく
// applied=false として返す（やり直し設定次第で盤面は初期化され得る）。
type moveResponse struct {
	Applied bool                 `json:"applied"`
	Session usecases.SessionView `json:"session"`
}

func moveHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		var req moveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "リクエストボディの形式が不正です", err)
			return
		}

		applied := session.FullMove(c.Request.Context(), req.From, req.To)
		c.JSON(http.StatusOK, moveResponse{Applied: applied, Session: session.View()})
	}
}

func inputHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		var event usecases.InputEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			writeError(c, http.StatusBadRequest, "リクエストボディの形式が不正です", err)
			return
		}

		session.HandleInput(c.Request.Context(), event)
		c.JSON(http.StatusOK, session.View())
	}
}

func undoHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		session.UndoMove(c.Request.Context())
		c.JSON(http.StatusOK, session.View())
	}
}

func resetHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		session.SoftReset()
		c.JSON(http.StatusOK, session.View())
	}
}

func tickHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		session.Advance()
		c.JSON(http.StatusOK, session.View())
	}
}

func botHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		session.BotPlay()
		c.JSON(http.StatusOK, session.View())
	}
}

// replayRequest は POST /v1/sessions/:id/replay のリクエストボディ。
// Index は同一設定のスコアリスト内の順位（0 始まり、速い順）。
type replayRequest struct {
	Index int `json:"index"`
}

func replayHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := sessions.Get(c.Param("id"))
		if err != nil {
			handleUsecaseError(c, err)
			return
		}

		var req replayRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				writeError(c, http.StatusBadRequest, "リクエストボディの形式が不正です", err)
				return
			}
		}

		if err := session.StartReplay(req.Index); err != nil {
			handleUsecaseError(c, err)
			return
		}

		c.JSON(http.StatusOK, session.View())
	}
}

// scoreResponse はスコア一覧の 1 エントリ。
type scoreResponse struct {
	Rank        int           `json:"rank"`
	TimeNs      int64         `json:"time_ns"`
	Date        time.Time     `json:"date"`
	Moves       []domain.Move `json:"moves"`
	Consistency float64       `json:"consistency"`
}

func listScoresHandler(scores ScoreQueries) gin.HandlerFunc {
	return func(c *gin.Context) {
		header, err := headerFromQuery(c)
		if err != nil {
			writeError(c, http.StatusBadRequest, "クエリパラメータが不正です", err)
			return
		}

		results := scores.Query(header)
		response := make([]scoreResponse, len(results))
		for i, score := range results {
			response[i] = scoreResponse{
				Rank:        i,
				TimeNs:      score.Time.Nanoseconds(),
				Date:        score.Date,
				Moves:       score.Moves,
				Consistency: score.Consistency(),
			}
		}

		c.JSON(http.StatusOK, response)
	}
}

// headerFromQuery はクエリパラメータからスコア比較用の Header を組み立てる。
// 省略されたパラメータは既定のパズル設定（3 本ポール・5 枚ディスク・開始ポール 1）に落ちる。
func headerFromQuery(c *gin.Context) (usecases.Header, error) {
	header := usecases.Header{Poles: 3, Disks: 5, StartPole: 1}

	var err error
	if header.Poles, err = intQuery(c, "poles", header.Poles); err != nil {
		return usecases.Header{}, err
	}
	if header.Disks, err = intQuery(c, "disks", header.Disks); err != nil {
		return usecases.Header{}, err
	}
	if header.StartPole, err = intQuery(c, "start_pole", header.StartPole); err != nil {
		return usecases.Header{}, err
	}
	if header.EndPole, err = intQuery(c, "end_pole", 0); err != nil {
		return usecases.Header{}, err
	}
	if header.Blindfold, err = boolQuery(c, "blindfold"); err != nil {
		return usecases.Header{}, err
	}
	if header.IllegalMoves, err = boolQuery(c, "illegal_moves"); err != nil {
		return usecases.Header{}, err
	}

	return header, nil
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func boolQuery(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// solverResponse は GET /v1/solver のレスポンス。解が存在しない構成では
// required_moves_count が省略され required_moves が「∞」になる。
type solverResponse struct {
	Disks              int     `json:"disks"`
	Poles              int     `json:"poles"`
	RequiredMoves      string  `json:"required_moves"`
	RequiredMovesCount *uint64 `json:"required_moves_count,omitempty"`
}

func solverHandler(solver *domain.Solver) gin.HandlerFunc {
	return func(c *gin.Context) {
		disks, err := intQuery(c, "disks", 5)
		if err != nil {
			writeError(c, http.StatusBadRequest, "disks は数値で指定してください", err)
			return
		}
		poles, err := intQuery(c, "poles", 3)
		if err != nil {
			writeError(c, http.StatusBadRequest, "poles は数値で指定してください", err)
			return
		}
		if disks < 0 || disks > domain.MaxDisks || poles < 1 || poles > domain.MaxPoles {
			writeError(c, http.StatusBadRequest, "構成が範囲外です", domain.ErrInvalidConfiguration)
			return
		}

		required := solver.RequiredMoves(disks, poles)
		response := solverResponse{
			Disks:         disks,
			Poles:         poles,
			RequiredMoves: required.String(),
		}
		if count, ok := required.Count(); ok {
			response.RequiredMovesCount = &count
		}

		c.JSON(http.StatusOK, response)
	}
}

func getSnapshotHandler(sessions SessionUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, snapshotFromDefaults(sessions.Defaults()))
	}
}

func putSnapshotHandler(sessions SessionUsecase, snapshots SnapshotStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			writeError(c, http.StatusBadRequest, "リクエストボディを読み込めません", err)
			return
		}

		// スナップショットの復元はフィールド単位で寛容に行う。
		// 読めないフィールドは既定値に落ち、リクエスト全体は失敗しない。
		snapshot := usecases.DecodeSnapshot(body)

		defaults := snapshot.Defaults
		modes := snapshot.Modes
		defaults.Modes = &modes
		sessions.SetDefaults(defaults)

		if snapshots != nil {
			if err := snapshots.Save(snapshot); err != nil {
				writeError(c, http.StatusInternalServerError, "スナップショットを保存できません", err)
				return
			}
		}

		c.JSON(http.StatusOK, snapshot)
	}
}

// snapshotFromDefaults は既定セッション設定をスナップショット表現に変換する。
func snapshotFromDefaults(defaults usecases.GameConfig) usecases.Snapshot {
	modes := usecases.DefaultInputModes()
	if defaults.Modes != nil {
		modes = *defaults.Modes
	}
	defaults.Modes = nil

	snapshot := usecases.DefaultSnapshot()
	if defaults != (usecases.GameConfig{}) {
		snapshot.Defaults = defaults
	}
	snapshot.Modes = modes
	return snapshot
}

func handleUsecaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecases.ErrValidationFailed):
		writeError(c, http.StatusBadRequest, "入力値が不正です", err)
	case errors.Is(err, usecases.ErrSessionNotFound):
		writeError(c, http.StatusNotFound, "指定されたセッションが見つかりません", err)
	case errors.Is(err, usecases.ErrScoreNotFound):
		writeError(c, http.StatusNotFound, "指定されたスコアが見つかりません", err)
	case errors.Is(err, domain.ErrInvalidConfiguration):
		writeError(c, http.StatusBadRequest, "パズル設定が不正です", err)
	default:
		writeError(c, http.StatusInternalServerError, "内部エラーが発生しました", err)
	}
}

func writeError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
