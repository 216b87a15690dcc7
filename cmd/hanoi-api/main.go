package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	// -profile フラグ指定時に pprof エンドポイントを公開する。
	_ "net/http/pprof"

	"github.com/hanoi-speedrapp/main/internal/config"
	"github.com/hanoi-speedrapp/main/internal/domain"
	"github.com/hanoi-speedrapp/main/internal/infrastructure/database"
	"github.com/hanoi-speedrapp/main/internal/infrastructure/repository"
	"github.com/hanoi-speedrapp/main/internal/interfaces/httpapi"
	"github.com/hanoi-speedrapp/main/internal/usecases"
)

// main はハノイの塔スピードランエンジンの HTTP サーバーを起動する。
func main() {
	backup := flag.Bool("backup", false, "起動時にスコア DB のバックアップを作成する")
	profile := flag.String("profile", "", "pprof サーバーを公開するアドレス（例: localhost:6060）")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if *backup {
		backupPath, err := database.BackupFile(cfg.DatabasePath, time.Now())
		if err != nil {
			log.Fatalf("DB のバックアップに失敗しました: %v", err)
		}
		if backupPath != "" {
			log.Printf("DB をバックアップしました: %s", backupPath)
		}
	}

	if *profile != "" {
		go func() {
			log.Printf("pprof サーバーを起動しました: http://%s/debug/pprof/", *profile)
			if err := http.ListenAndServe(*profile, nil); err != nil {
				log.Printf("pprof サーバーが終了しました: %v", err)
			}
		}()
	}

	db, err := database.OpenSQLite(database.SQLiteConfig{
		Path:         cfg.DatabasePath,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		log.Fatalf("DB のオープンに失敗しました: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("スキーマの初期化に失敗しました: %v", err)
	}

	scoreRepo := repository.NewSQLiteScoreRepository(db)
	scores := usecases.NewScoreBook()

	persisted, err := scoreRepo.LoadAll(ctx)
	if err != nil {
		log.Fatalf("スコアの読み込みに失敗しました: %v", err)
	}
	scores.Load(persisted)

	snapshots := repository.NewSnapshotFileStore(cfg.SettingsPath)
	snapshot := snapshots.Load()
	defaults := snapshot.Defaults
	modes := snapshot.Modes
	defaults.Modes = &modes

	solver := domain.NewSolver()
	manager := usecases.NewSessionManager(solver, scores, scoreRepo,
		usecases.WithDefaultConfig(defaults),
	)

	router := httpapi.NewRouter(manager, scores, solver, snapshots)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("サーバーを起動しました: http://0.0.0.0:%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("サーバー起動に失敗しました: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("シャットダウンシグナルを受信しました。終了処理を開始します。")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("サーバーの正常終了に失敗しました: %v", err)
	}

	// 終了時点の既定設定をスナップショットとして書き戻す。
	if err := snapshots.Save(currentSnapshot(manager)); err != nil {
		log.Printf("スナップショットの保存に失敗しました: %v", err)
	}

	log.Println("サーバーを終了しました。")
}

// currentSnapshot はマネージャの既定設定からスナップショット表現を組み立てる。
func currentSnapshot(manager *usecases.SessionManager) usecases.Snapshot {
	defaults := manager.Defaults()

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
