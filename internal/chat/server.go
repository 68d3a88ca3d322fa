package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	chatdb "github.com/nao1215/pigeon/internal/chat/db"
	"github.com/nao1215/pigeon/pkg/httpclient"
	"github.com/nao1215/pigeon/pkg/middleware"
)

// defaultDisplayName はDirectoryにレコードがない、または表示名が
// 未設定のユーザーに使う既定の表示名。未登録ユーザー宛でも
// メッセージ送信は失敗させない。
const defaultDisplayName = "Unknown"

// Server はチャットサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *chatdb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// ledger は会話ログとサマリの永続化を担当する。
	ledger *Ledger
	// directoryClient はDirectoryサービスへの通信クライアント。
	directoryClient *httpclient.Client
	// messenger はプッシュ通知プロバイダへの送信クライアント。
	messenger Messenger
}

// NewServer は新しいチャットサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
// messengerの生成とライフサイクルは呼び出し元（エントリポイント）が所有する。
func NewServer(port string, messenger Messenger) (*Server, error) {
	sqlDB, err := openDatabase(getEnvOr("CHAT_DB_PATH", "/data/chat.db"))
	if err != nil {
		return nil, err
	}

	directoryURL := getEnvOr("DIRECTORY_URL", "http://localhost:8081")
	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))

	queries := chatdb.New(sqlDB)
	s := &Server{
		router:          router,
		port:            port,
		queries:         queries,
		db:              sqlDB,
		ledger:          NewLedger(queries),
		directoryClient: httpclient.New(directoryURL),
		messenger:       messenger,
	}
	s.setupRoutes()

	return s, nil
}

// openDatabase は指定パスのSQLiteデータベースを開き、スキーマを適用する。
// サマリ2件を1リクエスト内で並行に書き込むため、接続ごとに
// busy_timeoutとWALをプラグマで設定する。modernc.org/sqliteは
// _pragma形式のみを解釈し、未知のクエリパラメータは無視する。
func openDatabase(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return sqlDB, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// メッセージ送信（会話の永続化とプッシュ通知のファンアウト）
	s.router.POST("/send-message", s.handleSendMessage())
	// 単一トークンへの生のプッシュ送信（プロバイダへのパススルー）
	s.router.POST("/send", s.handleSend())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "chat"})
	})
}

// sendMessageRequest はメッセージ送信リクエストのJSON構造。
// フィールド名は公開APIの契約に合わせてキャメルケースを使う。
type sendMessageRequest struct {
	// SenderID は送信者のユーザーID。
	SenderID string `json:"senderId" binding:"required"`
	// ReceiverID は受信者のユーザーID。
	ReceiverID string `json:"receiverId" binding:"required"`
	// Text はメッセージ本文。
	Text string `json:"text" binding:"required"`
}

// sendRequest は単一プッシュ送信リクエストのJSON構造。
type sendRequest struct {
	// Token は送信先のデバイストークン。
	Token string `json:"token" binding:"required"`
	// Title は通知のタイトル。
	Title string `json:"title" binding:"required"`
	// Body は通知の本文。
	Body string `json:"body" binding:"required"`
}

// directoryUser はDirectoryサービスのユーザー取得APIのレスポンス構造。
type directoryUser struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Name はユーザーの表示名。
	Name string `json:"name"`
	// Tokens は登録済みデバイストークンの一覧。
	Tokens []string `json:"tokens"`
}

// lookupUser はDirectoryサービスからユーザーの表示名とトークン一覧を取得する。
// レコードが存在しない（404）のは致命的ではなく、既定の表示名と空の
// トークン一覧として扱う。通信障害やサーバーエラーはエラーとして返す。
func (s *Server) lookupUser(ctx context.Context, userID string) (directoryUser, error) {
	var user directoryUser
	err := s.directoryClient.GetJSON(ctx, "/api/v1/users/"+userID, &user)

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return directoryUser{ID: userID, Name: defaultDisplayName}, nil
	}
	if err != nil {
		return directoryUser{}, fmt.Errorf("ユーザー %s の解決に失敗: %w", userID, err)
	}

	if user.Name == "" {
		user.Name = defaultDisplayName
	}
	return user, nil
}

// handleSendMessage はメッセージ送信の一連の流れを調整するハンドラを返す。
// 入力検証 → 両者の身元解決（並行） → メッセージ追記 → サマリ書き込み →
// 通知ファンアウト → 単一レスポンスの組み立て、の順に実行する。
func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		ctx := c.Request.Context()

		// 送信者と受信者の身元を並行して解決する
		var wg sync.WaitGroup
		var sender, receiver directoryUser
		var senderErr, receiverErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			sender, senderErr = s.lookupUser(ctx, req.SenderID)
		}()
		go func() {
			defer wg.Done()
			receiver, receiverErr = s.lookupUser(ctx, req.ReceiverID)
		}()
		wg.Wait()

		if err := errors.Join(senderErr, receiverErr); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー情報の取得に失敗しました"})
			log.Printf("ユーザー解決エラー: %v", err)
			return
		}

		key := conversationKey(req.SenderID, req.ReceiverID)

		// メッセージ本体の追記。ここで失敗したら送信は成立していないため、
		// サマリ書き込みも通知も一切行わない
		if _, err := s.ledger.AppendMessage(ctx, key, req.SenderID, req.ReceiverID, req.Text); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "メッセージの送信に失敗しました"})
			log.Printf("メッセージ追記エラー: %v", err)
			return
		}

		// サマリはコミット済みのメッセージを反映する必要があるため、
		// 追記が成功した後にのみ書き込む
		if err := s.ledger.UpsertSummaryPair(ctx, req.SenderID, req.ReceiverID, sender.Name, receiver.Name, req.Text); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "会話サマリの更新に失敗しました"})
			log.Printf("会話サマリ更新エラー: %v", err)
			return
		}

		// 受信者の全トークンへ通知をファンアウトする。通知の失敗や部分的な
		// 失敗があっても、メッセージは保存済みなのでレスポンスは200のまま
		result := s.dispatch(ctx, receiver.Tokens, sender.Name, req.Text, map[string]string{
			"senderId":        req.SenderID,
			"text":            req.Text,
			"conversationKey": key,
		})

		c.JSON(http.StatusOK, gin.H{
			"message":      "メッセージを送信し、会話を更新しました",
			"notification": toNotificationJSON(result),
		})
	}
}

// toNotificationJSON はFanoutResultをレスポンス用の表現に変換する。
// ファンアウトが行われなかった場合はnull、バッチ送信自体が失敗した
// 場合はカウントの代わりにエラー記述を返す。
func toNotificationJSON(r *FanoutResult) any {
	if r == nil {
		return nil
	}
	if r.Err != nil {
		return gin.H{
			"error":   "プッシュ通知の送信に失敗しました",
			"details": r.Err.Error(),
		}
	}
	return gin.H{
		"successCount": r.SuccessCount,
		"failureCount": r.FailureCount,
	}
}

// handleSend は単一トークンへのプッシュ送信を処理するハンドラを返す。
// プロバイダへのパススルーであり、会話の永続化は行わない。
func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		id, err := s.messenger.Send(c.Request.Context(), &messaging.Message{
			Token: req.Token,
			Notification: &messaging.Notification{
				Title: req.Title,
				Body:  req.Body,
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プッシュ通知の送信に失敗しました"})
			log.Printf("プッシュ送信エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "通知を送信しました", "id": id})
	}
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
