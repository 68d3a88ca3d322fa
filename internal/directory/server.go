package directory

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	directorydb "github.com/nao1215/pigeon/internal/directory/db"
	"github.com/nao1215/pigeon/pkg/middleware"
)

// Server はディレクトリサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *directorydb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewServer は新しいディレクトリサーバーを生成する。
// SQLiteデータベースの初期化とマイグレーションの適用を行う。
func NewServer(port string) (*Server, error) {
	// modernc.org/sqliteは_pragma形式のみを解釈する
	dsn := getEnvOr("DIRECTORY_DB_PATH", "/data/directory.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:  router,
		port:    port,
		queries: directorydb.New(sqlDB),
		db:      sqlDB,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			// ユーザー作成
			users.POST("", s.handleCreateUser())
			// ユーザー取得（表示名とトークン一覧）
			users.GET("/:id", s.handleGetUser())
			// デバイストークン登録
			users.POST("/:id/tokens", s.handleRegisterToken())
			// デバイストークン削除
			users.DELETE("/:id/tokens/:token", s.handleUnregisterToken())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "directory"})
	})
}

// createUserRequest はユーザー作成リクエストのJSON構造。
type createUserRequest struct {
	// ID はユーザーの一意識別子。省略時はUUIDを採番する。
	ID string `json:"id"`
	// Name はユーザーの表示名。
	Name string `json:"name" binding:"required"`
}

// registerTokenRequest はデバイストークン登録リクエストのJSON構造。
type registerTokenRequest struct {
	// Token は登録するデバイストークン。
	Token string `json:"token" binding:"required"`
}

// userResponse はユーザーのJSONレスポンス構造。
type userResponse struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Name はユーザーの表示名。
	Name string `json:"name"`
	// Tokens は登録済みデバイストークンの一覧。登録順に並ぶ。
	Tokens []string `json:"tokens"`
}

// handleCreateUser はユーザー作成を処理するハンドラを返す。
func (s *Server) handleCreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		userID := req.ID
		if userID == "" {
			userID = uuid.New().String()
		}

		// 既存ユーザーの上書きは許可しない
		if _, err := s.queries.GetUserByID(c.Request.Context(), userID); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "ユーザーは既に存在します"})
			return
		} else if err != sql.ErrNoRows {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		if err := s.queries.CreateUser(c.Request.Context(), directorydb.CreateUserParams{
			ID:   userID,
			Name: req.Name,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの作成に失敗しました"})
			log.Printf("ユーザー作成エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":   userID,
			"name": req.Name,
		})
	}
}

// handleGetUser はユーザーの表示名とデバイストークン一覧を返すハンドラを返す。
func (s *Server) handleGetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		user, err := s.queries.GetUserByID(c.Request.Context(), userID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		tokens, err := s.queries.ListDeviceTokensByUserID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "デバイストークンの取得に失敗しました"})
			log.Printf("デバイストークン取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, userResponse{
			ID:     user.ID,
			Name:   user.Name,
			Tokens: tokens,
		})
	}
}

// handleRegisterToken はデバイストークン登録を処理するハンドラを返す。
// 同一トークンの再登録は冪等であり、エラーにはならない。
func (s *Server) handleRegisterToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		// ユーザーの存在確認
		if _, err := s.queries.GetUserByID(c.Request.Context(), userID); err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		var req registerTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		if err := s.queries.UpsertDeviceToken(c.Request.Context(), directorydb.UpsertDeviceTokenParams{
			UserID: userID,
			Token:  req.Token,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "デバイストークンの登録に失敗しました"})
			log.Printf("デバイストークン登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "デバイストークンを登録しました"})
	}
}

// handleUnregisterToken はデバイストークン削除を処理するハンドラを返す。
func (s *Server) handleUnregisterToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")
		token := c.Param("token")

		affected, err := s.queries.DeleteDeviceToken(c.Request.Context(), directorydb.DeleteDeviceTokenParams{
			UserID: userID,
			Token:  token,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "デバイストークンの削除に失敗しました"})
			log.Printf("デバイストークン削除エラー: %v", err)
			return
		}
		if affected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "デバイストークンが見つかりません"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "デバイストークンを削除しました"})
	}
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
