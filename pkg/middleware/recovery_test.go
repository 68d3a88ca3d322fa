package middleware

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// newPanicRouter はRecoveryミドルウェアと指定ハンドラを組み込んだルーターを作る。
func newPanicRouter(handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/test", handler)
	return router
}

// serveGet はGETリクエストを実行してレスポンスを返すヘルパー関数。
func serveGet(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestRecovery はRecoveryミドルウェアを検証する。
func TestRecovery(t *testing.T) {
	t.Parallel()

	// ログ出力を検査するため、このサブテストだけは並行実行しない
	t.Run("パニック時にスタックトレースがログに出力されること", func(t *testing.T) {
		var buf bytes.Buffer
		orig := log.Writer()
		log.SetOutput(&buf)
		defer log.SetOutput(orig)

		router := newPanicRouter(func(_ *gin.Context) {
			panic("テスト用パニック")
		})
		w := serveGet(router, "/test")

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		logged := buf.String()
		if !strings.Contains(logged, "テスト用パニック") {
			t.Errorf("ログにパニック値が含まれていない: %q", logged)
		}
		if !strings.Contains(logged, "GET /test") {
			t.Errorf("ログにメソッドとパスが含まれていない: %q", logged)
		}
		// debug.Stack()の出力はgoroutineヘッダーで始まる
		if !strings.Contains(logged, "goroutine") {
			t.Errorf("ログにスタックトレースが含まれていない: %q", logged)
		}
	})

	t.Run("パニック時に500とエラーメッセージが返ること", func(t *testing.T) {
		t.Parallel()

		router := newPanicRouter(func(_ *gin.Context) {
			panic("テスト用パニック")
		})
		w := serveGet(router, "/test")

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["error"] != "内部サーバーエラーが発生しました" {
			t.Errorf("error = %q, want %q", body["error"], "内部サーバーエラーが発生しました")
		}
	})

	t.Run("パニックが発生しない場合はレスポンスに影響しないこと", func(t *testing.T) {
		t.Parallel()

		router := newPanicRouter(func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		w := serveGet(router, "/test")

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["status"] != "ok" {
			t.Errorf("status = %q, want %q", body["status"], "ok")
		}
	})

	t.Run("文字列以外のパニック値でも500が返ること", func(t *testing.T) {
		t.Parallel()

		for _, handler := range []gin.HandlerFunc{
			func(_ *gin.Context) { panic(42) },
			func(_ *gin.Context) { panic(http.ErrAbortHandler) },
		} {
			w := serveGet(newPanicRouter(handler), "/test")
			if w.Code != http.StatusInternalServerError {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
			}
		}
	})

	t.Run("パニック後も同じルーターが次のリクエストを処理できること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery())
		router.GET("/panic", func(_ *gin.Context) {
			panic("パニック発生")
		})
		router.GET("/ok", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "recovered"})
		})

		if w := serveGet(router, "/panic"); w.Code != http.StatusInternalServerError {
			t.Errorf("1回目のステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		if w := serveGet(router, "/ok"); w.Code != http.StatusOK {
			t.Errorf("2回目のステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("POSTリクエストでのパニックでも500が返ること", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(Recovery())
		router.POST("/test", func(_ *gin.Context) {
			panic("POSTでパニック")
		})

		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}
