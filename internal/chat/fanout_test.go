package chat

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
)

// fakeMessenger はテスト用のMessenger実装。
// 関数フィールドが未設定の場合は全件成功として応答する。
type fakeMessenger struct {
	// sendEachFunc はSendEachの挙動を差し替えるための関数。
	sendEachFunc func(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
	// sendFunc はSendの挙動を差し替えるための関数。
	sendFunc func(ctx context.Context, message *messaging.Message) (string, error)
	// sendEachCalls はSendEachへ渡されたバッチの記録。
	sendEachCalls [][]*messaging.Message
	// sendCalls はSendへ渡されたメッセージの記録。
	sendCalls []*messaging.Message
}

func (f *fakeMessenger) SendEach(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error) {
	f.sendEachCalls = append(f.sendEachCalls, messages)
	if f.sendEachFunc != nil {
		return f.sendEachFunc(ctx, messages)
	}

	responses := make([]*messaging.SendResponse, 0, len(messages))
	for range messages {
		responses = append(responses, &messaging.SendResponse{Success: true, MessageID: "fake-message-id"})
	}
	return &messaging.BatchResponse{
		SuccessCount: len(messages),
		Responses:    responses,
	}, nil
}

func (f *fakeMessenger) Send(ctx context.Context, message *messaging.Message) (string, error) {
	f.sendCalls = append(f.sendCalls, message)
	if f.sendFunc != nil {
		return f.sendFunc(ctx, message)
	}
	return "fake-message-id", nil
}

// batchResponse はテスト用に成功/失敗のパターンからBatchResponseを組み立てる。
// successesの各要素が対応する位置のトークンの成否を表す。
func batchResponse(successes []bool) *messaging.BatchResponse {
	batch := &messaging.BatchResponse{}
	for _, ok := range successes {
		if ok {
			batch.SuccessCount++
			batch.Responses = append(batch.Responses, &messaging.SendResponse{Success: true, MessageID: "fake-message-id"})
			continue
		}
		batch.FailureCount++
		batch.Responses = append(batch.Responses, &messaging.SendResponse{Error: errors.New("登録トークンが無効")})
	}
	return batch
}

// TestDispatch は通知ファンアウトを検証する。
func TestDispatch(t *testing.T) {
	t.Parallel()

	t.Run("トークンがない場合は何もせずnilを返すこと", func(t *testing.T) {
		t.Parallel()

		fake := &fakeMessenger{}
		s := &Server{messenger: fake}

		result := s.dispatch(t.Context(), nil, "太郎", "こんにちは", nil)
		if result != nil {
			t.Errorf("dispatch() = %+v, want nil", result)
		}
		if len(fake.sendEachCalls) != 0 {
			t.Errorf("プロバイダ呼び出し回数: got %d, want 0", len(fake.sendEachCalls))
		}
	})

	t.Run("トークンごとに1つの通知が組み立てられること", func(t *testing.T) {
		t.Parallel()

		fake := &fakeMessenger{}
		s := &Server{messenger: fake}

		data := map[string]string{"senderId": "u1", "text": "こんにちは"}
		result := s.dispatch(t.Context(), []string{"tA", "tB", "tC"}, "太郎", "こんにちは", data)

		if result == nil {
			t.Fatal("dispatch()がnilを返した")
		}
		if len(fake.sendEachCalls) != 1 {
			t.Fatalf("バッチ送信回数: got %d, want 1", len(fake.sendEachCalls))
		}

		messages := fake.sendEachCalls[0]
		if len(messages) != 3 {
			t.Fatalf("バッチ内のメッセージ数: got %d, want 3", len(messages))
		}
		// 入力トークンの順序が保持されること
		for i, want := range []string{"tA", "tB", "tC"} {
			if messages[i].Token != want {
				t.Errorf("messages[%d].Token = %q, want %q", i, messages[i].Token, want)
			}
			if messages[i].Notification.Title != "太郎" {
				t.Errorf("messages[%d].Notification.Title = %q, want %q", i, messages[i].Notification.Title, "太郎")
			}
			if messages[i].Notification.Body != "こんにちは" {
				t.Errorf("messages[%d].Notification.Body = %q, want %q", i, messages[i].Notification.Body, "こんにちは")
			}
			if messages[i].Data["senderId"] != "u1" {
				t.Errorf("messages[%d].Data[senderId] = %q, want %q", i, messages[i].Data["senderId"], "u1")
			}
		}
	})

	t.Run("全件成功した場合の集計", func(t *testing.T) {
		t.Parallel()

		fake := &fakeMessenger{}
		s := &Server{messenger: fake}

		result := s.dispatch(t.Context(), []string{"tA", "tB"}, "太郎", "hi", nil)
		if result == nil {
			t.Fatal("dispatch()がnilを返した")
		}
		if result.SuccessCount != 2 {
			t.Errorf("SuccessCount = %d, want 2", result.SuccessCount)
		}
		if result.FailureCount != 0 {
			t.Errorf("FailureCount = %d, want 0", result.FailureCount)
		}
		if result.Err != nil {
			t.Errorf("Err = %v, want nil", result.Err)
		}
	})

	t.Run("一部失敗した場合は位置で突き合わせて集計されること", func(t *testing.T) {
		t.Parallel()

		fake := &fakeMessenger{
			sendEachFunc: func(_ context.Context, _ []*messaging.Message) (*messaging.BatchResponse, error) {
				return batchResponse([]bool{false, true, false}), nil
			},
		}
		s := &Server{messenger: fake}

		result := s.dispatch(t.Context(), []string{"tA", "tB", "tC"}, "太郎", "hi", nil)
		if result == nil {
			t.Fatal("dispatch()がnilを返した")
		}
		if result.SuccessCount != 1 {
			t.Errorf("SuccessCount = %d, want 1", result.SuccessCount)
		}
		if result.FailureCount != 2 {
			t.Errorf("FailureCount = %d, want 2", result.FailureCount)
		}
	})

	t.Run("バッチ送信自体が失敗した場合はエラーだけが格納されること", func(t *testing.T) {
		t.Parallel()

		fake := &fakeMessenger{
			sendEachFunc: func(_ context.Context, _ []*messaging.Message) (*messaging.BatchResponse, error) {
				return nil, errors.New("プロバイダに接続できません")
			},
		}
		s := &Server{messenger: fake}

		result := s.dispatch(t.Context(), []string{"tA"}, "太郎", "hi", nil)
		if result == nil {
			t.Fatal("dispatch()がnilを返した")
		}
		if result.Err == nil {
			t.Fatal("Errが設定されていない")
		}
		if result.SuccessCount != 0 || result.FailureCount != 0 {
			t.Errorf("カウント = %d/%d, want 0/0", result.SuccessCount, result.FailureCount)
		}
	})
}

// TestToNotificationJSON はFanoutResultのレスポンス表現への変換を検証する。
func TestToNotificationJSON(t *testing.T) {
	t.Parallel()

	t.Run("nilはnullとして返ること", func(t *testing.T) {
		t.Parallel()

		if got := toNotificationJSON(nil); got != nil {
			t.Errorf("toNotificationJSON(nil) = %v, want nil", got)
		}
	})

	t.Run("カウントがそのまま変換されること", func(t *testing.T) {
		t.Parallel()

		got := toNotificationJSON(&FanoutResult{SuccessCount: 1, FailureCount: 2})
		m, ok := got.(gin.H)
		if !ok {
			t.Fatalf("toNotificationJSON()の戻り値の型が不正: %T", got)
		}
		if m["successCount"] != 1 {
			t.Errorf("successCount = %v, want 1", m["successCount"])
		}
		if m["failureCount"] != 2 {
			t.Errorf("failureCount = %v, want 2", m["failureCount"])
		}
	})

	t.Run("バッチ失敗はエラー記述に変換されカウントを含まないこと", func(t *testing.T) {
		t.Parallel()

		got := toNotificationJSON(&FanoutResult{Err: errors.New("接続失敗")})
		m, ok := got.(gin.H)
		if !ok {
			t.Fatalf("toNotificationJSON()の戻り値の型が不正: %T", got)
		}
		if m["error"] == nil {
			t.Error("errorが含まれていない")
		}
		if m["details"] != "接続失敗" {
			t.Errorf("details = %v, want 接続失敗", m["details"])
		}
		if _, exists := m["successCount"]; exists {
			t.Error("バッチ失敗時にsuccessCountが含まれている")
		}
	})
}
