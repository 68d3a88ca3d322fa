// Package chat は1対1メッセージングサービスの内部実装を提供する。
//
// メッセージ送信リクエストを受け取り、メッセージ本体と送信者・受信者
// それぞれの会話サマリを永続化した上で、受信者の全デバイストークンへ
// プッシュ通知をファンアウトする。通知の失敗はメッセージ送信の成否に
// 影響しない（メッセージは保存済みのため）。
package chat
