// Package directory はユーザーディレクトリサービスの内部実装を提供する。
//
// ユーザーの表示名と登録済みデバイストークンを管理する。チャット
// サービスはメッセージ送信時にこのサービスへ問い合わせ、通知の
// 宛先トークンと表示名を解決する。
package directory
