// Package password はパスワードのハッシュ化と照合を提供する。
// 平文パスワードはストアに書き込まず、bcryptハッシュのみを保持する。
package password

import "golang.org/x/crypto/bcrypt"

// dummyHash は存在しないユーザーへのログイン試行時に照合する固定ハッシュ。
// ユーザー有無で応答時間に差が出ないようにする。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Hash は与えられたコストでbcryptハッシュを生成する。
func Hash(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify はハッシュと平文パスワードを定数時間で照合する。
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyDummy は固定ハッシュとの照合のみを行う。
// 未知のユーザー名に対するログイン処理の時間を揃えるために使用する。
func VerifyDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plain))
}
