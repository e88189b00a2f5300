package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/fixit/internal/model"
)

// storedUser はusersブロブ内の1レコードのJSON表現。
// フィールド名は元システムのブロブ形式を維持する。
// passwordフィールドには平文ではなくbcryptハッシュを格納する。
type storedUser struct {
	Password            string     `json:"password"`
	Name                string     `json:"name"`
	Role                string     `json:"role"`
	ForcePasswordChange bool       `json:"forcePasswordChange"`
	PasswordChangedAt   *time.Time `json:"passwordChangedAt,omitempty"`
}

// storedSession はsessionsブロブ内の1レコードのJSON表現。
type storedSession struct {
	Username string    `json:"username"`
	Expires  time.Time `json:"expires"`
}

// decodeUsers はusersブロブをデコードする。
func decodeUsers(blob string) (map[string]model.User, error) {
	var raw map[string]storedUser
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode users collection: %w", err)
	}

	users := make(map[string]model.User, len(raw))
	for username, su := range raw {
		users[username] = model.User{
			Username:            username,
			PasswordHash:        su.Password,
			Name:                su.Name,
			Role:                model.Role(su.Role),
			ForcePasswordChange: su.ForcePasswordChange,
			PasswordChangedAt:   su.PasswordChangedAt,
		}
	}
	return users, nil
}

// encodeUsers はusersブロブをエンコードする。
func encodeUsers(users map[string]model.User) (string, error) {
	raw := make(map[string]storedUser, len(users))
	for username, u := range users {
		raw[username] = storedUser{
			Password:            u.PasswordHash,
			Name:                u.Name,
			Role:                string(u.Role),
			ForcePasswordChange: u.ForcePasswordChange,
			PasswordChangedAt:   u.PasswordChangedAt,
		}
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode users collection: %w", err)
	}
	return string(b), nil
}

// decodeCustomers はcustomersブロブをデコードする。
func decodeCustomers(blob string) ([]model.Customer, error) {
	var customers []model.Customer
	if err := json.Unmarshal([]byte(blob), &customers); err != nil {
		return nil, fmt.Errorf("failed to decode customers collection: %w", err)
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	return customers, nil
}

// encodeCustomers はcustomersブロブをエンコードする。
func encodeCustomers(customers []model.Customer) (string, error) {
	if customers == nil {
		customers = []model.Customer{}
	}
	b, err := json.Marshal(customers)
	if err != nil {
		return "", fmt.Errorf("failed to encode customers collection: %w", err)
	}
	return string(b), nil
}

// decodeSessions はsessionsブロブをデコードする。
func decodeSessions(blob string) (map[string]model.Session, error) {
	var raw map[string]storedSession
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode sessions collection: %w", err)
	}

	sessions := make(map[string]model.Session, len(raw))
	for token, ss := range raw {
		sessions[token] = model.Session{
			Token:     token,
			Username:  ss.Username,
			ExpiresAt: ss.Expires,
		}
	}
	return sessions, nil
}

// encodeSessions はsessionsブロブをエンコードする。
func encodeSessions(sessions map[string]model.Session) (string, error) {
	raw := make(map[string]storedSession, len(sessions))
	for token, s := range sessions {
		raw[token] = storedSession{
			Username: s.Username,
			Expires:  s.ExpiresAt,
		}
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode sessions collection: %w", err)
	}
	return string(b), nil
}
