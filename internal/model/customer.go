package model

import (
	"encoding/json"
	"fmt"
)

// Customer は顧客レコードを表す。
// 固定フィールドは連番のIDのみで、それ以外のフィールドは
// クライアントが自由に定義する半構造化データとして保持する。
// JSONとの相互変換時にidと任意フィールドは同一オブジェクトに平坦化される。
type Customer struct {
	ID     int
	Fields map[string]any
}

// MarshalJSON はidと任意フィールドを1つのJSONオブジェクトに平坦化する。
func (c Customer) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Fields)+1)
	for k, v := range c.Fields {
		m[k] = v
	}
	m["id"] = c.ID
	return json.Marshal(m)
}

// UnmarshalJSON はJSONオブジェクトからidを取り出し、残りを任意フィールドとして保持する。
func (c *Customer) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode customer: %w", err)
	}

	if raw, ok := m["id"]; ok {
		// encoding/jsonは数値をfloat64にデコードする
		if f, ok := raw.(float64); ok {
			c.ID = int(f)
		}
		delete(m, "id")
	}

	c.Fields = m
	return nil
}

// Merge は部分更新のフィールドを既存レコードに重ね合わせる。
// リクエスト側のフィールドが既存のキーを上書きする。idは変更できない。
func (c *Customer) Merge(fields map[string]any) {
	if c.Fields == nil {
		c.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		if k == "id" {
			continue
		}
		c.Fields[k] = v
	}
}
