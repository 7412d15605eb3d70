package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           int                    `json:"id" db:"id"`
	ResourceID   int                    `json:"resource_id" db:"resource_id"`
	ResourceType string                 `json:"resource_type" db:"resource_type"`
	Action       string                 `json:"action" db:"action"` // create, update, delete, login, logout, ...
	Description  string                 `json:"description" db:"description"`
	DataRaw      []byte                 `json:"-" db:"data"`
	Data         map[string]interface{} `json:"data" db:"-"`
	IPAddress    *string                `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	UserID       *int                   `json:"user_id,omitempty" db:"user_id"`
	Username     *string                `json:"username,omitempty" db:"username"`
}

func (a *AuditLog) LoadFromDB() {
	if len(a.DataRaw) > 0 {
		_ = json.Unmarshal(a.DataRaw, &a.Data)
	}
}
