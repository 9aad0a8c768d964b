package domain

import "strings"

// DeletionPolicy 刪除帳戶時如何處理其交易
type DeletionPolicy string

const (
	// PolicyCascade 一併刪除所有交易
	PolicyCascade DeletionPolicy = "cascade"
	// PolicyDeny 有交易就拒絕刪除
	PolicyDeny DeletionPolicy = "deny"
	// PolicyKeep 保留交易，帳戶參照變成懸空
	PolicyKeep DeletionPolicy = "keep"
)

// DefaultDeletionPolicy 未設定時使用
const DefaultDeletionPolicy = PolicyKeep

// Valid 是否為列舉中的策略
func (p DeletionPolicy) Valid() bool {
	switch p {
	case PolicyCascade, PolicyDeny, PolicyKeep:
		return true
	default:
		return false
	}
}

func (p DeletionPolicy) String() string {
	return string(p)
}

// ParseDeletionPolicy 解析設定值，不在列舉中時回傳 ErrInvalidPolicy (不會自動改用預設值)
func ParseDeletionPolicy(s string) (DeletionPolicy, error) {
	p := DeletionPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPolicy
	}
	return p, nil
}
