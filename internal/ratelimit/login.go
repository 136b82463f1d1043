package ratelimit

import (
	"context"
	"fmt"
	"strings"
)

const (
	keyLoginIP   = "login:ip:%s"
	keyUploadOrg = "upload:org:%s"
	loginRate    = 0.5
	loginBurst   = 10
	uploadRate   = 1.0
	uploadBurst  = 20
)

// LoginLimiter throttles credential guessing by source IP and upload
// volume by organization.
type LoginLimiter struct {
	bucket *TokenBucket
}

func NewLoginLimiter(bucket *TokenBucket) *LoginLimiter {
	return &LoginLimiter{bucket: bucket}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *LoginLimiter) AllowLogin(ctx context.Context, ip string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyLoginIP, ip), loginRate, loginBurst)
}

func (l *LoginLimiter) AllowUpload(ctx context.Context, orgID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyUploadOrg, orgID), uploadRate, uploadBurst)
}
