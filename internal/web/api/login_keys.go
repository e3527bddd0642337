package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"sync"
	"time"
)

// loginKeys 登录用的 RSA 密钥对，定期轮换
// 轮换后保留上一把私钥：取公钥与提交登录之间可能跨过轮换点，
// 旧公钥加密的凭据仍要能解开
type loginKeys struct {
	ttl time.Duration

	mu        sync.Mutex
	current   *rsa.PrivateKey
	previous  *rsa.PrivateKey
	expiredAt time.Time
}

func newLoginKeys(ttl time.Duration) *loginKeys {
	return &loginKeys{ttl: ttl}
}

// PublicKeyPEM 返回当前公钥的 PEM 编码，过期时先轮换
func (k *loginKeys) PublicKeyPEM() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current == nil || time.Now().After(k.expiredAt) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, err
		}
		k.previous = k.current
		k.current = key
		k.expiredAt = time.Now().Add(k.ttl)
	}

	der, err := x509.MarshalPKIXPublicKey(&k.current.PublicKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	}), nil
}

// Decrypt 解密 base64 编码的 RSA-OAEP 密文，当前密钥失败时回退上一把
func (k *loginKeys) Decrypt(ciphertext string) ([]byte, error) {
	k.mu.Lock()
	current, previous := k.current, k.previous
	k.mu.Unlock()

	if current == nil {
		return nil, fmt.Errorf("请刷新页面后重试")
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, err
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, current, data, nil)
	if err == nil {
		return plaintext, nil
	}
	if previous != nil {
		if plaintext, perr := rsa.DecryptOAEP(sha256.New(), rand.Reader, previous, data, nil); perr == nil {
			return plaintext, nil
		}
	}
	return nil, err
}
