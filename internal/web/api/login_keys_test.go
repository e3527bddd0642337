package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"
)

func encryptForKey(t *testing.T, pemBytes []byte, plaintext string) string {
	t.Helper()
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		t.Fatal("invalid pem")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		t.Fatalf("parse public key: %v", err)
	}
	data, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub.(*rsa.PublicKey), []byte(plaintext), nil)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	return base64.StdEncoding.EncodeToString(data)
}

func TestLoginKeysRoundTrip(t *testing.T) {
	k := newLoginKeys(time.Hour)
	pemBytes, err := k.PublicKeyPEM()
	if err != nil {
		t.Fatalf("public key: %v", err)
	}

	got, err := k.Decrypt(encryptForKey(t, pemBytes, "secret"))
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(got) != "secret" {
		t.Fatalf("got %q", got)
	}
}

func TestLoginKeysRotationKeepsPreviousKey(t *testing.T) {
	// 取公钥与提交登录之间跨过轮换点，旧公钥加密的凭据仍要能解开
	k := newLoginKeys(-time.Second)
	oldPEM, err := k.PublicKeyPEM()
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	ciphertext := encryptForKey(t, oldPEM, "secret")

	newPEM, err := k.PublicKeyPEM()
	if err != nil {
		t.Fatalf("rotated public key: %v", err)
	}
	if string(newPEM) == string(oldPEM) {
		t.Fatal("expected key rotation")
	}

	got, err := k.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("decrypt with rotated key: %v", err)
	}
	if string(got) != "secret" {
		t.Fatalf("got %q", got)
	}
}

func TestLoginKeysDecryptWithoutKey(t *testing.T) {
	k := newLoginKeys(time.Hour)
	if _, err := k.Decrypt("whatever"); err == nil {
		t.Fatal("expected error before any key exists")
	}
}
