package provider

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/storefront/server/internal/utils/random"
)

const jsapiSignType = "RSA"

// JsapiSigner produces the paySign for WeChat JSAPI invoke params.
type JsapiSigner struct {
	appID string
	key   *rsa.PrivateKey
	now   func() time.Time
	nonce func() (string, error)
}

// NewJsapiSigner parses the merchant private key (PKCS#8 or PKCS#1 PEM).
func NewJsapiSigner(appID, privateKeyPEM string) (*JsapiSigner, error) {
	if strings.TrimSpace(appID) == "" {
		return nil, fmt.Errorf("%w: wechat app id is required", ErrInvalidConfig)
	}
	key, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: merchant private key: %v", ErrInvalidConfig, err)
	}
	return &JsapiSigner{
		appID: appID,
		key:   key,
		now:   time.Now,
		nonce: func() (string, error) { return random.Hex(16) },
	}, nil
}

// Sign builds invoke params for a prepay id.
func (s *JsapiSigner) Sign(prepayID string) (*InvokeParams, error) {
	return s.SignPackage("prepay_id=" + prepayID)
}

// SignPackage builds invoke params for a full "prepay_id=..." package.
func (s *JsapiSigner) SignPackage(pkg string) (*InvokeParams, error) {
	if !strings.HasPrefix(pkg, "prepay_id=") || len(pkg) == len("prepay_id=") {
		return nil, fmt.Errorf("invalid jsapi package %q", pkg)
	}

	nonce, err := s.nonce()
	if err != nil {
		return nil, err
	}

	params := &InvokeParams{
		AppID:     s.appID,
		TimeStamp: strconv.FormatInt(s.now().Unix(), 10),
		NonceStr:  nonce,
		Package:   pkg,
		SignType:  jsapiSignType,
	}

	digest := sha256.Sum256([]byte(jsapiMessage(params)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign jsapi params: %w", err)
	}
	params.PaySign = base64.StdEncoding.EncodeToString(sig)
	return params, nil
}

// jsapiMessage is the canonical string WeChat verifies paySign against.
func jsapiMessage(p *InvokeParams) string {
	return p.AppID + "\n" + p.TimeStamp + "\n" + p.NonceStr + "\n" + p.Package + "\n"
}

func parseRSAPrivateKey(pemKey string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA private key")
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// parseRSAPublicKey parses a PEM encoded RSA public key or certificate.
func parseRSAPublicKey(pemKey string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("certificate does not contain RSA public key")
		}
		return rsaKey, nil
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaKey, nil
}
