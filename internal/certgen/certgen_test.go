package certgen

import (
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func parseCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatalf("cert PEM invalid")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	return cert
}

func TestGenerateServerCertificate(t *testing.T) {
	certPEM, keyPEM, err := GenerateServerCertificate([]string{"localhost", "127.0.0.1", "::1"}, 24*time.Hour)
	if err != nil {
		t.Fatalf("GenerateServerCertificate error: %v", err)
	}

	cert := parseCert(t, certPEM)
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want %q", cert.Subject.CommonName, "localhost")
	}
	if !reflect.DeepEqual(cert.DNSNames, []string{"localhost"}) {
		t.Errorf("DNSNames = %v; want [localhost]", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 2 || !cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}
	if err := cert.VerifyHostname("localhost"); err != nil {
		t.Errorf("VerifyHostname: %v", err)
	}
	if len(cert.ExtKeyUsage) != 1 || cert.ExtKeyUsage[0] != x509.ExtKeyUsageServerAuth {
		t.Errorf("ExtKeyUsage = %v; want ServerAuth", cert.ExtKeyUsage)
	}
	if d := cert.NotAfter.Sub(cert.NotBefore); d < 24*time.Hour || d > 25*time.Hour {
		t.Errorf("validity = %v; want about 24h", d)
	}
	if err := cert.CheckSignatureFrom(cert); err != nil {
		t.Errorf("not self-signed: %v", err)
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		t.Fatalf("key PEM invalid")
	}
	if _, err := x509.ParseECPrivateKey(block.Bytes); err != nil {
		t.Errorf("parse private key failed: %v", err)
	}
}

func TestGenerateServerCertificate_NoHosts(t *testing.T) {
	if _, _, err := GenerateServerCertificate(nil, time.Hour); err == nil {
		t.Error("expected error without hosts")
	}
}

func TestWriteAndLoadServerCertificate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	certPath, keyPath, err := WriteServerCertificate(dir, []string{"localhost"}, time.Hour)
	if err != nil {
		t.Fatalf("WriteServerCertificate error: %v", err)
	}
	if certPath != filepath.Join(dir, CertFile) || keyPath != filepath.Join(dir, KeyFile) {
		t.Errorf("paths = %q, %q", certPath, keyPath)
	}
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key permissions = %o; want 600", perm)
	}

	pair, err := LoadServerCertificate(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadServerCertificate error: %v", err)
	}
	if pair.Leaf == nil || pair.Leaf.Subject.CommonName != "localhost" {
		t.Errorf("unexpected leaf: %+v", pair.Leaf)
	}
}

func TestLoadServerCertificate_Errors(t *testing.T) {
	_, err := LoadServerCertificate("/no/such/server.crt", "/no/such/server.key")
	if err == nil || !strings.Contains(err.Error(), "load key pair") {
		t.Errorf("got %v; want load key pair error", err)
	}

	dir := t.TempDir()
	certPath, keyPath, err := WriteServerCertificate(dir, []string{"localhost"}, -time.Hour)
	if err != nil {
		t.Fatalf("WriteServerCertificate error: %v", err)
	}
	_, err = LoadServerCertificate(certPath, keyPath)
	if err == nil || !strings.Contains(err.Error(), "certificate expired") {
		t.Errorf("got %v; want expiry error", err)
	}
}
