package transport_test

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "realms-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}
}

func dialTLS(t *testing.T, server *transport.Server) *tls.Conn {
	t.Helper()
	client, err := tls.Dial("tcp", server.Addr().String(), &tls.Config{InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestServerTLSReadWrite(t *testing.T) {
	server := startServer(t, transport.ServerConfig{
		TLS: transport.NewServerTLSConfig(selfSignedCert(t)),
	})
	if !server.TLS() {
		t.Fatal("TLS() = false")
	}
	client := dialTLS(t, server)
	conn := waitAccept(t, server)

	if _, err := client.Write([]byte("look\r\n")); err != nil {
		t.Fatalf("client write failed: %v", err)
	}
	got, err := readUntil(t, conn, 6)
	if err != nil || string(got) != "look\r\n" {
		t.Fatalf("read %q, %v", got, err)
	}

	if n, err := conn.Write([]byte("A torch flickers.\r\n")); err != nil || n != 19 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply := make([]byte, 19)
	if _, err := io.ReadFull(client, reply); err != nil {
		t.Fatalf("client read failed: %v", err)
	}
	if string(reply) != "A torch flickers.\r\n" {
		t.Errorf("client got %q", reply)
	}
}

func TestServerTLSStalledPeer(t *testing.T) {
	server := startServer(t, transport.ServerConfig{
		TLS:             transport.NewServerTLSConfig(selfSignedCert(t)),
		TLSWriteTimeout: 200 * time.Millisecond,
	})
	dialTLS(t, server) // never reads
	conn := waitAccept(t, server)

	chunk := bytes.Repeat([]byte("x"), 64*1024)
	var sawWouldBlock bool
	var failure error
	deadline := time.Now().Add(10 * time.Second)
	for failure == nil && time.Now().Before(deadline) {
		start := time.Now()
		_, err := conn.Write(chunk)
		if took := time.Since(start); took > 100*time.Millisecond {
			t.Fatalf("Write took %s", took)
		}
		switch {
		case errors.Is(err, transport.ErrWouldBlock):
			sawWouldBlock = true
			time.Sleep(time.Millisecond)
		case err != nil:
			failure = err
		}
	}

	if !sawWouldBlock {
		t.Error("a full queue never reported ErrWouldBlock")
	}
	if failure == nil {
		t.Fatal("stalled connection was never failed")
	}

	got, err := readUntil(t, conn, 1)
	if err == nil {
		t.Errorf("Read after failed write returned %q with no error", got)
	}
}
