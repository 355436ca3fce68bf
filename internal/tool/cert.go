package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"time"
)

// CertificateRequest describes a self signed server certificate.
type CertificateRequest struct {
	Organization string
	CommonName   string
	Hostnames    []string
	Validity     time.Duration
}

// GenerateSelfSignedCertificate writes a P-256 key and a self signed server
// certificate, both PEM encoded. The key file is only readable by its owner.
func GenerateSelfSignedCertificate(request CertificateRequest, keyFilename, certFilename string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return err
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{request.Organization},
			CommonName:   request.CommonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(request.Validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range request.Hostnames {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return err
	}
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}

	if err := writePem(keyFilename, 0600, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}); err != nil {
		return err
	}
	return writePem(certFilename, 0644, &pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func writePem(filename string, perm os.FileMode, block *pem.Block) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if err = pem.Encode(file, block); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
