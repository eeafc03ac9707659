// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package utils

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GetTLSConfig trusts the system roots, the given PEM bundle and every .crt/.pem file
// under the directories listed in CUSTOM_CA_CERTS_PATH.
func GetTLSConfig(pemData []byte) *tls.Config {
	pool, err := x509.SystemCertPool()
	if err != nil {
		log.Warnf("Failed to load system certificate pool, using empty pool: %v", err)
		pool = x509.NewCertPool()
	}
	if len(pemData) > 0 && !pool.AppendCertsFromPEM(pemData) {
		log.Warn("Failed to append custom certificate to root CA pool")
	}
	for _, path := range filepath.SplitList(os.Getenv("CUSTOM_CA_CERTS_PATH")) {
		path = strings.TrimSpace(path)
		if path != "" {
			appendCertsFromPath(pool, path)
		}
	}
	return &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
}

func appendCertsFromPath(pool *x509.CertPool, root string) {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if path != root && ext != ".crt" && ext != ".pem" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("Failed to read certificate file %s: %v", path, err)
			return nil
		}
		if !pool.AppendCertsFromPEM(data) {
			log.Warnf("Failed to parse certificate from file %s", path)
		}
		return nil
	})
	if err != nil {
		log.Warnf("Failed to load custom CA certificates from %s: %v", root, err)
	}
}
