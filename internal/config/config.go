/*
Copyright (C) 2024  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package config is the settings layer, modeled on storage/settings.go's
// SettingsT struct + flags, adapted for the log server's own knobs.
package config

import (
	"flag"
	"time"

	units "github.com/docker/go-units"
)

// Backend selects the LogStore implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendS3     Backend = "s3"
	BackendCeph   Backend = "ceph"
)

type Config struct {
	Port              string
	Daemonize         bool
	Backend           Backend
	DataFile          string
	TimestampInterval time.Duration

	RotateThreshold      uint64 // 0 disables file-backend rotation
	RotateArchiveXZ      bool
	TamperWatch          bool

	S3Bucket         string
	S3Key            string
	S3Region         string
	S3Endpoint       string
	S3AccessKeyID    string
	S3SecretKey      string
	S3ForcePathStyle bool

	CephUser    string
	CephCluster string
	CephConf    string
	CephPool    string
	CephObject  string

	AuditDSN string // "" disables the audit sink; mysql://... or postgres://...

	AdminAddr string // "" disables the admin/observability HTTP endpoint
}

// Default mirrors the teacher's package-level Settings default literal.
func Default() Config {
	return Config{
		Port:              "9000",
		Backend:           BackendMemory,
		DataFile:          "/var/tmp/aesdsocketdata",
		TimestampInterval: 10 * time.Second,
		S3Key:             "aesdsocketdata.log",
		CephObject:        "aesdsocketdata.log",
	}
}

// Parse populates Config from CLI flags, the same stdlib flag package the
// teacher itself relies on (no CLI framework appears anywhere in its own
// go.mod either).
func Parse(args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("aesdsocket", flag.ContinueOnError)
	fs.BoolVar(&cfg.Daemonize, "d", false, "daemonize: detach from the controlling terminal")
	fs.StringVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on")
	backend := fs.String("backend", string(cfg.Backend), "log backend: memory, file, s3, or ceph")
	fs.StringVar(&cfg.DataFile, "data-file", cfg.DataFile, "backing file path for the file backend")
	rotate := fs.String("rotate-threshold", "0", "file backend archive threshold, e.g. 64MiB; 0 disables rotation")
	fs.BoolVar(&cfg.RotateArchiveXZ, "rotate-xz", false, "use xz instead of lz4 for archived segments")
	fs.BoolVar(&cfg.TamperWatch, "tamper-watch", false, "watch the backing file for external removal/replacement")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", "", "S3 bucket for the s3 backend")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", "", "custom S3 endpoint (MinIO, etc.)")
	fs.StringVar(&cfg.S3Region, "s3-region", "us-east-1", "S3 region")
	fs.StringVar(&cfg.CephPool, "ceph-pool", "aesdsocket", "Ceph/RADOS pool for the ceph backend")
	fs.StringVar(&cfg.AuditDSN, "audit-dsn", "", "optional mysql://... or postgres://... DSN mirroring commits")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", "", "optional address for the admin/observability HTTP endpoint")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Backend = Backend(*backend)
	if n, err := units.FromHumanSize(*rotate); err == nil {
		cfg.RotateThreshold = uint64(n)
	}
	return cfg, nil
}
