/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

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

package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/dc0d/onexit"

	"github.com/aesdsocket-go/aesdsocket/internal/adminhttp"
	"github.com/aesdsocket-go/aesdsocket/internal/audit"
	"github.com/aesdsocket-go/aesdsocket/internal/config"
	"github.com/aesdsocket-go/aesdsocket/internal/logging"
	"github.com/aesdsocket-go/aesdsocket/internal/logstore"
	"github.com/aesdsocket-go/aesdsocket/internal/scheduler"
	"github.com/aesdsocket-go/aesdsocket/internal/server"
)

// daemonizedMarker tells a re-exec'd child it is already detached, so it
// doesn't fork again.
const daemonizedMarker = "AESDSOCKET_DAEMONIZED=1"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if cfg.Daemonize && !alreadyDaemonized() {
		if err := daemonize(); err != nil {
			fmt.Fprintln(os.Stderr, "aesdsocket: daemonize:", err)
			os.Exit(1)
		}
		return
	}
	if cfg.Daemonize {
		logging.UseSyslog("aesdsocket")
	}

	store, err := openStore(cfg)
	if err != nil {
		logging.PrintError("open store: %v", err)
		os.Exit(1)
	}

	auditSink, err := audit.New(cfg.AuditDSN)
	if err != nil {
		logging.PrintError("audit sink: %v", err)
		os.Exit(1)
	}
	onexit.Register(func() { auditSink.Close() })

	srv := server.New(store, auditSink)
	if err := srv.Listen(":" + cfg.Port); err != nil {
		logging.PrintError("listen: %v", err)
		os.Exit(1)
	}
	logging.Info("listening on :%s", cfg.Port)

	sched := scheduler.New()
	if cfg.Backend != config.BackendMemory {
		// spec.md §6: the structured ring backend has no use for periodic
		// timestamp injection; growing backends get one to mark elapsed time.
		sched.Every(cfg.TimestampInterval, func() {
			line := []byte(time.Now().Format("timestamp:Mon, 02 Jan 2006 15:04:05 -0700\n"))
			if err := store.Append(line); err != nil {
				logging.PrintError("timestamper: %v", err)
			}
		})
	}
	onexit.Register(func() { sched.Stop() })

	if cfg.AdminAddr != "" {
		admin := adminhttp.New(cfg.AdminAddr, adminStats{store, srv})
		srv.SetAdmin(admin)
		go func() {
			if err := admin.Serve(); err != nil {
				logging.PrintError("admin http: %v", err)
			}
		}()
		onexit.Register(func() { admin.Shutdown() })
	}

	go srv.Serve()
	sig := srv.WaitForShutdownSignal()
	logging.Info("received %v, shutting down", sig)
	srv.Wait()

	if err := store.Close(); err != nil {
		logging.PrintError("close store: %v", err)
	}
}

// adminStats adapts a logstore.Store and a *server.Server into the
// observability endpoint's read-only surface.
type adminStats struct {
	store logstore.Store
	srv   *server.Server
}

func (a adminStats) EntryCount() int        { return a.store.EntryCount() }
func (a adminStats) TotalSize() uint64      { return a.store.TotalSize() }
func (a adminStats) ConnectionCount() int   { return a.srv.ConnectionCount() }
func (a adminStats) Connections() []string  { return a.srv.Connections() }

func openStore(cfg config.Config) (logstore.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return logstore.NewMemoryStore(), nil
	case config.BackendFile:
		var opts []logstore.FileStoreOption
		if cfg.TamperWatch {
			opts = append(opts, logstore.WithTamperWatch(func(err error) {
				logging.PrintError("file backend tamper watch: %v", err)
			}))
		}
		if cfg.RotateThreshold > 0 {
			opts = append(opts, logstore.WithRotation(cfg.RotateThreshold, cfg.RotateArchiveXZ))
		}
		return logstore.NewFileStore(cfg.DataFile, opts...)
	case config.BackendS3:
		return logstore.NewObjectStore(logstore.ObjectStoreConfig{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Bucket:          cfg.S3Bucket,
			Key:             cfg.S3Key,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		}), nil
	case config.BackendCeph:
		return logstore.NewCephStore(logstore.CephStoreConfig{
			UserName:    cfg.CephUser,
			ClusterName: cfg.CephCluster,
			ConfFile:    cfg.CephConf,
			Pool:        cfg.CephPool,
			Object:      cfg.CephObject,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func alreadyDaemonized() bool {
	return os.Getenv("AESDSOCKET_DAEMONIZED") == "1"
}

// daemonize re-execs the current process detached from its controlling
// terminal: new session, cwd at /, stdio redirected to /dev/null. Go has no
// direct fork() equivalent safe to use post-runtime-init, so re-exec is the
// idiomatic substitute.
func daemonize() error {
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devnull.Close()

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), daemonizedMarker)
	cmd.Dir = "/"
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd.Start()
}
