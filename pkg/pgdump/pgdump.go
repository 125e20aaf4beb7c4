// Package pgdump drives the pg_dump and psql binaries for backup and restore.
package pgdump

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"nusantara-erp/pkg/config"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

type ConnParams struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

type RestoreOptions struct {
	// DropExisting keeps psql going past errors from objects that already exist.
	DropExisting bool
}

type Dumper interface {
	Dump(ctx context.Context, dest string) error
}

type Restorer interface {
	Restore(ctx context.Context, src string, opts RestoreOptions) error
}

type Tool struct {
	pgDumpPath string
	psqlPath   string
	conn       ConnParams
	logger     *zap.Logger
}

func New(pgDumpPath, psqlPath string, conn ConnParams, logger *zap.Logger) *Tool {
	return &Tool{pgDumpPath: pgDumpPath, psqlPath: psqlPath, conn: conn, logger: logger}
}

// FromConfig builds a Tool from the backup settings.
func FromConfig(cfg config.BackupConfig, logger *zap.Logger) *Tool {
	return New(cfg.PgDumpPath, cfg.PsqlPath, ConnParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Database: cfg.DBName,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
	}, logger)
}

func (t *Tool) connArgs() []string {
	return []string{"-h", t.conn.Host, "-p", t.conn.Port, "-U", t.conn.User, "-d", t.conn.Database}
}

func (t *Tool) env() []string {
	return append(os.Environ(), "PGPASSWORD="+t.conn.Password)
}

// Dump streams pg_dump output through gzip into dest.
func (t *Tool) Dump(ctx context.Context, dest string) (err error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	args := append(t.connArgs(), "--no-owner", "--no-acl")
	cmd := exec.CommandContext(ctx, t.pgDumpPath, args...)
	cmd.Env = t.env()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// exec owns the copy; a failed write closes the pipe and pg_dump exits on EPIPE.
	zw := gzip.NewWriter(out)
	cmd.Stdout = zw

	t.logger.Info("pg_dump started", zap.String("dest", dest), zap.String("database", t.conn.Database))
	runErr := cmd.Run()
	closeErr := zw.Close()

	switch {
	case runErr != nil:
		return fmt.Errorf("pg_dump: %w: %s", runErr, strings.TrimSpace(stderr.String()))
	case closeErr != nil:
		return fmt.Errorf("finish gzip stream: %w", closeErr)
	}
	return nil
}

// Restore feeds the decompressed dump at src into psql.
func (t *Tool) Restore(ctx context.Context, src string, opts RestoreOptions) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("read gzip header: %w", err)
	}
	defer zr.Close()

	onErrorStop := "on"
	if opts.DropExisting {
		onErrorStop = "off"
	}
	args := append(t.connArgs(), "--quiet", "--set", "ON_ERROR_STOP="+onErrorStop)
	cmd := exec.CommandContext(ctx, t.psqlPath, args...)
	cmd.Env = t.env()
	cmd.Stdin = zr
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = io.Discard

	t.logger.Info("psql restore started", zap.String("src", src), zap.Bool("dropExisting", opts.DropExisting))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("psql: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
