package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// Fetch downloads a preset file from src into dir and returns its local path.
// src is any go-getter source: a local path, an http(s) URL, or a forced
// getter such as "s3::https://...". The file keeps the base name of src.
func Fetch(ctx context.Context, src, dir string) (string, error) {
	name, err := presetName(src)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create preset dir: %w", err)
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working dir: %w", err)
	}

	dst := filepath.Join(dir, name)
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetch preset %s: %w", src, err)
	}
	return dst, nil
}

// presetName derives a local file name from a getter source.
func presetName(src string) (string, error) {
	s := src
	if i := strings.Index(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = u.Path
	}
	s = strings.TrimSuffix(s, "/")
	name := path.Base(filepath.ToSlash(s))
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("preset source %q has no file name", src)
	}
	return name, nil
}
