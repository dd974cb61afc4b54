// Copyright (c) 2024 Symbol Not Found LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// github.com:SymbolNotFound/deltastream/internal/config/config.go

// Package config loads the optional deltastream config file, a
// human-friendly JSON-with-comments ("JSONC") document read by the deltadiff
// and deltadedup binaries for defaults that would otherwise have to be
// repeated as flags on every invocation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// FileName is the default config file name, looked for in the working
// directory unless an explicit path is given.
const FileName = ".deltastream.jsonc"

// Config holds the options deltadiff and deltadedup default from.
type Config struct {
	BlockSize   uint32   `json:"block_size,omitempty"`
	CacheDir    string   `json:"cache_dir,omitempty"`
	DedupIgnore []string `json:"dedup_ignore,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BlockSize: 4096,
		CacheDir:  ".deltastream-cache",
	}
}

// Load reads and merges a config file over Default(). workDir is searched
// for FileName unless explicitPath is non-empty, in which case that path
// must exist. A missing default file is not an error; a missing explicit
// path is.
func Load(workDir, explicitPath string) (Config, error) {
	cfg := Default()

	path := explicitPath
	mustExist := explicitPath != ""
	if path == "" {
		path = filepath.Join(workDir, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	overlay, err := parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return merge(cfg, overlay), nil
}

func parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.BlockSize != 0 {
		base.BlockSize = overlay.BlockSize
	}
	if overlay.CacheDir != "" {
		base.CacheDir = overlay.CacheDir
	}
	if len(overlay.DedupIgnore) > 0 {
		base.DedupIgnore = overlay.DedupIgnore
	}
	return base
}
