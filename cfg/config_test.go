// Copyright 2024 Google Inc. All Rights Reserved.
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

package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, "WARNING", c.Log.Severity)
	require.Equal(t, "text", c.Log.Format)
}

func TestLoad_NoPathReturnsDefault(t *testing.T) {
	c, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, Default(), c)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kompofs.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log:\n  severity: DEBUG\n  format: json\nbundle_path: /opt/bundle\n"), 0o644))

	c, err := Load(p, nil)
	require.NoError(t, err)
	require.Equal(t, "DEBUG", c.Log.Severity)
	require.Equal(t, "json", c.Log.Format)
	require.Equal(t, "/opt/bundle", c.BundlePath)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/kompofs.yaml", nil)
	require.Error(t, err)
}
