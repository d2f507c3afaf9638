// Copyright 2024 The Snapraid-Scan Authors.
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

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestAsyncLoggerWriteAndClose(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "scan.log")
	lj := &lumberjack.Logger{Filename: logPath}
	a := NewAsyncLogger(lj, 10)

	fmt.Fprintln(a, "scan:add:disk1:a.txt")
	fmt.Fprintln(a, "scan:equal:disk1:b.txt")
	fmt.Fprintln(a, "scan:remove:disk1:c.txt")

	require.NoError(t, a.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Equal(t, "scan:add:disk1:a.txt\nscan:equal:disk1:b.txt\nscan:remove:disk1:c.txt\n", string(content))
}

func TestAsyncLoggerDropsWhenBufferFull(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "scan.log")
	lj := &lumberjack.Logger{Filename: logPath}
	a := NewAsyncLogger(lj, 1)

	for i := 0; i < 50; i++ {
		fmt.Fprintf(a, "line %d\n", i)
	}
	require.NoError(t, a.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.NotEmpty(t, content)
}
