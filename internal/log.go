// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Singleton log writer. Writes to stdout, and optionally to a file.
// Does not add prefixes, or force newlines. Safe for concurrent use
var Log io.Writer = &logWriter{stdout: os.Stdout}

type logWriter struct {
	mu     sync.Mutex
	stdout io.Writer
	file   *bufio.Writer
	fileOS *os.File
}

func (lw *logWriter) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	n, err = lw.stdout.Write(p)
	if err != nil || lw.file == nil {
		return n, err
	}
	return lw.file.Write(p)
}

// Flushes and closes the log file, if any
func (lw *logWriter) closeFile() error {
	if lw.file == nil {
		return nil
	}
	err := lw.file.Flush()
	if errClose := lw.fileOS.Close(); err == nil {
		err = errClose
	}
	lw.file, lw.fileOS = nil, nil
	return err
}

func theLog() *logWriter { return Log.(*logWriter) }

// Enables logging to file, in addition to stdout. Replaces any previous log file
func LogAlsoToFile(fileName string) error {
	lw := theLog()
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if err := lw.closeFile(); err != nil {
		return err
	}
	f, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	lw.fileOS, lw.file = f, bufio.NewWriter(f)
	return nil
}

func LogPrintf(format string, args ...interface{}) (n int, err error) {
	return fmt.Fprintf(Log, format, args...)
}

func LogFatalf(format string, args ...interface{}) {
	fmt.Fprintf(Log, format, args...)
	lw := theLog()
	lw.mu.Lock()
	lw.closeFile()
	lw.mu.Unlock()
	os.Exit(1)
}

// Flushes the log file to disk
func LogSync() error {
	lw := theLog()
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.file == nil {
		return nil
	}
	if err := lw.file.Flush(); err != nil {
		return err
	}
	return lw.fileOS.Sync()
}

// Flushes and closes the log file. Later output goes to stdout only
func LogClose() error {
	lw := theLog()
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.closeFile()
}
